package store

import (
	"context"
	"encoding/json"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return &Store{DB: db}, mock
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`)).
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}))

	_, found, err := st.GetUserByEmail(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected not found")
	}
}

func TestGetUserByEmail_Found(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`)).
		WithArgs("a@b.c").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at"}).
			AddRow("uid-1", "a@b.c", "$2a$10$hash", time.Now()))

	u, found, err := st.GetUserByEmail(context.Background(), "a@b.c")
	if err != nil || !found {
		t.Fatalf("expected hit, got %v %v", found, err)
	}
	if u.ID != "uid-1" || u.PasswordHash == "" {
		t.Fatalf("user mismatch: %+v", u)
	}
}

func TestSavePlan_DefaultsEmptyDocuments(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO study_plans (user_id, title, modules, metadata) VALUES ($1, $2, $3, $4) RETURNING id`)).
		WithArgs("uid-1", "Plan", []byte(`[]`), []byte(`{}`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("pid-1"))

	id, err := st.SavePlan(context.Background(), PlanRecord{UserID: "uid-1", Title: "Plan"})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if id != "pid-1" {
		t.Fatalf("id: %q", id)
	}
}

func TestListPlans_ScansDocuments(t *testing.T) {
	st, mock := newMockStore(t)
	mods := `[{"topic":"T","tasks":[]}]`
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, modules, metadata, created_at`)).
		WithArgs("uid-1", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "modules", "metadata", "created_at"}).
			AddRow("pid-1", "Plan", []byte(mods), []byte(`{"source":"manual"}`), time.Now()))

	recs, err := st.ListPlans(context.Background(), "uid-1", 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected one record, got %d", len(recs))
	}
	if string(recs[0].Modules) != mods {
		t.Fatalf("modules: %s", recs[0].Modules)
	}
	var meta map[string]string
	if err := json.Unmarshal(recs[0].Metadata, &meta); err != nil || meta["source"] != "manual" {
		t.Fatalf("metadata: %s (%v)", recs[0].Metadata, err)
	}
}

func TestGetPlanByID_NotFound(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, title, modules, metadata, created_at`)).
		WithArgs("pid-x", "uid-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "modules", "metadata", "created_at"}))

	_, found, err := st.GetPlanByID(context.Background(), "pid-x", "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected miss")
	}
}

func TestDeletePlan_ReportsMiss(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM study_plans WHERE id = $1 AND user_id = $2`)).
		WithArgs("pid-x", "uid-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := st.DeletePlan(context.Background(), "pid-x", "uid-1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted {
		t.Fatalf("expected no rows deleted")
	}
}

func TestPrunePlans(t *testing.T) {
	st, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM study_plans`)).
		WithArgs("uid-1", 100).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := st.PrunePlans(context.Background(), "uid-1", 100)
	if err != nil {
		t.Fatalf("prune: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 pruned, got %d", n)
	}
}
