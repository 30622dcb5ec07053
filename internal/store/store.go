package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Store wraps the Postgres connection used for users and saved study plans.
type Store struct {
	DB *sql.DB
}

// NewWithDSN opens a Postgres connection and verifies it with a ping.
func NewWithDSN(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{DB: db}, nil
}

func (s *Store) Close() error { return s.DB.Close() }

// User is an account row. PasswordHash never leaves the server.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

func (s *Store) CreateUser(ctx context.Context, email, passwordHash string) (string, error) {
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO users (email, password_hash) VALUES ($1, $2) RETURNING id`,
		email, passwordHash).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("create user: %w", err)
	}
	return id, nil
}

// GetUserByEmail returns (user, false, nil) when no account exists.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, bool, error) {
	var u User
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE email = $1`,
		email).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return User{}, false, nil
	}
	if err != nil {
		return User{}, false, fmt.Errorf("get user: %w", err)
	}
	return u, true, nil
}

// PlanRecord is a persisted study plan. Modules and Metadata are stored as
// JSONB and passed through opaque to the database layer.
type PlanRecord struct {
	ID        string          `json:"id"`
	UserID    string          `json:"-"`
	Title     string          `json:"title"`
	Modules   json.RawMessage `json:"modules"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// SavePlan inserts a plan row and returns the generated id.
func (s *Store) SavePlan(ctx context.Context, rec PlanRecord) (string, error) {
	if len(rec.Modules) == 0 {
		rec.Modules = json.RawMessage(`[]`)
	}
	if len(rec.Metadata) == 0 {
		rec.Metadata = json.RawMessage(`{}`)
	}
	var id string
	err := s.DB.QueryRowContext(ctx,
		`INSERT INTO study_plans (user_id, title, modules, metadata) VALUES ($1, $2, $3, $4) RETURNING id`,
		rec.UserID, rec.Title, []byte(rec.Modules), []byte(rec.Metadata)).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("save plan: %w", err)
	}
	return id, nil
}

// ListPlans returns one page of a user's plans, newest first.
func (s *Store) ListPlans(ctx context.Context, userID string, limit, offset int) ([]PlanRecord, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, modules, metadata, created_at
		   FROM study_plans WHERE user_id = $1
		  ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []PlanRecord
	for rows.Next() {
		rec := PlanRecord{UserID: userID}
		var modules, metadata []byte
		if err := rows.Scan(&rec.ID, &rec.Title, &modules, &metadata, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		rec.Modules = json.RawMessage(modules)
		rec.Metadata = json.RawMessage(metadata)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) CountPlans(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM study_plans WHERE user_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count plans: %w", err)
	}
	return n, nil
}

// GetPlanByID returns (rec, false, nil) when no plan with that id belongs to
// the user.
func (s *Store) GetPlanByID(ctx context.Context, id, userID string) (PlanRecord, bool, error) {
	rec := PlanRecord{UserID: userID}
	var modules, metadata []byte
	err := s.DB.QueryRowContext(ctx,
		`SELECT id, title, modules, metadata, created_at
		   FROM study_plans WHERE id = $1 AND user_id = $2`,
		id, userID).Scan(&rec.ID, &rec.Title, &modules, &metadata, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return PlanRecord{}, false, nil
	}
	if err != nil {
		return PlanRecord{}, false, fmt.Errorf("get plan: %w", err)
	}
	rec.Modules = json.RawMessage(modules)
	rec.Metadata = json.RawMessage(metadata)
	return rec, true, nil
}

// DeletePlan reports whether a row was actually removed.
func (s *Store) DeletePlan(ctx context.Context, id, userID string) (bool, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM study_plans WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("delete plan: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete plan: %w", err)
	}
	return n > 0, nil
}

// ListPlanIDs returns every plan id a user owns; used to invalidate cache
// entries before a bulk clear.
func (s *Store) ListPlanIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id FROM study_plans WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("list plan ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan plan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ClearPlans removes all of a user's plans and returns the number deleted.
func (s *Store) ClearPlans(ctx context.Context, userID string) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM study_plans WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear plans: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("clear plans: %w", err)
	}
	return n, nil
}

// PrunePlans drops the oldest plans beyond keep for the user, returning the
// number removed.
func (s *Store) PrunePlans(ctx context.Context, userID string, keep int) (int64, error) {
	res, err := s.DB.ExecContext(ctx,
		`DELETE FROM study_plans
		  WHERE user_id = $1 AND id NOT IN (
		        SELECT id FROM study_plans WHERE user_id = $1
		         ORDER BY created_at DESC LIMIT $2)`,
		userID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune plans: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune plans: %w", err)
	}
	return n, nil
}
