package syllabus

import (
	"encoding/json"
	"testing"
)

func TestSanitizePlan_DropsEmptyTitleResources(t *testing.T) {
	plan := SanitizePlan(json.RawMessage(`{"modules":[{"tasks":[{"resources":[{"title":"","url":"x"}]}]}]}`))
	if len(plan.Modules) != 1 || len(plan.Modules[0].Tasks) != 1 {
		t.Fatalf("unexpected shape: %+v", plan)
	}
	task := plan.Modules[0].Tasks[0]
	if len(task.Resources) != 0 {
		t.Fatalf("expected empty resources, got %+v", task.Resources)
	}
	if task.Description != "No description" {
		t.Fatalf("expected default description, got %q", task.Description)
	}
}

func TestSanitizePlan_DefaultsNullFields(t *testing.T) {
	plan := SanitizePlan(json.RawMessage(`{"modules":[{"topic":null,"tasks":null}]}`))
	if len(plan.Modules) != 1 {
		t.Fatalf("expected one module, got %d", len(plan.Modules))
	}
	mod := plan.Modules[0]
	if mod.Topic != "Untitled Topic" {
		t.Fatalf("expected default topic, got %q", mod.Topic)
	}
	if mod.Tasks == nil || len(mod.Tasks) != 0 {
		t.Fatalf("expected empty task list, got %+v", mod.Tasks)
	}
}

func TestSanitizePlan_DefaultsResourceURL(t *testing.T) {
	plan := SanitizePlan(json.RawMessage(`{"modules":[{"topic":"T","tasks":[{"description":"d","resources":[{"title":"Khan Academy"}]}]}]}`))
	res := plan.Modules[0].Tasks[0].Resources
	if len(res) != 1 || res[0].URL != "#" {
		t.Fatalf("expected placeholder url, got %+v", res)
	}
}

func TestSanitizePlan_GarbageInput(t *testing.T) {
	plan := SanitizePlan(json.RawMessage(`"not an object"`))
	if plan.Modules == nil || len(plan.Modules) != 0 {
		t.Fatalf("expected empty plan, got %+v", plan)
	}
}

func TestSanitizePlan_KeepsWellFormedPlan(t *testing.T) {
	plan := SanitizePlan(json.RawMessage(`{
		"title": "Study Plan for Algorithms",
		"modules": [
			{"topic": "Sorting", "tasks": [
				{"description": "Implement quicksort", "resources": [{"title": "CLRS ch.7", "url": "https://example.com"}]}
			]}
		]
	}`))
	if plan.Title != "Study Plan for Algorithms" {
		t.Fatalf("unexpected title %q", plan.Title)
	}
	if len(plan.Modules) != 1 || plan.Modules[0].Topic != "Sorting" {
		t.Fatalf("unexpected modules: %+v", plan.Modules)
	}
	if plan.Modules[0].Tasks[0].Resources[0].URL != "https://example.com" {
		t.Fatalf("resource url mangled: %+v", plan.Modules[0].Tasks[0].Resources)
	}
}
