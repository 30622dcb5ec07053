package syllabus

import (
	"encoding/json"
	"strings"
)

// Plan is the canonical study-plan shape persisted to history and returned
// to pollers.
type Plan struct {
	Title   string   `json:"title"`
	Modules []Module `json:"modules"`
}

type Module struct {
	Topic string `json:"topic"`
	Tasks []Task `json:"tasks"`
}

type Task struct {
	Description string     `json:"description"`
	Resources   []Resource `json:"resources"`
}

type Resource struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

const (
	defaultTopic       = "Untitled Topic"
	defaultDescription = "No description"
	defaultResourceURL = "#"
)

// SanitizePlan coerces an untrusted plan payload into a canonical Plan. The
// completion service's output is not schema-enforced, so missing fields are
// defaulted and resources without a title are dropped rather than trusted.
// It never fails: unusable input yields an empty plan.
func SanitizePlan(raw json.RawMessage) Plan {
	var in struct {
		Title   string `json:"title"`
		Modules []struct {
			Topic string `json:"topic"`
			Tasks []struct {
				Description string `json:"description"`
				Resources   []struct {
					Title string `json:"title"`
					URL   string `json:"url"`
				} `json:"resources"`
			} `json:"tasks"`
		} `json:"modules"`
	}
	// Decode errors are ignored on purpose: encoding/json fills every field
	// it can before reporting a type mismatch, and the defaults below cover
	// whatever it could not.
	_ = json.Unmarshal(raw, &in)

	out := Plan{
		Title:   strings.TrimSpace(in.Title),
		Modules: make([]Module, 0, len(in.Modules)),
	}
	for _, m := range in.Modules {
		mod := Module{Topic: strings.TrimSpace(m.Topic), Tasks: make([]Task, 0, len(m.Tasks))}
		if mod.Topic == "" {
			mod.Topic = defaultTopic
		}
		for _, t := range m.Tasks {
			task := Task{Description: strings.TrimSpace(t.Description), Resources: make([]Resource, 0, len(t.Resources))}
			if task.Description == "" {
				task.Description = defaultDescription
			}
			for _, r := range t.Resources {
				title := strings.TrimSpace(r.Title)
				if title == "" {
					continue
				}
				url := strings.TrimSpace(r.URL)
				if url == "" {
					url = defaultResourceURL
				}
				task.Resources = append(task.Resources, Resource{Title: title, URL: url})
			}
			mod.Tasks = append(mod.Tasks, task)
		}
		out.Modules = append(out.Modules, mod)
	}
	return out
}
