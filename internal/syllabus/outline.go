package syllabus

// Outline is the structured extraction of a syllabus produced by the
// completion service's structuring pass. All fields are best-effort: the
// model fills what it can find in the source text.
type Outline struct {
	Course      Course          `json:"course"`
	Timeline    []TimelineEntry `json:"timeline"`
	Topics      []TopicNote     `json:"topics"`
	Assessments []Assessment    `json:"assessments"`
	Policies    []string        `json:"policies"`
}

type Course struct {
	Title      string `json:"title"`
	Instructor string `json:"instructor"`
}

type TimelineEntry struct {
	Date string `json:"date"`
	What string `json:"what"`
}

type TopicNote struct {
	Topic string `json:"topic"`
	Notes string `json:"notes"`
}

type Assessment struct {
	Name   string `json:"name"`
	Due    string `json:"due"`
	Weight string `json:"weight"`
}
