package syllabus

import (
	"fmt"
	"strings"
)

// StructurePrompt instructs the completion service to extract a structured
// outline (course, timeline, topics, assessments, policies) from raw
// syllabus text as bare JSON.
func StructurePrompt(text string) string {
	return fmt.Sprintf(`You are a syllabus parser. Extract the following structured information from this syllabus text and return ONLY valid JSON:

{
  "course": {
    "title": "string (course name/title)",
    "instructor": "string (instructor name if found)"
  },
  "timeline": [
    { "date": "string (any dates mentioned)", "what": "string (what happens on that date)" }
  ],
  "topics": [
    { "topic": "string (main topic/chapter/module)", "notes": "string (any additional details)" }
  ],
  "assessments": [
    { "name": "string (exam/assignment name)", "due": "string (due date if found)", "weight": "string (percentage/points if found)" }
  ],
  "policies": ["string (important policies/rules)"]
}

Extract dates, topics, assignments, exams, and important policies. Be comprehensive but accurate.

Syllabus text:
%s`, text)
}

// PlanPrompt instructs the completion service to turn an outline into a
// module/task/resource study plan as bare JSON.
func PlanPrompt(o Outline) string {
	topics := make([]string, 0, len(o.Topics))
	for _, t := range o.Topics {
		if t.Topic != "" {
			topics = append(topics, t.Topic)
		}
	}
	assessments := make([]string, 0, len(o.Assessments))
	for _, a := range o.Assessments {
		if a.Name != "" {
			assessments = append(assessments, a.Name)
		}
	}
	title := o.Course.Title
	if title == "" {
		title = "Unknown Course"
	}

	return fmt.Sprintf(`Based on this structured syllabus data, create a comprehensive study plan with modules and tasks.

Course: %s
Topics: %s
Assessments: %s

Create modules that logically group related topics, and for each module provide specific, actionable study tasks with helpful resources.

Return your response as a JSON object with this exact structure:
{
  "title": "Study Plan for [Course Name]",
  "modules": [
    {
      "topic": "Module/Topic Name",
      "tasks": [
        {
          "description": "Specific actionable task",
          "resources": [
            {
              "title": "Resource name",
              "url": "https://example.com or search term"
            }
          ]
        }
      ]
    }
  ]
}

Make tasks specific and actionable. Provide 3-5 modules with 2-4 tasks each. Include relevant online resources (YouTube, Khan Academy, etc.) or search terms.`,
		title, strings.Join(topics, ", "), strings.Join(assessments, ", "))
}
