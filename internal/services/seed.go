package services

import "github.com/parclip/formset/internal/models"

// DefaultQuestionSetName is the lineage every new project is assigned to.
const DefaultQuestionSetName = "default"

var ragMap = map[string]int{"red": 2, "amber": 1, "green": 0}

// DefaultQuestionSet returns the built-in monthly-update question set. IDs
// are assigned at canonicalization time so each seeded deployment gets its
// own stable ids.
func DefaultQuestionSet() models.Document {
	rag := func(text string) models.Question {
		return models.Question{
			Text:     text,
			Type:     models.DropdownMapped,
			Required: true,
			Options:  []string{"red", "amber", "green"},
			ValueMap: ragMap,
		}
	}
	return models.Document{
		Title: DefaultQuestionSetName,
		Sections: []models.Section{{
			Title: "Monthly Update",
			Questions: []models.Question{
				{Text: "Focalpoint code?", Type: models.Numeric, Auto: &models.AutoSource{Source: "project_focalpoint_code"}},
				{Text: "Project name?", Type: models.ShortText, Auto: &models.AutoSource{Source: "project_name"}},
				{Text: "Project manager?", Type: models.ShortText, Required: true, Remember: true},
				{Text: "Project sponsor?", Type: models.ShortText, Required: true, Remember: true},
				{Text: "Funder or Programme?", Type: models.Dropdown, Required: true, Remember: true, Options: []string{"ATE", "DfT", "T9"}},
				{Text: "Project Type?", Type: models.Dropdown, Required: true, Remember: true, Options: []string{"Engagement", "Construction", "Pipeline", "Other"}},
				{Text: "Region?", Type: models.Dropdown, Required: true, Remember: true, Options: []string{"South", "M&E", "North", "London", "National"}},
				{Text: "Progress during last period?", Type: models.LongText, Required: true},
				{Text: "Focus for next month?", Type: models.LongText, Required: true},
				{Text: "Has the risk register been updated this calendar month?", Type: models.YesNo, Required: true},
				{Text: "Key risks escalated on behalf of Project Sponsor?", Type: models.LongText},
				{Text: "Agreed Project Deadline?", Type: models.Date, Remember: true},
				{Text: "Are the dates in the Infrastructure Plan correct?", Type: models.YesNo, Required: true},
				{Text: "Have you added any new significant issues to the issues log this calendar month?", Type: models.YesNo, Required: true},
				{Text: "Significant issues to highlight?", Type: models.LongText},
				{Text: "Any other comments?", Type: models.LongText},
				rag("Overall RAG status: time?"),
				rag("Overall RAG status: budget?"),
				rag("Overall RAG status: scope?"),
			},
		}},
	}
}
