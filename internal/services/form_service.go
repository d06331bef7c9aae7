package services

import (
	"fmt"

	"github.com/parclip/formset/internal/models"
)

// FormStore provides the reads needed to assemble a project's merged form.
type FormStore interface {
	GetProject(id string) (*models.Project, error)
	ListAssignments(projectID string) ([]models.Assignment, error)
	GetVersion(id string) (*models.Version, error)
}

// QuestionInfo is the fixed projection of a question used by answer
// ingestion and read paths. Fields outside this set (auto, remember) are
// deliberately omitted to keep the payload minimal; auto-fill walks the
// form itself.
type QuestionInfo struct {
	Text     string              `json:"text"`
	Type     models.QuestionType `json:"type"`
	Required bool                `json:"required"`
	Options  []string            `json:"options,omitempty"`
	ValueMap map[string]int      `json:"value_map,omitempty"`
}

// MergeForm composes the assigned version documents (in assignment order)
// and the custom block into one renderable form. Section titles are
// prefixed "{set title} — {section title}", custom sections come last as
// "Custom — {section title}". The result is derived, never persisted.
func MergeForm(title string, versions []models.Document, custom models.Document) models.Document {
	merged := models.Document{Title: title, Sections: []models.Section{}}
	for _, doc := range versions {
		for _, sec := range doc.Sections {
			merged.Sections = append(merged.Sections, models.Section{
				Title:     fmt.Sprintf("%s — %s", doc.Title, sec.Title),
				Questions: sec.Questions,
			})
		}
	}
	for _, sec := range custom.Sections {
		merged.Sections = append(merged.Sections, models.Section{
			Title:     fmt.Sprintf("Custom — %s", sec.Title),
			Questions: sec.Questions,
		})
	}
	return merged
}

// QuestionLookup builds an O(1) question-id index over a merged form.
func QuestionLookup(form models.Document) map[string]QuestionInfo {
	out := make(map[string]QuestionInfo)
	for _, sec := range form.Sections {
		for _, q := range sec.Questions {
			out[q.ID] = QuestionInfo{
				Text:     q.Text,
				Type:     q.Type,
				Required: q.Required,
				Options:  q.Options,
				ValueMap: q.ValueMap,
			}
		}
	}
	return out
}

// FormService assembles merged forms from the store.
type FormService struct {
	store FormStore
}

func NewFormService(store FormStore) *FormService {
	return &FormService{store: store}
}

// MergedForm recomputes the merged form for a project. The custom block is
// canonicalized on the way in so questions stored without ids become
// addressable.
func (s *FormService) MergedForm(projectID string) (models.Document, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return models.Document{}, err
	}
	if p == nil {
		return models.Document{}, NewNotFoundError("project not found")
	}
	form, _, err := mergedFormFor(s.store, p)
	return form, err
}

func mergedFormFor(store FormStore, p *models.Project) (models.Document, models.Document, error) {
	assignments, err := store.ListAssignments(p.ID)
	if err != nil {
		return models.Document{}, models.Document{}, err
	}
	docs := make([]models.Document, 0, len(assignments))
	for _, a := range assignments {
		v, err := store.GetVersion(a.VersionID)
		if err != nil {
			return models.Document{}, models.Document{}, err
		}
		if v != nil {
			docs = append(docs, v.Data)
		}
	}
	custom := CanonicalizeDocument(p.CustomQuestions)
	return MergeForm(p.Name, docs, custom), custom, nil
}
