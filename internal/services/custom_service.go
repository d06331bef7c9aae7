package services

import (
	"reflect"
	"strings"

	"github.com/google/uuid"

	"github.com/parclip/formset/internal/models"
)

// CustomQuestionStore persists per-project custom-question blocks.
// SaveCustomQuestions replaces the whole block in one write.
type CustomQuestionStore interface {
	GetProject(id string) (*models.Project, error)
	SaveCustomQuestions(projectID string, doc models.Document) error
}

// CustomQuestionService mutates a project's custom-question block one
// question at a time. Unlike question-set versions the block is edited in
// place; question ids survive moves between sections, and empty sections
// are pruned after every mutation.
type CustomQuestionService struct {
	store       CustomQuestionStore
	idGenerator func() string
}

func NewCustomQuestionService(store CustomQuestionStore) *CustomQuestionService {
	return &CustomQuestionService{store: store, idGenerator: uuid.NewString}
}

// Canonical returns the canonicalized block, persisting it when
// normalization changed the stored form (so edit/delete by id works even
// for blocks written before ids were generated).
func (s *CustomQuestionService) Canonical(projectID string) (models.Document, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return models.Document{}, err
	}
	if p == nil {
		return models.Document{}, NewNotFoundError("project not found")
	}
	cq := CanonicalizeDocument(p.CustomQuestions)
	if !reflect.DeepEqual(cq, p.CustomQuestions) {
		if err := s.store.SaveCustomQuestions(projectID, cq); err != nil {
			return models.Document{}, err
		}
	}
	return cq, nil
}

// Add appends a question to the named section, creating the section on
// demand. Missing type defaults to short_text; a missing id is generated.
func (s *CustomQuestionService) Add(projectID, sectionTitle string, q models.Question) (models.Document, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return models.Document{}, err
	}
	if p == nil {
		return models.Document{}, NewNotFoundError("project not found")
	}
	cq := CanonicalizeDocument(p.CustomQuestions)
	applyQuestionDefaults(&q, s.idGenerator)
	cq = appendQuestion(cq, sectionTitle, q)
	cq.Sections = pruneEmptySections(cq.Sections)
	if err := s.store.SaveCustomQuestions(projectID, cq); err != nil {
		return models.Document{}, err
	}
	return cq, nil
}

// Update replaces the question with the given id, moving it to
// newSectionTitle when that differs from its current section. The id is
// preserved regardless of what the payload carries.
func (s *CustomQuestionService) Update(projectID, questionID, newSectionTitle string, q models.Question) (models.Document, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return models.Document{}, err
	}
	if p == nil {
		return models.Document{}, NewNotFoundError("project not found")
	}
	cq := CanonicalizeDocument(p.CustomQuestions)

	currentSection := -1
	for si := range cq.Sections {
		if indexOfQuestion(cq.Sections[si].Questions, questionID) >= 0 {
			currentSection = si
			break
		}
	}
	if currentSection < 0 {
		return models.Document{}, NewNotFoundError("custom question not found")
	}

	if cq.Sections[currentSection].Title != newSectionTitle {
		cq.Sections[currentSection].Questions = removeQuestion(cq.Sections[currentSection].Questions, questionID)
	}

	q.ID = questionID
	if q.Type == "" {
		q.Type = models.ShortText
	}

	target := -1
	for si := range cq.Sections {
		if cq.Sections[si].Title == newSectionTitle {
			target = si
			break
		}
	}
	if target < 0 {
		cq.Sections = append(cq.Sections, models.Section{Title: newSectionTitle, Questions: []models.Question{}})
		target = len(cq.Sections) - 1
	}
	if i := indexOfQuestion(cq.Sections[target].Questions, questionID); i >= 0 {
		cq.Sections[target].Questions[i] = q
	} else {
		cq.Sections[target].Questions = append(cq.Sections[target].Questions, q)
	}

	cq.Sections = pruneEmptySections(cq.Sections)
	if err := s.store.SaveCustomQuestions(projectID, cq); err != nil {
		return models.Document{}, err
	}
	return cq, nil
}

// Delete removes the question with the given id from whichever section
// holds it.
func (s *CustomQuestionService) Delete(projectID, questionID string) error {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return NewNotFoundError("project not found")
	}
	cq := CanonicalizeDocument(p.CustomQuestions)

	removed := false
	for si := range cq.Sections {
		before := len(cq.Sections[si].Questions)
		cq.Sections[si].Questions = removeQuestion(cq.Sections[si].Questions, questionID)
		if len(cq.Sections[si].Questions) != before {
			removed = true
		}
	}
	if !removed {
		return NewNotFoundError("custom question not found")
	}
	cq.Sections = pruneEmptySections(cq.Sections)
	return s.store.SaveCustomQuestions(projectID, cq)
}

func applyQuestionDefaults(q *models.Question, idGen func() string) {
	q.Text = strings.TrimSpace(q.Text)
	if q.Type == "" {
		q.Type = models.ShortText
	}
	if q.ID == "" {
		q.ID = idGen()
	}
}

func appendQuestion(doc models.Document, sectionTitle string, q models.Question) models.Document {
	for si := range doc.Sections {
		if doc.Sections[si].Title == sectionTitle {
			doc.Sections[si].Questions = append(doc.Sections[si].Questions, q)
			return doc
		}
	}
	doc.Sections = append(doc.Sections, models.Section{Title: sectionTitle, Questions: []models.Question{q}})
	return doc
}

func indexOfQuestion(questions []models.Question, id string) int {
	for i := range questions {
		if questions[i].ID == id {
			return i
		}
	}
	return -1
}

func removeQuestion(questions []models.Question, id string) []models.Question {
	out := questions[:0]
	for _, q := range questions {
		if q.ID != id {
			out = append(out, q)
		}
	}
	return out
}

func pruneEmptySections(sections []models.Section) []models.Section {
	out := make([]models.Section, 0, len(sections))
	for _, s := range sections {
		if len(s.Questions) > 0 {
			out = append(out, s)
		}
	}
	return out
}
