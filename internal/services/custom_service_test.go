package services

import (
	"testing"

	"github.com/parclip/formset/internal/models"
)

func seedCustomProject(store *fakeStore, doc models.Document) {
	store.projects["p1"] = &models.Project{ID: "p1", Name: "P1", CustomQuestions: doc}
}

func TestCustomAddCreatesSectionAndDefaults(t *testing.T) {
	store := newFakeStore()
	seedCustomProject(store, models.Document{Title: "Custom"})
	svc := NewCustomQuestionService(store)
	svc.idGenerator = func() string { return "gen-1" }

	doc, err := svc.Add("p1", "Extra", models.Question{Text: "  More detail?  "})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if len(doc.Sections) != 1 || doc.Sections[0].Title != "Extra" {
		t.Fatalf("sections = %+v", doc.Sections)
	}
	q := doc.Sections[0].Questions[0]
	if q.ID != "gen-1" || q.Text != "More detail?" || q.Type != models.ShortText {
		t.Fatalf("question = %+v", q)
	}

	stored, _ := store.GetProject("p1")
	if len(stored.CustomQuestions.Sections) != 1 {
		t.Fatalf("not persisted: %+v", stored.CustomQuestions)
	}
}

func TestCustomUpdateMovesBetweenSections(t *testing.T) {
	store := newFakeStore()
	seedCustomProject(store, models.Document{Title: "Custom", Sections: []models.Section{
		{Title: "A", Questions: []models.Question{{ID: "q1", Text: "Old?", Type: models.ShortText}}},
	}})
	svc := NewCustomQuestionService(store)

	doc, err := svc.Update("p1", "q1", "B", models.Question{ID: "ignored", Text: "New?", Type: models.LongText})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	// Section A emptied out and was pruned.
	if len(doc.Sections) != 1 || doc.Sections[0].Title != "B" {
		t.Fatalf("sections = %+v", doc.Sections)
	}
	q := doc.Sections[0].Questions[0]
	if q.ID != "q1" || q.Text != "New?" || q.Type != models.LongText {
		t.Fatalf("question = %+v", q)
	}

	if _, err := svc.Update("p1", "missing", "B", models.Question{}); err == nil {
		t.Fatalf("expected not found")
	}
}

func TestCustomDelete(t *testing.T) {
	store := newFakeStore()
	seedCustomProject(store, models.Document{Title: "Custom", Sections: []models.Section{
		{Title: "A", Questions: []models.Question{
			{ID: "q1", Text: "One?", Type: models.ShortText},
			{ID: "q2", Text: "Two?", Type: models.ShortText},
		}},
	}})
	svc := NewCustomQuestionService(store)

	if err := svc.Delete("p1", "q1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	stored, _ := store.GetProject("p1")
	if len(stored.CustomQuestions.Sections[0].Questions) != 1 {
		t.Fatalf("custom = %+v", stored.CustomQuestions)
	}
	if err := svc.Delete("p1", "q1"); err == nil {
		t.Fatalf("expected not found on second delete")
	}
}

func TestCustomCanonicalRepairsStoredBlock(t *testing.T) {
	store := newFakeStore()
	// Question stored without an id: canonicalization assigns one and the
	// repaired block is written back.
	seedCustomProject(store, models.Document{Title: "Custom", Sections: []models.Section{
		{Title: "A", Questions: []models.Question{{Text: "One?", Type: models.ShortText}}},
	}})
	svc := NewCustomQuestionService(store)

	doc, err := svc.Canonical("p1")
	if err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if doc.Sections[0].Questions[0].ID == "" {
		t.Fatalf("id not assigned")
	}
	if store.saveCalls != 1 {
		t.Fatalf("saveCalls = %d", store.saveCalls)
	}

	// A second read needs no repair.
	if _, err := svc.Canonical("p1"); err != nil {
		t.Fatalf("Canonical: %v", err)
	}
	if store.saveCalls != 1 {
		t.Fatalf("saveCalls = %d after clean read", store.saveCalls)
	}
}
