package store

import (
	"testing"
	"time"

	"github.com/parclip/formset/internal/models"
)

func version(id, name string, at time.Time) *models.Version {
	return &models.Version{ID: id, Name: name, CreatedAt: at}
}

func TestInsertVersionWithUpgradeRepointsAssignments(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	if err := m.InsertVersionWithUpgrade(version("m1", "monthly", base)); err != nil {
		t.Fatalf("insert m1: %v", err)
	}
	if err := m.InsertVersionWithUpgrade(version("q1", "quarterly", base)); err != nil {
		t.Fatalf("insert q1: %v", err)
	}
	_ = m.InsertProject(&models.Project{ID: "p1", Name: "P1"})
	_ = m.ReplaceAssignments("p1", []string{"q1", "m1"})

	if err := m.InsertVersionWithUpgrade(version("m2", "monthly", base.Add(time.Hour))); err != nil {
		t.Fatalf("insert m2: %v", err)
	}

	rows, _ := m.ListAssignments("p1")
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].VersionID != "q1" || rows[0].Position != 0 {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1].VersionID != "m2" || rows[1].Position != 1 {
		t.Fatalf("row 1 = %+v", rows[1])
	}

	latest, _ := m.LatestVersion("monthly")
	if latest == nil || latest.ID != "m2" {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestInsertVersionWithUpgradeDropsStaleRow(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = m.InsertVersionWithUpgrade(version("m1", "monthly", base))
	_ = m.InsertProject(&models.Project{ID: "p1", Name: "P1"})
	// The project somehow already references the incoming version id.
	_ = m.ReplaceAssignments("p1", []string{"m2", "m1"})

	_ = m.InsertVersionWithUpgrade(version("m2", "monthly", base.Add(time.Hour)))

	rows, _ := m.ListAssignments("p1")
	if len(rows) != 1 || rows[0].VersionID != "m2" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestDeleteVersionRemovesAssignments(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	_ = m.InsertVersionWithUpgrade(version("m1", "monthly", base))
	_ = m.InsertProject(&models.Project{ID: "p1", Name: "P1"})
	_ = m.ReplaceAssignments("p1", []string{"m1"})

	if err := m.DeleteVersion("m1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if v, _ := m.GetVersion("m1"); v != nil {
		t.Fatalf("version still visible: %+v", v)
	}
	rows, _ := m.ListAssignments("p1")
	if len(rows) != 0 {
		t.Fatalf("rows = %+v", rows)
	}
	if latest, _ := m.LatestVersion("monthly"); latest != nil {
		t.Fatalf("latest = %+v", latest)
	}
}

func TestCommitRecordWritesCustomAtomically(t *testing.T) {
	m := NewMemoryStore()
	_ = m.InsertProject(&models.Project{ID: "p1", Name: "P1"})

	custom := models.Document{Title: "Custom", Sections: []models.Section{
		{Title: "Auto-created", Questions: []models.Question{{ID: "q1", Text: "Extra?"}}},
	}}
	rec := &models.Record{ID: "r1", ProjectID: "p1", CreatedBy: "alice", CreatedAt: time.Now()}
	if err := m.CommitRecord("p1", &custom, rec); err != nil {
		t.Fatalf("commit: %v", err)
	}

	p, _ := m.GetProject("p1")
	if len(p.CustomQuestions.Sections) != 1 {
		t.Fatalf("custom = %+v", p.CustomQuestions)
	}
	got, _ := m.GetRecord("r1")
	if got == nil || got.CreatedBy != "alice" {
		t.Fatalf("record = %+v", got)
	}
}

func TestListRecordsOrderAndLimit(t *testing.T) {
	m := NewMemoryStore()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"r1", "r2", "r3"} {
		rec := &models.Record{ID: id, ProjectID: "p1", CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		if err := m.CommitRecord("p1", nil, rec); err != nil {
			t.Fatalf("commit %s: %v", id, err)
		}
	}
	out, _ := m.ListRecords("p1", 2)
	if len(out) != 2 || out[0].ID != "r3" || out[1].ID != "r2" {
		t.Fatalf("out = %+v", out)
	}
}
