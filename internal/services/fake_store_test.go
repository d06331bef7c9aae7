package services

import (
	"sort"
	"time"

	"github.com/parclip/formset/internal/models"
)

// fakeStore backs service tests with plain maps. It mirrors the real
// stores' repoint-or-delete upgrade behavior so the version tests exercise
// the same invariant.
type fakeStore struct {
	versions    map[string]*models.Version
	projects    map[string]*models.Project
	assignments map[string][]models.Assignment
	records     map[string]*models.Record

	commitCalls int
	saveCalls   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		versions:    map[string]*models.Version{},
		projects:    map[string]*models.Project{},
		assignments: map[string][]models.Assignment{},
		records:     map[string]*models.Record{},
	}
}

func (f *fakeStore) InsertVersionWithUpgrade(v *models.Version) error {
	cp := *v
	f.versions[cp.ID] = &cp
	oldIDs := map[string]bool{}
	for id, other := range f.versions {
		if id != cp.ID && other.Name == cp.Name && other.DeletedAt == nil {
			oldIDs[id] = true
		}
	}
	for pid, rows := range f.assignments {
		hasNew := false
		for _, a := range rows {
			if a.VersionID == cp.ID {
				hasNew = true
			}
		}
		out := rows[:0]
		for _, a := range rows {
			if !oldIDs[a.VersionID] {
				out = append(out, a)
				continue
			}
			if hasNew {
				continue
			}
			a.VersionID = cp.ID
			hasNew = true
			out = append(out, a)
		}
		f.assignments[pid] = out
	}
	return nil
}

func (f *fakeStore) GetVersion(id string) (*models.Version, error) {
	v, ok := f.versions[id]
	if !ok || v.DeletedAt != nil {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) LatestVersion(name string) (*models.Version, error) {
	var latest *models.Version
	for _, v := range f.versions {
		if v.Name != name || v.DeletedAt != nil {
			continue
		}
		if latest == nil || v.CreatedAt.After(latest.CreatedAt) {
			latest = v
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) ListVersions() ([]*models.Version, error) {
	var out []*models.Version
	for _, v := range f.versions {
		if v.DeletedAt == nil {
			cp := *v
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) DeleteVersion(id string) error {
	if v, ok := f.versions[id]; ok {
		now := time.Now()
		v.DeletedAt = &now
	}
	for pid, rows := range f.assignments {
		out := rows[:0]
		for _, a := range rows {
			if a.VersionID != id {
				out = append(out, a)
			}
		}
		f.assignments[pid] = out
	}
	return nil
}

func (f *fakeStore) InsertProject(p *models.Project) error {
	cp := *p
	f.projects[cp.ID] = &cp
	return nil
}

func (f *fakeStore) GetProject(id string) (*models.Project, error) {
	p, ok := f.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) GetProjectByName(name string) (*models.Project, error) {
	for _, p := range f.projects {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) UpdateProject(p *models.Project) error {
	cp := *p
	f.projects[cp.ID] = &cp
	return nil
}

func (f *fakeStore) ListProjects(includeClosed, includeDeleted bool) ([]*models.Project, error) {
	var out []*models.Project
	for _, p := range f.projects {
		if p.DeletedAt != nil && !includeDeleted {
			continue
		}
		if p.Closed && !includeClosed {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) SaveCustomQuestions(projectID string, doc models.Document) error {
	f.saveCalls++
	if p, ok := f.projects[projectID]; ok {
		p.CustomQuestions = doc
	}
	return nil
}

func (f *fakeStore) ListAssignments(projectID string) ([]models.Assignment, error) {
	rows := f.assignments[projectID]
	out := make([]models.Assignment, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (f *fakeStore) ReplaceAssignments(projectID string, versionIDs []string) error {
	rows := make([]models.Assignment, 0, len(versionIDs))
	for i, vid := range versionIDs {
		rows = append(rows, models.Assignment{ProjectID: projectID, VersionID: vid, Position: i})
	}
	f.assignments[projectID] = rows
	return nil
}

func (f *fakeStore) CommitRecord(projectID string, custom *models.Document, rec *models.Record) error {
	f.commitCalls++
	if custom != nil {
		if p, ok := f.projects[projectID]; ok {
			p.CustomQuestions = *custom
		}
	}
	cp := *rec
	f.records[cp.ID] = &cp
	return nil
}

func (f *fakeStore) GetRecord(id string) (*models.Record, error) {
	r, ok := f.records[id]
	if !ok || r.DeletedAt != nil {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeStore) LatestRecord(projectID string) (*models.Record, error) {
	return f.latestRecord(projectID, "")
}

func (f *fakeStore) LatestRecordBy(projectID, userID string) (*models.Record, error) {
	return f.latestRecord(projectID, userID)
}

func (f *fakeStore) latestRecord(projectID, userID string) (*models.Record, error) {
	var latest *models.Record
	for _, r := range f.records {
		if r.ProjectID != projectID || r.DeletedAt != nil {
			continue
		}
		if userID != "" && r.CreatedBy != userID {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (f *fakeStore) ListRecords(projectID string, limit int) ([]*models.Record, error) {
	var out []*models.Record
	for _, r := range f.records {
		if r.ProjectID != projectID || r.DeletedAt != nil {
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeStore) UpdateRecord(rec *models.Record) error {
	cp := *rec
	f.records[cp.ID] = &cp
	return nil
}
