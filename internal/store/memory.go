package store

import (
	"sort"
	"sync"
	"time"

	"github.com/parclip/formset/internal/models"
)

// MemoryStore is an in-memory Store used by tests and by the CLI when no
// database path is configured. One mutex guards everything, which makes
// each method atomic for free.
type MemoryStore struct {
	mu          sync.RWMutex
	versions    map[string]*models.Version
	projects    map[string]*models.Project
	assignments map[string][]models.Assignment
	records     map[string]*models.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		versions:    map[string]*models.Version{},
		projects:    map[string]*models.Project{},
		assignments: map[string][]models.Assignment{},
		records:     map[string]*models.Record{},
	}
}

func (m *MemoryStore) InsertVersionWithUpgrade(v *models.Version) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *v
	m.versions[cp.ID] = &cp

	oldIDs := map[string]bool{}
	for id, other := range m.versions {
		if id != cp.ID && other.Name == cp.Name && other.DeletedAt == nil {
			oldIDs[id] = true
		}
	}
	if len(oldIDs) == 0 {
		return nil
	}

	for pid, rows := range m.assignments {
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
		m.assignments[pid] = out
	}
	return nil
}

func (m *MemoryStore) GetVersion(id string) (*models.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.versions[id]
	if !ok || v.DeletedAt != nil {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (m *MemoryStore) LatestVersion(name string) (*models.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Version
	for _, v := range m.versions {
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

func (m *MemoryStore) ListVersions() ([]*models.Version, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Version, 0, len(m.versions))
	for _, v := range m.versions {
		if v.DeletedAt != nil {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryStore) DeleteVersion(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.versions[id]
	if !ok || v.DeletedAt != nil {
		return nil
	}
	now := time.Now().UTC()
	v.DeletedAt = &now
	for pid, rows := range m.assignments {
		out := rows[:0]
		for _, a := range rows {
			if a.VersionID != id {
				out = append(out, a)
			}
		}
		m.assignments[pid] = out
	}
	return nil
}

func (m *MemoryStore) InsertProject(p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[cp.ID] = &cp
	return nil
}

func (m *MemoryStore) GetProject(id string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (m *MemoryStore) GetProjectByName(name string) (*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.projects {
		if p.Name == name {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MemoryStore) UpdateProject(p *models.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.projects[cp.ID] = &cp
	return nil
}

func (m *MemoryStore) ListProjects(includeClosed, includeDeleted bool) ([]*models.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Project, 0, len(m.projects))
	for _, p := range m.projects {
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

func (m *MemoryStore) SaveCustomQuestions(projectID string, doc models.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[projectID]
	if !ok {
		return nil
	}
	p.CustomQuestions = doc
	return nil
}

func (m *MemoryStore) ListAssignments(projectID string) ([]models.Assignment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.assignments[projectID]
	out := make([]models.Assignment, len(rows))
	copy(out, rows)
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *MemoryStore) ReplaceAssignments(projectID string, versionIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := make([]models.Assignment, 0, len(versionIDs))
	for i, vid := range versionIDs {
		rows = append(rows, models.Assignment{ProjectID: projectID, VersionID: vid, Position: i})
	}
	m.assignments[projectID] = rows
	return nil
}

func (m *MemoryStore) CommitRecord(projectID string, custom *models.Document, rec *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if custom != nil {
		if p, ok := m.projects[projectID]; ok {
			p.CustomQuestions = *custom
		}
	}
	cp := *rec
	m.records[cp.ID] = &cp
	return nil
}

func (m *MemoryStore) GetRecord(id string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.records[id]
	if !ok || r.DeletedAt != nil {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) LatestRecord(projectID string) (*models.Record, error) {
	return m.latestRecord(projectID, "")
}

func (m *MemoryStore) LatestRecordBy(projectID, userID string) (*models.Record, error) {
	return m.latestRecord(projectID, userID)
}

func (m *MemoryStore) latestRecord(projectID, userID string) (*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var latest *models.Record
	for _, r := range m.records {
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

func (m *MemoryStore) ListRecords(projectID string, limit int) ([]*models.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*models.Record, 0)
	for _, r := range m.records {
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

func (m *MemoryStore) UpdateRecord(rec *models.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.records[cp.ID] = &cp
	return nil
}

var _ Store = (*MemoryStore)(nil)
