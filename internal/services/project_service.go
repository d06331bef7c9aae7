package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parclip/formset/internal/models"
)

// ProjectStore persists projects and their version assignments.
// ReplaceAssignments swaps a project's full assignment list atomically.
type ProjectStore interface {
	InsertProject(p *models.Project) error
	GetProject(id string) (*models.Project, error)
	GetProjectByName(name string) (*models.Project, error)
	UpdateProject(p *models.Project) error
	ListProjects(includeClosed, includeDeleted bool) ([]*models.Project, error)
	LatestVersion(name string) (*models.Version, error)
	ListAssignments(projectID string) ([]models.Assignment, error)
	ReplaceAssignments(projectID string, versionIDs []string) error
}

// ProjectService manages the project registry. Creation is idempotent by
// name: re-creating an existing project returns it (restoring a
// soft-deleted one) instead of erroring.
type ProjectService struct {
	store       ProjectStore
	now         func() time.Time
	idGenerator func() string
}

func NewProjectService(store ProjectStore) *ProjectService {
	return &ProjectService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// Create registers a project and assigns it the latest default question
// set. An existing project with the same name is returned as-is, except
// that a soft-deleted one is reopened first.
func (s *ProjectService) Create(name string, focalpointCode *int) (*models.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, NewInvalidError("name required")
	}
	existing, err := s.store.GetProjectByName(name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.DeletedAt != nil {
			existing.DeletedAt = nil
			existing.Closed = false
			if err := s.store.UpdateProject(existing); err != nil {
				return nil, err
			}
		}
		return existing, nil
	}

	p := &models.Project{
		ID:              s.idGenerator(),
		Name:            name,
		FocalpointCode:  focalpointCode,
		CustomQuestions: models.Document{Title: "Custom", Sections: []models.Section{}},
		CreatedAt:       s.now(),
	}
	if err := s.store.InsertProject(p); err != nil {
		return nil, err
	}
	latest, err := s.store.LatestVersion(DefaultQuestionSetName)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		if err := s.store.ReplaceAssignments(p.ID, []string{latest.ID}); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Import creates any of the named projects that do not already exist and
// returns the number actually created. Blank names are skipped.
func (s *ProjectService) Import(names []string) (int, error) {
	created := 0
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		existing, err := s.store.GetProjectByName(name)
		if err != nil {
			return created, err
		}
		if existing != nil && existing.DeletedAt == nil {
			continue
		}
		if _, err := s.Create(name, nil); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// Get returns one project by id.
func (s *ProjectService) Get(projectID string) (*models.Project, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("project not found")
	}
	return p, nil
}

// AssignVersions replaces the project's assignment list. Order determines
// merge order; every id must name an existing version.
func (s *ProjectService) AssignVersions(projectID string, versionIDs []string) error {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return NewNotFoundError("project not found")
	}
	return s.store.ReplaceAssignments(projectID, versionIDs)
}

// Assignments returns the project's assignments in position order.
func (s *ProjectService) Assignments(projectID string) ([]models.Assignment, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("project not found")
	}
	return s.store.ListAssignments(projectID)
}

// List returns projects, filtered by closed and deleted state.
func (s *ProjectService) List(includeClosed, includeDeleted bool) ([]*models.Project, error) {
	return s.store.ListProjects(includeClosed, includeDeleted)
}

// SetClosed flips a project's closed flag.
func (s *ProjectService) SetClosed(projectID string, closed bool) (*models.Project, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("project not found")
	}
	p.Closed = closed
	if err := s.store.UpdateProject(p); err != nil {
		return nil, err
	}
	return p, nil
}

// SoftDelete marks a project deleted and closed. Records stay in place;
// re-creating the project by name restores it.
func (s *ProjectService) SoftDelete(projectID string) error {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return NewNotFoundError("project not found")
	}
	now := s.now()
	p.DeletedAt = &now
	p.Closed = true
	return s.store.UpdateProject(p)
}
