package services

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/parclip/formset/internal/models"
)

// VersionStore abstracts persistence for the version registry. The insert
// plus assignment rewrite of InsertVersionWithUpgrade must be atomic: a
// concurrent reader sees either the fully-old or fully-new assignment
// state, never a mix.
type VersionStore interface {
	InsertVersionWithUpgrade(v *models.Version) error
	GetVersion(id string) (*models.Version, error)
	LatestVersion(name string) (*models.Version, error)
	ListVersions() ([]*models.Version, error)
	DeleteVersion(id string) error
}

// VersionService manages named, timestamped question-set lineages. Versions
// are immutable: "editing" a question set means canonicalizing a new payload
// under the same name, which creates a new version and repoints project
// assignments to it.
type VersionService struct {
	store       VersionStore
	now         func() time.Time
	idGenerator func() string
}

func NewVersionService(store VersionStore) *VersionService {
	return &VersionService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// Latest returns the most recent non-deleted version for a name, or nil.
func (s *VersionService) Latest(name string) (*models.Version, error) {
	return s.store.LatestVersion(name)
}

// CreateVersion canonicalizes raw, persists it as a new immutable version
// of the lineage and auto-upgrades every project assignment that referenced
// an older version of the same name. Positions are untouched by the
// rewrite; a project already assigned to the new version just loses its
// stale row.
func (s *VersionService) CreateVersion(name string, raw any, author string) (*models.Version, error) {
	if strings.TrimSpace(name) == "" {
		return nil, NewInvalidError("name required")
	}
	var doc models.Document
	if d, ok := raw.(models.Document); ok {
		doc = CanonicalizeDocument(d)
	} else {
		doc = Canonicalize(raw, name)
	}
	v := &models.Version{
		ID:        s.idGenerator(),
		Name:      name,
		CreatedAt: s.now(),
		CreatedBy: author,
		Data:      doc,
	}
	if err := s.store.InsertVersionWithUpgrade(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Replace creates a new version under the same name as an existing one,
// used when a caller edits a version by id rather than by name.
func (s *VersionService) Replace(versionID string, raw any, author string) (*models.Version, error) {
	existing, err := s.store.GetVersion(versionID)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, NewNotFoundError("question set not found")
	}
	return s.CreateVersion(existing.Name, raw, author)
}

// Delete removes a version and every assignment referencing it. Other
// versions of the same name are unaffected.
func (s *VersionService) Delete(versionID string) error {
	existing, err := s.store.GetVersion(versionID)
	if err != nil {
		return err
	}
	if existing == nil {
		return NewNotFoundError("question set not found")
	}
	return s.store.DeleteVersion(versionID)
}

// List returns all versions ordered by name, then newest first.
func (s *VersionService) List() ([]*models.Version, error) {
	return s.store.ListVersions()
}

// EnsureDefault seeds the built-in default question set if the lineage has
// no live version yet, and returns the current one.
func (s *VersionService) EnsureDefault() (*models.Version, error) {
	existing, err := s.store.LatestVersion(DefaultQuestionSetName)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}
	return s.CreateVersion(DefaultQuestionSetName, DefaultQuestionSet(), "")
}
