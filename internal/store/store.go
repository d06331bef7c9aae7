package store

import "github.com/parclip/formset/internal/services"

// Store is the full persistence surface the services need. Implementations
// must make InsertVersionWithUpgrade, CommitRecord, ReplaceAssignments and
// SaveCustomQuestions atomic with respect to concurrent readers.
type Store interface {
	services.VersionStore
	services.ProjectStore
	services.CustomQuestionStore
	services.RecordStore
}
