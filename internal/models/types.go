package models

import "time"

// QuestionType is an open string enum: the seven canonical kinds below are
// what the engine understands, but legacy payloads may carry other values
// and those are stored verbatim.
type QuestionType string

const (
	ShortText      QuestionType = "short_text"
	LongText       QuestionType = "long_text"
	Numeric        QuestionType = "numeric"
	Date           QuestionType = "date"
	YesNo          QuestionType = "yes_no"
	Dropdown       QuestionType = "dropdown"
	DropdownMapped QuestionType = "dropdown_mapped"
)

// HasOptions reports whether the type carries an options list.
func (t QuestionType) HasOptions() bool {
	return t == Dropdown || t == DropdownMapped
}

// AutoSource binds a question to a project-derived value filled in at
// submission time (e.g. "project_name", "project_focalpoint_code").
type AutoSource struct {
	Source string `json:"source"`
}

// Question is the leaf entity of a question set. ID is opaque and immutable
// once assigned; canonicalization never regenerates an existing ID.
type Question struct {
	ID       string         `json:"id"`
	Text     string         `json:"text"`
	Type     QuestionType   `json:"type"`
	Required bool           `json:"required"`
	Options  []string       `json:"options,omitempty"`
	ValueMap map[string]int `json:"value_map,omitempty"`
	Auto     *AutoSource    `json:"auto,omitempty"`
	Remember bool           `json:"remember,omitempty"`
}

// Section is an ordered list of questions under a title.
type Section struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Document is the canonical question-set payload. It doubles as the
// per-project custom-question block.
type Document struct {
	Title    string    `json:"title"`
	Sections []Section `json:"sections"`
}

// Version is one immutable snapshot of a named question-set lineage. The
// current version of a name is the non-deleted one with the latest
// CreatedAt.
type Version struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"created_at"`
	CreatedBy string     `json:"created_by,omitempty"`
	Data      Document   `json:"data"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// Assignment links a project to a question-set version. Position defines
// merge order; for a given project there is at most one assignment per
// version.
type Assignment struct {
	ProjectID string `json:"project_id"`
	VersionID string `json:"version_id"`
	Position  int    `json:"position"`
}

// Project owns an assignment list and exactly one custom-question block.
type Project struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	FocalpointCode  *int       `json:"focalpoint_code,omitempty"`
	Closed          bool       `json:"closed"`
	CustomQuestions Document   `json:"custom_questions"`
	CreatedAt       time.Time  `json:"created_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

// Review states for a submitted record.
const (
	ReviewPending  = "pending"
	ReviewApproved = "approved"
	ReviewRejected = "rejected"
)

// Record is one submitted answer map, keyed by question ID.
type Record struct {
	ID            string         `json:"id"`
	ProjectID     string         `json:"project_id"`
	CreatedBy     string         `json:"created_by,omitempty"`
	Answers       map[string]any `json:"answers"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     *time.Time     `json:"updated_at,omitempty"`
	UpdatedBy     string         `json:"updated_by,omitempty"`
	ReviewStatus  string         `json:"review_status,omitempty"`
	ReviewComment string         `json:"review_comment,omitempty"`
	ReviewedAt    *time.Time     `json:"reviewed_at,omitempty"`
	ReviewedBy    string         `json:"reviewed_by,omitempty"`
	DeletedAt     *time.Time     `json:"deleted_at,omitempty"`
}
