package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/parclip/formset/internal/models"
)

// AutoCreatedSectionTitle is the custom-block section that collects
// questions synthesized from unrecognized answer keys.
const AutoCreatedSectionTitle = "Auto-created"

// ProjectContext carries the project-derived values available to auto-fill
// bindings.
type ProjectContext struct {
	Name           string
	FocalpointCode *int
}

// IngestResult is the outcome of a successful ingestion: the final answer
// map keyed by question id, the possibly-extended custom block, and the
// questions synthesized along the way.
type IngestResult struct {
	Answers map[string]any
	Custom  models.Document
	Created []models.Question
}

// IngestAnswers validates a submitted answer map against a merged form.
//
// Unrecognized keys do not fail the submission outright: a human-readable
// label, or a UUID whose value carries question metadata, synthesizes a
// custom question on the fly (reusing an existing question when one with
// the same normalized label is already on the form). Only a metadata-less
// unknown UUID is an error. After resolution, every required question must
// hold a non-empty answer or the whole operation fails with a
// ValidationError; nothing is committed here, so a failed ingestion has no
// side effects.
func IngestAnswers(form models.Document, custom models.Document, ctx ProjectContext, raw map[string]any) (*IngestResult, error) {
	answers := make(map[string]any, len(raw))
	for k, v := range raw {
		answers[k] = v
	}

	// Auto-fill from project fields. These overwrite whatever was posted.
	for _, sec := range form.Sections {
		for _, q := range sec.Questions {
			if q.Auto == nil {
				continue
			}
			switch q.Auto.Source {
			case "project_name":
				answers[q.ID] = ctx.Name
			case "project_focalpoint_code":
				if ctx.FocalpointCode != nil {
					answers[q.ID] = *ctx.FocalpointCode
				}
			}
		}
	}

	custom = CanonicalizeDocument(custom)
	lookup := QuestionLookup(form)

	labelToID := map[string]string{}
	for _, sec := range form.Sections {
		for _, q := range sec.Questions {
			if q.Text != "" {
				labelToID[NormalizeLabel(q.Text)] = q.ID
			}
		}
	}

	var unknown []string
	for k := range answers {
		if _, ok := lookup[k]; !ok {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)

	var created []models.Question
	for _, k := range unknown {
		val := answers[k]
		delete(answers, k)

		if IsUUIDKey(k) {
			meta, ok := val.(map[string]any)
			if !ok {
				return nil, &UnknownKeyError{Key: k}
			}
			label := asString(meta["text"])
			if label == "" {
				label = asString(meta["question"])
			}
			if label == "" {
				return nil, &UnknownKeyError{Key: k}
			}
			var value any
			if v, ok := meta["value"]; ok {
				value = v
			} else {
				value = meta["answer"]
			}
			qdef, normVal := InferQuestion(label, map[string]any{"type": meta["type"], "value": value})
			qdef.ID = k

			// A question with the same label already exists: reuse its id
			// and discard the submitted one.
			if existing := labelToID[NormalizeLabel(label)]; existing != "" {
				answers[existing] = normVal
				continue
			}

			custom = appendQuestion(custom, AutoCreatedSectionTitle, qdef)
			created = append(created, qdef)
			lookup[qdef.ID] = questionInfo(qdef)
			labelToID[NormalizeLabel(label)] = qdef.ID
			answers[qdef.ID] = normVal
			continue
		}

		// Human-readable label key. On reuse the value is stored as posted,
		// without inference.
		if existing := labelToID[NormalizeLabel(k)]; existing != "" {
			answers[existing] = val
			continue
		}
		qdef, normVal := InferQuestion(k, val)
		custom = appendQuestion(custom, AutoCreatedSectionTitle, qdef)
		created = append(created, qdef)
		lookup[qdef.ID] = questionInfo(qdef)
		labelToID[NormalizeLabel(qdef.Text)] = qdef.ID
		answers[qdef.ID] = normVal
	}

	var missing []string
	checkRequired := func(id, text string, required bool) {
		if !required {
			return
		}
		v, ok := answers[id]
		if !ok || v == nil || v == "" {
			missing = append(missing, text)
		}
	}
	for _, sec := range form.Sections {
		for _, q := range sec.Questions {
			checkRequired(q.ID, q.Text, q.Required)
		}
	}
	for _, q := range created {
		checkRequired(q.ID, q.Text, q.Required)
	}
	if len(missing) > 0 {
		return nil, &ValidationError{Missing: missing}
	}

	return &IngestResult{Answers: answers, Custom: custom, Created: created}, nil
}

func questionInfo(q models.Question) QuestionInfo {
	return QuestionInfo{
		Text:     q.Text,
		Type:     q.Type,
		Required: q.Required,
		Options:  q.Options,
		ValueMap: q.ValueMap,
	}
}

// RecordStore persists submitted records. CommitRecord writes the record
// and, when non-nil, the extended custom block in one atomic unit.
type RecordStore interface {
	FormStore
	CommitRecord(projectID string, custom *models.Document, rec *models.Record) error
	GetRecord(id string) (*models.Record, error)
	LatestRecord(projectID string) (*models.Record, error)
	LatestRecordBy(projectID, userID string) (*models.Record, error)
	ListRecords(projectID string, limit int) ([]*models.Record, error)
	UpdateRecord(rec *models.Record) error
}

// RecordService runs the submission workflow: merge the project's form,
// ingest the answer map, and commit record plus any synthesized custom
// questions together.
//
// Two concurrent submissions that both synthesize a question for the same
// new label may each create one; that eventual duplication is accepted
// rather than serialized with a cross-process lock.
type RecordService struct {
	store       RecordStore
	now         func() time.Time
	idGenerator func() string
}

func NewRecordService(store RecordStore) *RecordService {
	return &RecordService{
		store:       store,
		now:         func() time.Time { return time.Now().UTC() },
		idGenerator: uuid.NewString,
	}
}

// Submit validates and stores one answer map for a project. The custom
// block is only written when ingestion synthesized questions, and only
// when the whole submission succeeded.
func (s *RecordService) Submit(projectID, userID string, raw map[string]any) (*models.Record, error) {
	p, err := s.store.GetProject(projectID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, NewNotFoundError("project not found")
	}
	form, custom, err := mergedFormFor(s.store, p)
	if err != nil {
		return nil, err
	}
	res, err := IngestAnswers(form, custom, ProjectContext{Name: p.Name, FocalpointCode: p.FocalpointCode}, raw)
	if err != nil {
		return nil, err
	}
	rec := &models.Record{
		ID:           s.idGenerator(),
		ProjectID:    projectID,
		CreatedBy:    userID,
		Answers:      res.Answers,
		CreatedAt:    s.now(),
		ReviewStatus: models.ReviewPending,
	}
	var customUpdate *models.Document
	if len(res.Created) > 0 {
		customUpdate = &res.Custom
	}
	if err := s.store.CommitRecord(projectID, customUpdate, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Update replaces a record's answers and resets its review state to
// pending.
func (s *RecordService) Update(recordID, userID string, answers map[string]any) (*models.Record, error) {
	rec, err := s.store.GetRecord(recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("record not found")
	}
	now := s.now()
	rec.Answers = answers
	rec.UpdatedAt = &now
	rec.UpdatedBy = userID
	rec.ReviewStatus = models.ReviewPending
	rec.ReviewComment = ""
	rec.ReviewedAt = nil
	rec.ReviewedBy = ""
	if err := s.store.UpdateRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Review sets a record's review outcome.
func (s *RecordService) Review(recordID, reviewerID, status, comment string) (*models.Record, error) {
	switch status {
	case models.ReviewPending, models.ReviewApproved, models.ReviewRejected:
	default:
		return nil, NewInvalidError("unknown review status: " + status)
	}
	rec, err := s.store.GetRecord(recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("record not found")
	}
	now := s.now()
	rec.ReviewStatus = status
	rec.ReviewComment = comment
	rec.ReviewedAt = &now
	rec.ReviewedBy = reviewerID
	if err := s.store.UpdateRecord(rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Latest returns the newest non-deleted record for a project, optionally
// restricted to one submitter.
func (s *RecordService) Latest(projectID, userID string) (*models.Record, error) {
	if userID != "" {
		return s.store.LatestRecordBy(projectID, userID)
	}
	return s.store.LatestRecord(projectID)
}

// List returns up to limit record summaries, newest first. The limit is
// clamped to 1..500.
func (s *RecordService) List(projectID string, limit int) ([]*models.Record, error) {
	if limit < 1 {
		limit = 1
	}
	if limit > 500 {
		limit = 500
	}
	return s.store.ListRecords(projectID, limit)
}

// Get returns one record by id.
func (s *RecordService) Get(recordID string) (*models.Record, error) {
	rec, err := s.store.GetRecord(recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewNotFoundError("record not found")
	}
	return rec, nil
}
