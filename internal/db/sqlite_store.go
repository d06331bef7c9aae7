package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/parclip/formset/internal/models"
	"github.com/parclip/formset/internal/store"
)

// SQLiteStore persists the form engine's state in a single SQLite file.
// Documents and answer maps are stored as JSON text; timestamps as
// RFC3339Nano strings in UTC. Multi-row operations run in one transaction.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	if db == nil {
		return nil, errors.New("nil db")
	}
	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("apply sqlite pragma %q: %w", stmt, err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func NewStore(db *sql.DB) (store.Store, error) {
	return NewSQLiteStore(db)
}

func (s *SQLiteStore) logErr(prefix string, err error) {
	if err != nil {
		log.Printf("sqlite store: %s: %v", prefix, err)
	}
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func decodeDocument(raw string) models.Document {
	var doc models.Document
	if raw == "" {
		return doc
	}
	_ = json.Unmarshal([]byte(raw), &doc)
	return doc
}

func decodeAnswers(raw string) map[string]any {
	out := map[string]any{}
	if raw == "" {
		return out
	}
	_ = json.Unmarshal([]byte(raw), &out)
	return out
}

func encodeTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func encodeNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: encodeTime(*t), Valid: true}
}

func decodeTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func decodeNullTime(raw sql.NullString) *time.Time {
	if !raw.Valid || raw.String == "" {
		return nil
	}
	t := decodeTime(raw.String)
	return &t
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}

func (s *SQLiteStore) InsertVersionWithUpgrade(v *models.Version) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(
		`INSERT INTO question_set_versions (id, name, created_at, created_by, data) VALUES (?, ?, ?, ?, ?)`,
		v.ID, v.Name, encodeTime(v.CreatedAt), v.CreatedBy, encodeJSON(v.Data),
	); err != nil {
		return err
	}

	rows, err := tx.Query(
		`SELECT id FROM question_set_versions WHERE name = ? AND id != ? AND deleted_at IS NULL`,
		v.Name, v.ID,
	)
	if err != nil {
		return err
	}
	oldIDs := map[string]bool{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		oldIDs[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	if len(oldIDs) == 0 {
		return tx.Commit()
	}

	arows, err := tx.Query(`SELECT project_id, version_id, position FROM project_versions`)
	if err != nil {
		return err
	}
	byProject := map[string][]models.Assignment{}
	for arows.Next() {
		var a models.Assignment
		if err := arows.Scan(&a.ProjectID, &a.VersionID, &a.Position); err != nil {
			arows.Close()
			return err
		}
		byProject[a.ProjectID] = append(byProject[a.ProjectID], a)
	}
	arows.Close()
	if err := arows.Err(); err != nil {
		return err
	}

	for pid, assigned := range byProject {
		hasNew := false
		touched := false
		for _, a := range assigned {
			if a.VersionID == v.ID {
				hasNew = true
			}
			if oldIDs[a.VersionID] {
				touched = true
			}
		}
		if !touched {
			continue
		}
		for _, a := range assigned {
			if !oldIDs[a.VersionID] {
				continue
			}
			if hasNew {
				if _, err := tx.Exec(
					`DELETE FROM project_versions WHERE project_id = ? AND version_id = ?`,
					pid, a.VersionID,
				); err != nil {
					return err
				}
				continue
			}
			if _, err := tx.Exec(
				`UPDATE project_versions SET version_id = ? WHERE project_id = ? AND version_id = ?`,
				v.ID, pid, a.VersionID,
			); err != nil {
				return err
			}
			hasNew = true
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetVersion(id string) (*models.Version, error) {
	row := s.db.QueryRow(
		`SELECT id, name, created_at, created_by, data FROM question_set_versions WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	return scanVersion(row)
}

func (s *SQLiteStore) LatestVersion(name string) (*models.Version, error) {
	row := s.db.QueryRow(
		`SELECT id, name, created_at, created_by, data FROM question_set_versions
		 WHERE name = ? AND deleted_at IS NULL ORDER BY created_at DESC LIMIT 1`,
		name,
	)
	return scanVersion(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (*models.Version, error) {
	var v models.Version
	var createdAt, data string
	err := row.Scan(&v.ID, &v.Name, &createdAt, &v.CreatedBy, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v.CreatedAt = decodeTime(createdAt)
	v.Data = decodeDocument(data)
	return &v, nil
}

func (s *SQLiteStore) ListVersions() ([]*models.Version, error) {
	rows, err := s.db.Query(
		`SELECT id, name, created_at, created_by, data FROM question_set_versions
		 WHERE deleted_at IS NULL ORDER BY name ASC, created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) DeleteVersion(id string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(
		`UPDATE question_set_versions SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		encodeTime(time.Now()), id,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM project_versions WHERE version_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) InsertProject(p *models.Project) error {
	_, err := s.db.Exec(
		`INSERT INTO projects (id, name, focalpoint_code, closed, custom_questions, created_at, deleted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, nullInt(p.FocalpointCode), boolToInt(p.Closed),
		encodeJSON(p.CustomQuestions), encodeTime(p.CreatedAt), encodeNullTime(p.DeletedAt),
	)
	return err
}

func (s *SQLiteStore) GetProject(id string) (*models.Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, focalpoint_code, closed, custom_questions, created_at, deleted_at
		 FROM projects WHERE id = ?`,
		id,
	)
	return scanProject(row)
}

func (s *SQLiteStore) GetProjectByName(name string) (*models.Project, error) {
	row := s.db.QueryRow(
		`SELECT id, name, focalpoint_code, closed, custom_questions, created_at, deleted_at
		 FROM projects WHERE name = ?`,
		name,
	)
	return scanProject(row)
}

func scanProject(row rowScanner) (*models.Project, error) {
	var p models.Project
	var fp sql.NullInt64
	var closed int
	var custom, createdAt string
	var deletedAt sql.NullString
	err := row.Scan(&p.ID, &p.Name, &fp, &closed, &custom, &createdAt, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.FocalpointCode = intPtr(fp)
	p.Closed = closed != 0
	p.CustomQuestions = decodeDocument(custom)
	p.CreatedAt = decodeTime(createdAt)
	p.DeletedAt = decodeNullTime(deletedAt)
	return &p, nil
}

func (s *SQLiteStore) UpdateProject(p *models.Project) error {
	_, err := s.db.Exec(
		`UPDATE projects SET name = ?, focalpoint_code = ?, closed = ?, custom_questions = ?, deleted_at = ?
		 WHERE id = ?`,
		p.Name, nullInt(p.FocalpointCode), boolToInt(p.Closed),
		encodeJSON(p.CustomQuestions), encodeNullTime(p.DeletedAt), p.ID,
	)
	return err
}

func (s *SQLiteStore) ListProjects(includeClosed, includeDeleted bool) ([]*models.Project, error) {
	q := `SELECT id, name, focalpoint_code, closed, custom_questions, created_at, deleted_at FROM projects`
	var conds []string
	if !includeDeleted {
		conds = append(conds, "deleted_at IS NULL")
	}
	if !includeClosed {
		conds = append(conds, "closed = 0")
	}
	for i, c := range conds {
		if i == 0 {
			q += " WHERE " + c
		} else {
			q += " AND " + c
		}
	}
	q += " ORDER BY name ASC"
	rows, err := s.db.Query(q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveCustomQuestions(projectID string, doc models.Document) error {
	_, err := s.db.Exec(
		`UPDATE projects SET custom_questions = ? WHERE id = ?`,
		encodeJSON(doc), projectID,
	)
	return err
}

func (s *SQLiteStore) ListAssignments(projectID string) ([]models.Assignment, error) {
	rows, err := s.db.Query(
		`SELECT project_id, version_id, position FROM project_versions WHERE project_id = ? ORDER BY position ASC`,
		projectID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []models.Assignment
	for rows.Next() {
		var a models.Assignment
		if err := rows.Scan(&a.ProjectID, &a.VersionID, &a.Position); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ReplaceAssignments(projectID string, versionIDs []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := tx.Exec(`DELETE FROM project_versions WHERE project_id = ?`, projectID); err != nil {
		return err
	}
	for i, vid := range versionIDs {
		if _, err := tx.Exec(
			`INSERT INTO project_versions (project_id, version_id, position) VALUES (?, ?, ?)`,
			projectID, vid, i,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) CommitRecord(projectID string, custom *models.Document, rec *models.Record) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	if custom != nil {
		if _, err := tx.Exec(
			`UPDATE projects SET custom_questions = ? WHERE id = ?`,
			encodeJSON(*custom), projectID,
		); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(
		`INSERT INTO records (id, project_id, created_by, answers, created_at, review_status)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ProjectID, rec.CreatedBy, encodeJSON(rec.Answers),
		encodeTime(rec.CreatedAt), rec.ReviewStatus,
	); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) GetRecord(id string) (*models.Record, error) {
	row := s.db.QueryRow(recordSelect+` WHERE id = ? AND deleted_at IS NULL`, id)
	return scanRecord(row)
}

func (s *SQLiteStore) LatestRecord(projectID string) (*models.Record, error) {
	row := s.db.QueryRow(
		recordSelect+` WHERE project_id = ? AND deleted_at IS NULL ORDER BY created_at DESC LIMIT 1`,
		projectID,
	)
	return scanRecord(row)
}

func (s *SQLiteStore) LatestRecordBy(projectID, userID string) (*models.Record, error) {
	row := s.db.QueryRow(
		recordSelect+` WHERE project_id = ? AND created_by = ? AND deleted_at IS NULL ORDER BY created_at DESC LIMIT 1`,
		projectID, userID,
	)
	return scanRecord(row)
}

func (s *SQLiteStore) ListRecords(projectID string, limit int) ([]*models.Record, error) {
	rows, err := s.db.Query(
		recordSelect+` WHERE project_id = ? AND deleted_at IS NULL ORDER BY created_at DESC LIMIT ?`,
		projectID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []*models.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateRecord(rec *models.Record) error {
	_, err := s.db.Exec(
		`UPDATE records SET answers = ?, updated_at = ?, updated_by = ?,
		 review_status = ?, review_comment = ?, reviewed_at = ?, reviewed_by = ?, deleted_at = ?
		 WHERE id = ?`,
		encodeJSON(rec.Answers), encodeNullTime(rec.UpdatedAt), rec.UpdatedBy,
		rec.ReviewStatus, rec.ReviewComment, encodeNullTime(rec.ReviewedAt), rec.ReviewedBy,
		encodeNullTime(rec.DeletedAt), rec.ID,
	)
	return err
}

const recordSelect = `SELECT id, project_id, created_by, answers, created_at, updated_at, updated_by,
 review_status, review_comment, reviewed_at, reviewed_by, deleted_at FROM records`

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	var answers, createdAt string
	var updatedAt, reviewedAt, deletedAt sql.NullString
	err := row.Scan(&r.ID, &r.ProjectID, &r.CreatedBy, &answers, &createdAt, &updatedAt,
		&r.UpdatedBy, &r.ReviewStatus, &r.ReviewComment, &reviewedAt, &r.ReviewedBy, &deletedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Answers = decodeAnswers(answers)
	r.CreatedAt = decodeTime(createdAt)
	r.UpdatedAt = decodeNullTime(updatedAt)
	r.ReviewedAt = decodeNullTime(reviewedAt)
	r.DeletedAt = decodeNullTime(deletedAt)
	return &r, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

var _ store.Store = (*SQLiteStore)(nil)
