package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/scout-group/discover-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id               TEXT PRIMARY KEY,
	user_id          TEXT NOT NULL,
	requested_count  INTEGER NOT NULL,
	country_filter   TEXT NOT NULL DEFAULT '',
	mode             TEXT NOT NULL DEFAULT 'hybrid',
	status           TEXT NOT NULL DEFAULT 'pending',
	progress         INTEGER NOT NULL DEFAULT 0,
	result           TEXT,
	error            TEXT NOT NULL DEFAULT '',
	cancel_requested INTEGER NOT NULL DEFAULT 0,
	created_at       DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at       DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY,
	name              TEXT NOT NULL,
	city              TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	location_score    INTEGER NOT NULL DEFAULT 0,
	readiness_score   INTEGER NOT NULL DEFAULT 0,
	feasibility_score INTEGER NOT NULL DEFAULT 0,
	overall_score     INTEGER NOT NULL DEFAULT 0,
	justification     TEXT NOT NULL DEFAULT '',
	priority          INTEGER NOT NULL DEFAULT 0,
	contact_info      TEXT,
	owner_id          TEXT NOT NULL DEFAULT '',
	created_at        DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at        DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_user_id ON jobs(user_id);
CREATE INDEX IF NOT EXISTS idx_leads_owner_id ON leads(owner_id);
CREATE INDEX IF NOT EXISTS idx_leads_overall_score ON leads(overall_score);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateJob(ctx context.Context, job model.ExtractionJob) (*model.ExtractionJob, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	job.Status = model.JobStatusPending
	job.Progress = 0
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (id, user_id, requested_count, country_filter, mode, status, progress, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID, job.UserID, job.RequestedCount, job.CountryFilter, job.Mode,
		string(job.Status), job.Progress, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert job")
	}
	return &job, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID string) (*model.ExtractionJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, requested_count, country_filter, mode, status, progress, result, error, cancel_requested, created_at, updated_at
		 FROM jobs WHERE id = ?`,
		jobID,
	)
	return scanJob(row)
}

func (s *SQLiteStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.ExtractionJob, error) {
	query := `SELECT id, user_id, requested_count, country_filter, mode, status, progress, result, error, cancel_requested, created_at, updated_at
		 FROM jobs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, filter.UserID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list jobs")
	}
	defer rows.Close()

	var jobs []model.ExtractionJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "sqlite: list jobs iterate")
}

func (s *SQLiteStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), errMsg, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job status %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) UpdateJobProgress(ctx context.Context, jobID string, progress int) error {
	// MAX keeps progress monotonic even if updates land out of order.
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET progress = MAX(progress, ?), updated_at = ? WHERE id = ?`,
		progress, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job progress %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) UpdateJobResult(ctx context.Context, jobID string, result *model.JobResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET result = ?, status = ?, progress = 100, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.JobStatusCompleted), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update job result %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) RequestJobCancel(ctx context.Context, jobID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET cancel_requested = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: request cancel %s", jobID)
	}
	return checkRowsAffected(res, "job", jobID)
}

func (s *SQLiteStore) InsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	if len(leads) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert leads")
	}
	defer tx.Rollback()

	inserted := 0
	for _, l := range leads {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO leads (id, name, city, website, description, location_score, readiness_score, feasibility_score, overall_score, justification, priority, contact_info, owner_id, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, l.Name, l.City, l.Website, l.Description,
			l.LocationScore, l.ReadinessScore, l.FeasibilityScore, l.OverallScore,
			l.Justification, boolToInt(l.Priority), nullableJSON(l.ContactInfo), l.OwnerID,
			l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert lead %s", l.Name)
		}
		inserted++
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert leads")
	}
	return inserted, nil
}

func (s *SQLiteStore) UpdateLeadScores(ctx context.Context, lead model.Lead) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE leads SET location_score = ?, readiness_score = ?, feasibility_score = ?, overall_score = ?, justification = ?, priority = ?, updated_at = ? WHERE id = ?`,
		lead.LocationScore, lead.ReadinessScore, lead.FeasibilityScore, lead.OverallScore,
		lead.Justification, boolToInt(lead.Priority), time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update lead scores %s", lead.ID)
	}
	return checkRowsAffected(res, "lead", lead.ID)
}

func (s *SQLiteStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, name, city, website, description, location_score, readiness_score, feasibility_score, overall_score, justification, priority, contact_info, owner_id, created_at, updated_at
		 FROM leads WHERE 1=1`
	var args []any

	if filter.OwnerID != "" {
		query += ` AND owner_id = ?`
		args = append(args, filter.OwnerID)
	}
	if filter.MinScore > 0 {
		query += ` AND overall_score >= ?`
		args = append(args, filter.MinScore)
	}
	query += ` ORDER BY overall_score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, *l)
	}
	return leads, eris.Wrap(rows.Err(), "sqlite: list leads iterate")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*model.ExtractionJob, error) {
	var j model.ExtractionJob
	var status string
	var resultJSON sql.NullString
	var cancelRequested int

	err := row.Scan(&j.ID, &j.UserID, &j.RequestedCount, &j.CountryFilter, &j.Mode,
		&status, &j.Progress, &resultJSON, &j.Error, &cancelRequested,
		&j.CreatedAt, &j.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "job")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan job")
	}

	j.Status = model.JobStatus(status)
	j.CancelRequested = cancelRequested != 0
	if resultJSON.Valid && resultJSON.String != "" {
		var result model.JobResult
		if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal job result")
		}
		j.Result = &result
	}
	return &j, nil
}

func scanLead(row rowScanner) (*model.Lead, error) {
	var l model.Lead
	var priority int
	var contactInfo sql.NullString

	err := row.Scan(&l.ID, &l.Name, &l.City, &l.Website, &l.Description,
		&l.LocationScore, &l.ReadinessScore, &l.FeasibilityScore, &l.OverallScore,
		&l.Justification, &priority, &contactInfo, &l.OwnerID,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan lead")
	}

	l.Priority = priority != 0
	if contactInfo.Valid && contactInfo.String != "" {
		l.ContactInfo = json.RawMessage(contactInfo.String)
	}
	return &l, nil
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
