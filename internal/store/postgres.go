package store

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/scout-group/discover-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses, extracted so tests can
// substitute pgxmock.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS jobs (
	id               TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	user_id          TEXT NOT NULL,
	requested_count  INTEGER NOT NULL,
	country_filter   TEXT NOT NULL DEFAULT '',
	mode             TEXT NOT NULL DEFAULT 'hybrid',
	status           TEXT NOT NULL DEFAULT 'pending',
	progress         INTEGER NOT NULL DEFAULT 0,
	result           JSONB,
	error            TEXT NOT NULL DEFAULT '',
	cancel_requested BOOLEAN NOT NULL DEFAULT FALSE,
	created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS leads (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name              TEXT NOT NULL,
	city              TEXT NOT NULL DEFAULT '',
	website           TEXT NOT NULL DEFAULT '',
	description       TEXT NOT NULL DEFAULT '',
	location_score    INTEGER NOT NULL DEFAULT 0,
	readiness_score   INTEGER NOT NULL DEFAULT 0,
	feasibility_score INTEGER NOT NULL DEFAULT 0,
	overall_score     INTEGER NOT NULL DEFAULT 0,
	justification     TEXT NOT NULL DEFAULT '',
	priority          BOOLEAN NOT NULL DEFAULT FALSE,
	contact_info      JSONB,
	owner_id          TEXT NOT NULL DEFAULT '',
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_user_id ON jobs(user_id);
CREATE INDEX IF NOT EXISTS idx_leads_owner_id ON leads(owner_id);
CREATE INDEX IF NOT EXISTS idx_leads_overall_score ON leads(overall_score);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateJob(ctx context.Context, job model.ExtractionJob) (*model.ExtractionJob, error) {
	if job.ID == "" {
		job.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	job.Status = model.JobStatusPending
	job.Progress = 0
	job.CreatedAt = now
	job.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO jobs (id, user_id, requested_count, country_filter, mode, status, progress, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		job.ID, job.UserID, job.RequestedCount, job.CountryFilter, job.Mode,
		string(job.Status), job.Progress, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert job")
	}
	return &job, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID string) (*model.ExtractionJob, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, requested_count, country_filter, mode, status, progress, result, error, cancel_requested, created_at, updated_at
		 FROM jobs WHERE id = $1`,
		jobID,
	)
	j, err := scanJobPG(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "job %s", jobID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get job %s", jobID)
	}
	return j, nil
}

func (s *PostgresStore) ListJobs(ctx context.Context, filter JobFilter) ([]model.ExtractionJob, error) {
	query := `SELECT id, user_id, requested_count, country_filter, mode, status, progress, result, error, cancel_requested, created_at, updated_at
		 FROM jobs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.UserID != "" {
		query += ` AND user_id = ` + arg(filter.UserID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list jobs")
	}
	defer rows.Close()

	var jobs []model.ExtractionJob
	for rows.Next() {
		j, err := scanJobPG(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan job")
		}
		jobs = append(jobs, *j)
	}
	return jobs, eris.Wrap(rows.Err(), "postgres: list jobs iterate")
}

func (s *PostgresStore) UpdateJobStatus(ctx context.Context, jobID string, status model.JobStatus, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(status), errMsg, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job status %s", jobID)
	}
	return checkTag(tag, "job", jobID)
}

func (s *PostgresStore) UpdateJobProgress(ctx context.Context, jobID string, progress int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET progress = GREATEST(progress, $1), updated_at = $2 WHERE id = $3`,
		progress, time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job progress %s", jobID)
	}
	return checkTag(tag, "job", jobID)
}

func (s *PostgresStore) UpdateJobResult(ctx context.Context, jobID string, result *model.JobResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET result = $1, status = $2, progress = 100, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.JobStatusCompleted), time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update job result %s", jobID)
	}
	return checkTag(tag, "job", jobID)
}

func (s *PostgresStore) RequestJobCancel(ctx context.Context, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE jobs SET cancel_requested = TRUE, updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), jobID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: request cancel %s", jobID)
	}
	return checkTag(tag, "job", jobID)
}

func (s *PostgresStore) InsertLeads(ctx context.Context, leads []model.Lead) (int, error) {
	inserted := 0
	for _, l := range leads {
		if l.ID == "" {
			l.ID = uuid.New().String()
		}
		_, err := s.pool.Exec(ctx,
			`INSERT INTO leads (id, name, city, website, description, location_score, readiness_score, feasibility_score, overall_score, justification, priority, contact_info, owner_id, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			l.ID, l.Name, l.City, l.Website, l.Description,
			l.LocationScore, l.ReadinessScore, l.FeasibilityScore, l.OverallScore,
			l.Justification, l.Priority, nullableJSONPG(l.ContactInfo), l.OwnerID,
			l.CreatedAt, l.UpdatedAt,
		)
		if err != nil {
			return inserted, eris.Wrapf(err, "postgres: insert lead %s", l.Name)
		}
		inserted++
	}
	return inserted, nil
}

func (s *PostgresStore) UpdateLeadScores(ctx context.Context, lead model.Lead) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE leads SET location_score = $1, readiness_score = $2, feasibility_score = $3, overall_score = $4, justification = $5, priority = $6, updated_at = $7 WHERE id = $8`,
		lead.LocationScore, lead.ReadinessScore, lead.FeasibilityScore, lead.OverallScore,
		lead.Justification, lead.Priority, time.Now().UTC(), lead.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update lead scores %s", lead.ID)
	}
	return checkTag(tag, "lead", lead.ID)
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	query := `SELECT id, name, city, website, description, location_score, readiness_score, feasibility_score, overall_score, justification, priority, contact_info, owner_id, created_at, updated_at
		 FROM leads WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.OwnerID != "" {
		query += ` AND owner_id = ` + arg(filter.OwnerID)
	}
	if filter.MinScore > 0 {
		query += ` AND overall_score >= ` + arg(filter.MinScore)
	}
	query += ` ORDER BY overall_score DESC, created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list leads")
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		var l model.Lead
		var contactInfo []byte
		err := rows.Scan(&l.ID, &l.Name, &l.City, &l.Website, &l.Description,
			&l.LocationScore, &l.ReadinessScore, &l.FeasibilityScore, &l.OverallScore,
			&l.Justification, &l.Priority, &contactInfo, &l.OwnerID,
			&l.CreatedAt, &l.UpdatedAt)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead")
		}
		if len(contactInfo) > 0 {
			l.ContactInfo = json.RawMessage(contactInfo)
		}
		leads = append(leads, l)
	}
	return leads, eris.Wrap(rows.Err(), "postgres: list leads iterate")
}

func scanJobPG(row pgx.Row) (*model.ExtractionJob, error) {
	var j model.ExtractionJob
	var status string
	var resultJSON []byte

	err := row.Scan(&j.ID, &j.UserID, &j.RequestedCount, &j.CountryFilter, &j.Mode,
		&status, &j.Progress, &resultJSON, &j.Error, &j.CancelRequested,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}

	j.Status = model.JobStatus(status)
	if len(resultJSON) > 0 {
		var result model.JobResult
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, eris.Wrap(err, "unmarshal job result")
		}
		j.Result = &result
	}
	return &j, nil
}

func checkTag(tag pgconn.CommandTag, kind, id string) error {
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", kind, id)
	}
	return nil
}

func nullableJSONPG(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
