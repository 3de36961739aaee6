package journal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/GoSim-25-26J-441/simulation-optimizer/pkg/models"
)

// Supported SQL drivers
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS studies (
		id TEXT PRIMARY KEY,
		strategy TEXT NOT NULL,
		status TEXT NOT NULL,
		seed BIGINT NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		best_objective DOUBLE PRECISION NULL,
		best_point TEXT NULL,
		error TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE TABLE IF NOT EXISTS trials (
		study_id TEXT NOT NULL REFERENCES studies(id),
		number INTEGER NOT NULL,
		point TEXT NOT NULL,
		raw DOUBLE PRECISION NOT NULL,
		adjusted DOUBLE PRECISION NOT NULL,
		duration_ms DOUBLE PRECISION NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (study_id, number)
	)`,
}

// SQLStore persists studies through sqlx on SQLite (modernc, no cgo) or PostgreSQL
type SQLStore struct {
	driver string
	dsn    string

	mu sync.RWMutex
	db *sqlx.DB
}

// NewSQLStore creates a store for driver and dsn; Init opens it
func NewSQLStore(driver, dsn string) *SQLStore {
	return &SQLStore{driver: driver, dsn: dsn}
}

// OpenDB wraps an existing connection; the tables are created if missing
func OpenDB(ctx context.Context, db *sqlx.DB) (*SQLStore, error) {
	if err := createTables(ctx, db); err != nil {
		return nil, err
	}
	return &SQLStore{driver: db.DriverName(), db: db}, nil
}

func (s *SQLStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dsn == "" {
		return errors.New("journal dsn is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sqlx.ConnectContext(ctx, s.driver, s.dsn)
	if err != nil {
		return err
	}
	if s.driver == DriverSQLite {
		// one writer; avoids SQLITE_BUSY between the search and the status server
		db.SetMaxOpenConns(1)
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}
	s.db = db
	return nil
}

func createTables(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create journal schema: %w", err)
		}
	}
	return nil
}

func (s *SQLStore) getDB() (*sqlx.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, errors.New("journal is not initialized")
	}
	return s.db, nil
}

// studyRow is a studies row; the best point is stored as JSON text
type studyRow struct {
	models.Study
	BestPointJSON sql.NullString `db:"best_point"`
}

// trialRow is a trials row; the point is stored as JSON text
type trialRow struct {
	models.TrialRecord
	PointJSON string `db:"point"`
}

func (s *SQLStore) CreateStudy(ctx context.Context, study models.Study) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if study.ID == "" {
		return errors.New("study id is required")
	}
	if study.Status == "" {
		study.Status = models.StudyStatusRunning
	}
	if study.StartTime.IsZero() {
		study.StartTime = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx, db.Rebind(`
		INSERT INTO studies (id, strategy, status, seed, start_time, error)
		VALUES (?, ?, ?, ?, ?, ?)
	`), study.ID, study.Strategy, string(study.Status), study.Seed, study.StartTime, study.Error)
	if err != nil {
		return fmt.Errorf("failed to create study %s: %w", study.ID, err)
	}
	return nil
}

func (s *SQLStore) FinishStudy(ctx context.Context, id string, status models.StudyStatus, best *models.BestSolution, errMsg string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	var (
		objective interface{}
		point     interface{}
	)
	if best != nil {
		payload, err := json.Marshal(best.Point.Map())
		if err != nil {
			return err
		}
		objective = best.Objective
		point = string(payload)
	}

	res, err := db.ExecContext(ctx, db.Rebind(`
		UPDATE studies
		SET status = ?, end_time = ?, best_objective = ?, best_point = ?, error = ?
		WHERE id = ?
	`), string(status), time.Now().UTC(), objective, point, errMsg, id)
	if err != nil {
		return fmt.Errorf("failed to finish study %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

const studyColumns = `id, strategy, status, seed, start_time, end_time, best_objective, best_point, error`

func (s *SQLStore) GetStudy(ctx context.Context, id string) (models.Study, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return models.Study{}, false, err
	}

	var row studyRow
	err = db.GetContext(ctx, &row, db.Rebind(`SELECT `+studyColumns+` FROM studies WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Study{}, false, nil
	}
	if err != nil {
		return models.Study{}, false, err
	}
	study, err := row.decode()
	if err != nil {
		return models.Study{}, false, err
	}
	return study, true, nil
}

// ListStudies returns the newest studies first
func (s *SQLStore) ListStudies(ctx context.Context, limit int) ([]models.Study, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}

	var rows []studyRow
	err = db.SelectContext(ctx, &rows, db.Rebind(`
		SELECT `+studyColumns+`
		FROM studies
		ORDER BY start_time DESC, id
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, err
	}
	out := make([]models.Study, 0, len(rows))
	for _, row := range rows {
		study, err := row.decode()
		if err != nil {
			return nil, err
		}
		out = append(out, study)
	}
	return out, nil
}

func (s *SQLStore) AddTrial(ctx context.Context, trial models.TrialRecord) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := json.Marshal(trial.Point)
	if err != nil {
		return err
	}
	if trial.CreatedAt.IsZero() {
		trial.CreatedAt = time.Now().UTC()
	}

	_, err = db.ExecContext(ctx, db.Rebind(`
		INSERT INTO trials (study_id, number, point, raw, adjusted, duration_ms, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`), trial.StudyID, trial.Number, string(payload), trial.Raw, trial.Adjusted, trial.DurationMS, trial.Error, trial.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record trial %d of %s: %w", trial.Number, trial.StudyID, err)
	}
	return nil
}

// Trials returns the trials of a study ordered by number
func (s *SQLStore) Trials(ctx context.Context, studyID string) ([]models.TrialRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}
	if _, ok, err := s.GetStudy(ctx, studyID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, studyID)
	}

	var rows []trialRow
	err = db.SelectContext(ctx, &rows, db.Rebind(`
		SELECT study_id, number, point, raw, adjusted, duration_ms, error, created_at
		FROM trials
		WHERE study_id = ?
		ORDER BY number
	`), studyID)
	if err != nil {
		return nil, err
	}
	out := make([]models.TrialRecord, 0, len(rows))
	for _, row := range rows {
		t := row.TrialRecord
		if err := json.Unmarshal([]byte(row.PointJSON), &t.Point); err != nil {
			return nil, fmt.Errorf("invalid point of trial %d: %w", t.Number, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (r studyRow) decode() (models.Study, error) {
	study := r.Study
	if r.BestPointJSON.Valid && r.BestPointJSON.String != "" {
		if err := json.Unmarshal([]byte(r.BestPointJSON.String), &study.BestPoint); err != nil {
			return models.Study{}, fmt.Errorf("invalid best point of study %s: %w", study.ID, err)
		}
	}
	return study, nil
}
