package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/bizvalidator/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. It exists so a
// durable backend can be swapped in by config without touching callers.
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
CREATE TABLE IF NOT EXISTS business_validations (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	business_idea   TEXT NOT NULL,
	target_region   TEXT NOT NULL,
	industry        TEXT NOT NULL,
	target_audience TEXT NOT NULL,
	budget          TEXT NOT NULL,
	analysis_result TEXT,
	status          TEXT NOT NULL DEFAULT 'pending',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS users (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_business_validations_status ON business_validations(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateValidation(ctx context.Context, in model.ValidationInput) (*model.ValidationRecord, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO business_validations
		 (business_idea, target_region, industry, target_audience, budget, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		in.BusinessIdea, in.TargetRegion, in.Industry, in.TargetAudience, in.Budget,
		string(model.StatusPending), now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert validation")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last insert id")
	}

	return &model.ValidationRecord{
		ID:             id,
		BusinessIdea:   in.BusinessIdea,
		TargetRegion:   in.TargetRegion,
		Industry:       in.Industry,
		TargetAudience: in.TargetAudience,
		Budget:         in.Budget,
		Status:         model.StatusPending,
		CreatedAt:      now,
	}, nil
}

func (s *SQLiteStore) GetValidation(ctx context.Context, id int64) (*model.ValidationRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, business_idea, target_region, industry, target_audience, budget,
		        analysis_result, status, created_at
		 FROM business_validations WHERE id = ?`, id)
	return scanValidation(row)
}

func (s *SQLiteStore) ListValidations(ctx context.Context) ([]model.ValidationRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, business_idea, target_region, industry, target_audience, budget,
		        analysis_result, status, created_at
		 FROM business_validations ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list validations")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.ValidationRecord
	for rows.Next() {
		rec, err := scanValidation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate validations")
}

func (s *SQLiteStore) UpdateValidation(ctx context.Context, id int64, upd AnalysisUpdate) (*model.ValidationRecord, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE business_validations SET analysis_result = ?, status = ? WHERE id = ?`,
		upd.AnalysisResult, string(upd.Status), id,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: update validation")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return nil, ErrNotFound
	}
	return s.GetValidation(ctx, id)
}

func (s *SQLiteStore) CreateUser(ctx context.Context, username, password string) (*model.User, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password) VALUES (?, ?)`, username, password)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert user")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: last insert id")
	}
	return &model.User{ID: id, Username: username, Password: password}, nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM users WHERE id = ?`, id))
}

func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, username, password FROM users WHERE username = ?`, username))
}

// scannable abstracts *sql.Row and *sql.Rows.
type scannable interface {
	Scan(dest ...any) error
}

func scanValidation(row scannable) (*model.ValidationRecord, error) {
	var rec model.ValidationRecord
	var result sql.NullString
	var status string

	err := row.Scan(&rec.ID, &rec.BusinessIdea, &rec.TargetRegion, &rec.Industry,
		&rec.TargetAudience, &rec.Budget, &result, &status, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan validation")
	}

	if result.Valid {
		rec.AnalysisResult = &result.String
	}
	rec.Status = model.AnalysisStatus(status)
	return &rec, nil
}

func scanUser(row scannable) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Password)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan user")
	}
	return &u, nil
}
