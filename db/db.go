package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/nijaru/pitch-analyzer/models"
	"github.com/sirupsen/logrus"
)

const (
	OutcomePending   = "pending"
	OutcomeSucceeded = "succeeded"
	OutcomeFailed    = "failed"
	OutcomeInvalid   = "invalid"
)

// Entry is one submission attempt.
type Entry struct {
	ID         string
	Channel    models.ChannelKind
	Outcome    string
	Message    string
	StartedAt  time.Time
	FinishedAt *time.Time
}

func (e Entry) Duration() time.Duration {
	if e.FinishedAt == nil {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// Journal records submission attempts for the running session.
type Journal struct {
	db *sql.DB
}

// Open opens the journal at dsn and creates its table. The default DSN is a
// shared in-memory database, so entries live only as long as the process.
func Open(dsn string) (*Journal, error) {
	logrus.WithField("dsn", dsn).Debug("Opening submission journal")

	inMemory := strings.Contains(dsn, "mode=memory") || dsn == ":memory:"
	if !inMemory {
		path := strings.TrimPrefix(strings.SplitN(dsn, "?", 2)[0], "file:")
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return nil, fmt.Errorf("error creating directory for journal: %v", err)
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening journal: %v", err)
	}

	if inMemory {
		// The database vanishes once its last connection closes.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS submissions (
		id TEXT PRIMARY KEY,
		channel TEXT NOT NULL,
		outcome TEXT NOT NULL DEFAULT 'pending',
		message TEXT NOT NULL DEFAULT '',
		started_at TIMESTAMP NOT NULL,
		finished_at TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error creating table: %v", err)
	}

	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// Start records a dispatched submission and returns its id.
func (j *Journal) Start(ctx context.Context, channel models.ChannelKind) (string, error) {
	id := uuid.New().String()
	err := j.exec(ctx, "INSERT INTO submissions (id, channel, outcome, started_at) VALUES (?, ?, ?, ?)",
		id, string(channel), OutcomePending, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// Finish stores the outcome of a dispatched submission.
func (j *Journal) Finish(ctx context.Context, id, outcome, message string) error {
	return j.exec(ctx, "UPDATE submissions SET outcome = ?, message = ?, finished_at = ? WHERE id = ?",
		outcome, message, time.Now().UTC(), id)
}

// Invalid records an attempt rejected before dispatch.
func (j *Journal) Invalid(ctx context.Context, channel models.ChannelKind, message string) error {
	now := time.Now().UTC()
	return j.exec(ctx, "INSERT INTO submissions (id, channel, outcome, message, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?)",
		uuid.New().String(), string(channel), OutcomeInvalid, message, now, now)
}

// Recent returns up to limit entries, newest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := j.db.QueryContext(ctx,
		"SELECT id, channel, outcome, message, started_at, finished_at FROM submissions ORDER BY started_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("error querying journal: %v", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			channel  string
			finished sql.NullTime
		)
		if err := rows.Scan(&e.ID, &channel, &e.Outcome, &e.Message, &e.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("error scanning journal row: %v", err)
		}
		e.Channel = models.ChannelKind(channel)
		if finished.Valid {
			t := finished.Time
			e.FinishedAt = &t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading journal: %v", err)
	}
	return entries, nil
}

// Get returns the entry with id, or sql.ErrNoRows.
func (j *Journal) Get(ctx context.Context, id string) (Entry, error) {
	var (
		e        Entry
		channel  string
		finished sql.NullTime
	)
	err := j.db.QueryRowContext(ctx,
		"SELECT id, channel, outcome, message, started_at, finished_at FROM submissions WHERE id = ?", id).
		Scan(&e.ID, &channel, &e.Outcome, &e.Message, &e.StartedAt, &finished)
	if err != nil {
		return Entry{}, err
	}
	e.Channel = models.ChannelKind(channel)
	if finished.Valid {
		t := finished.Time
		e.FinishedAt = &t
	}
	return e, nil
}

func (j *Journal) exec(ctx context.Context, query string, args ...any) error {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning transaction: %v", err)
	}

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %v", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		tx.Rollback()
		return fmt.Errorf("error executing statement: %v", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing transaction: %v", err)
	}
	return nil
}
