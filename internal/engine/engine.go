package engine

import (
	"database/sql"
	"time"

	"dayline/internal/config"
	"dayline/internal/events"
	"dayline/internal/repo"
)

// Engine wraps every mutation in a transaction against the sqlite store and
// appends an event row inside the same transaction. Reads go straight to
// the repo. Order arrays and task fields are mutated by one client-issued
// operation at a time; concurrent writers race at storage-write granularity
// (last write wins), which is accepted for a single-user tool.
type Engine struct {
	DB     *sql.DB
	Repo   repo.Repo
	Events events.Writer
	Config *config.Config
	Now    func() time.Time
}

func New(db *sql.DB, cfg *config.Config) Engine {
	return Engine{
		DB:     db,
		Repo:   repo.Repo{DB: db},
		Events: events.Writer{DB: db},
		Config: cfg,
		Now:    time.Now,
	}
}

func (e Engine) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Engine) nowISO() string {
	return e.now().UTC().Format(time.RFC3339)
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
