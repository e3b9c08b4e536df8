package mysql

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"toggl-float-bridge/internal/domain"
)

// Client implements ports.Archive by writing to MySQL tables. The archive is
// a local record of what the bridge pushed and mirrored, for reporting; it is
// never read back by the sync itself.
type Client struct {
	db  *sql.DB
	log *slog.Logger
}

// NewClient opens a MySQL connection using the provided DSN.
// Example DSN: user:pass@tcp(host:3306)/dbname?parseTime=true&multiStatements=true
func NewClient(ctx context.Context, dsn string, log *slog.Logger) (*Client, error) {
	if dsn == "" {
		return nil, errors.New("mysql: DSN is required")
	}
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}
	// Conservative pool defaults; can be adjusted via env later.
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	c, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(c); err != nil {
		db.Close()
		return nil, err
	}
	return &Client{db: db, log: log}, nil
}

// RecordLoggedTime upserts pushed logged-time rows keyed by Float's id.
func (c *Client) RecordLoggedTime(ctx context.Context, entries []domain.LoggedTime) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	const q = `
INSERT INTO float_logged_time
  (id, date, hours, notes, person_id, project_id, phase_id, task_id, task_name)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  date=VALUES(date),
  hours=VALUES(hours),
  notes=VALUES(notes),
  person_id=VALUES(person_id),
  project_id=VALUES(project_id),
  phase_id=VALUES(phase_id),
  task_id=VALUES(task_id),
  task_name=VALUES(task_name);
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(
			ctx,
			e.ID,
			e.Date,
			e.Hours,
			e.Notes,
			e.PersonID,
			e.ProjectID,
			nullableInt64(e.PhaseID),
			nullableInt64(e.TaskID),
			e.TaskName,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Info("archive upserted logged time", slog.Int("count", len(entries)))
	return nil
}

// RecordProjects upserts the mirror-project snapshot taken after a sync.
func (c *Client) RecordProjects(ctx context.Context, projects []domain.MirrorProject) error {
	if len(projects) == 0 {
		return nil
	}
	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	const q = `
INSERT INTO toggl_projects
  (id, workspace_id, name, active, is_private, color, client_id, at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  workspace_id=VALUES(workspace_id),
  name=VALUES(name),
  active=VALUES(active),
  is_private=VALUES(is_private),
  color=VALUES(color),
  client_id=VALUES(client_id),
  at=VALUES(at);
`
	stmt, err := tx.PrepareContext(ctx, q)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, p := range projects {
		if _, err := stmt.ExecContext(
			ctx,
			p.ID,
			p.WorkspaceID,
			p.Name,
			p.Active,
			p.Private,
			p.Color,
			nullableInt64(p.ClientID),
			p.At.UTC(),
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	c.log.Info("archive upserted projects", slog.Int("count", len(projects)))
	return nil
}

// Close closes the underlying DB. Not wired via interface to keep ports minimal.
func (c *Client) Close() error { return c.db.Close() }

func nullableInt64(v *int64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
