//go:build e2e

package e2e

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	msql "toggl-float-bridge/internal/adapter/mysql"
	"toggl-float-bridge/internal/domain"
	"toggl-float-bridge/internal/migrate"
)

func TestArchive_UpsertsLoggedTimeAndProjects(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping in short mode")
	}
	ctx := context.Background()

	// Start MySQL container
	req := testcontainers.ContainerRequest{
		Image:        "mysql:8.0",
		ExposedPorts: []string{"3306/tcp"},
		Env: map[string]string{
			"MYSQL_DATABASE":      "testdb",
			"MYSQL_ROOT_PASSWORD": "secret",
			"MYSQL_USER":          "test",
			"MYSQL_PASSWORD":      "pass",
		},
		WaitingFor: wait.ForListeningPort("3306/tcp").WithStartupTimeout(90 * time.Second),
	}
	mysqlC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("failed to start mysql container: %v", err)
	}
	t.Cleanup(func() { _ = mysqlC.Terminate(context.Background()) })

	host, err := mysqlC.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := mysqlC.MappedPort(ctx, "3306/tcp")
	if err != nil {
		t.Fatalf("mapped port: %v", err)
	}
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&multiStatements=true", "test", "pass", host, port.Port(), "testdb")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	if err := migrate.Run(ctx, dsn, logger); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	archive, err := msql.NewClient(ctx, dsn, logger)
	if err != nil {
		t.Fatalf("mysql client: %v", err)
	}
	t.Cleanup(func() { _ = archive.Close() })

	phaseID := int64(9)
	clientID := int64(3)
	logged := []domain.LoggedTime{
		{ID: "lt-1", Date: "2026-08-03", Hours: 1.5, Notes: "writing docs", PersonID: 7, ProjectID: 5},
		{ID: "lt-2", Date: "2026-08-03", Hours: 0.5, Notes: "reviewing", PersonID: 7, ProjectID: 5, PhaseID: &phaseID, TaskName: "Review"},
	}
	projects := []domain.MirrorProject{
		{ID: 10, WorkspaceID: 77, Name: "Acme [5]", Active: true, Color: "#0b83d9", ClientID: &clientID, At: time.Date(2026, 8, 3, 12, 0, 0, 0, time.UTC)},
	}

	if err := archive.RecordLoggedTime(ctx, logged); err != nil {
		t.Fatalf("record logged time: %v", err)
	}
	if err := archive.RecordProjects(ctx, projects); err != nil {
		t.Fatalf("record projects: %v", err)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("sql open: %v", err)
	}
	defer db.Close()

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM float_logged_time").Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 logged-time rows, got %d", count)
	}

	// Record again with changed hours to assert idempotent upsert
	logged[0].Hours = 2.0
	if err := archive.RecordLoggedTime(ctx, logged); err != nil {
		t.Fatalf("record logged time 2: %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM float_logged_time").Scan(&count); err != nil {
		t.Fatalf("count 2: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 rows after upsert, got %d", count)
	}
	var hours float64
	if err := db.QueryRowContext(ctx, "SELECT hours FROM float_logged_time WHERE id = 'lt-1'").Scan(&hours); err != nil {
		t.Fatalf("hours: %v", err)
	}
	if hours != 2.0 {
		t.Fatalf("expected updated hours 2.0, got %v", hours)
	}

	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM toggl_projects").Scan(&count); err != nil {
		t.Fatalf("projects count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 project row, got %d", count)
	}
}
