//go:build integration || !unit

package mysql_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	_ "github.com/go-sql-driver/mysql"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"soarfare/internal/domain"
	mysqlrepo "soarfare/internal/storage/mysql"
)

func migrationsDir(t *testing.T) string {
	t.Helper()
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return v
	}
	// package dir is internal/storage/mysql
	return filepath.Join("..", "..", "..", "migrations")
}

func applyMigrations(t *testing.T, db *sql.DB) {
	t.Helper()
	dir := migrationsDir(t)

	st, err := os.Stat(dir)
	if err != nil || !st.IsDir() {
		t.Fatalf("migrations dir %s is not a directory or missing", dir)
	}

	ents, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}
	var files []string
	for _, e := range ents {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".sql" {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		t.Fatalf("no .sql files in %s", dir)
	}
	sort.Strings(files)

	for _, f := range files {
		sqlBytes, err := os.ReadFile(f)
		if err != nil {
			t.Fatalf("read %s: %v", f, err)
		}
		if _, err := db.Exec(string(sqlBytes)); err != nil {
			t.Fatalf("exec %s: %v", f, err)
		}
	}
}

func startMySQL(t *testing.T) *sql.DB {
	t.Helper()
	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("dockertest unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker not reachable: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mysql",
		Tag:        "8.0.36",
		Env: []string{
			"MYSQL_ROOT_PASSWORD=root",
			"MYSQL_DATABASE=soarfare",
		},
	}, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("run mysql: %v", err)
	}
	t.Cleanup(func() { _ = pool.Purge(resource) })

	dsn := fmt.Sprintf("root:root@tcp(127.0.0.1:%s)/soarfare?parseTime=true&multiStatements=true&charset=utf8mb4,utf8&loc=UTC",
		resource.GetPort("3306/tcp"))

	var db *sql.DB
	if err := pool.Retry(func() error {
		var e error
		db, e = sql.Open("mysql", dsn)
		if e != nil {
			return e
		}
		return db.Ping()
	}); err != nil {
		t.Fatalf("connect mysql: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	applyMigrations(t, db)
	return db
}

func TestRepo_MySQL_SnapshotsAndMisses(t *testing.T) {
	db := startMySQL(t)
	repo := mysqlrepo.New(db)
	ctx := context.Background()

	first := []domain.FAQ{
		{ID: "1", Question: "How does it work?", Answer: "Save monthly."},
		{ID: "2", Question: "Do points expire?", Answer: "No."},
	}
	if err := repo.ReplaceFAQs(ctx, first); err != nil {
		t.Fatalf("ReplaceFAQs: %v", err)
	}
	// a second sync replaces, never appends
	second := []domain.FAQ{{ID: "9", Question: "New?", Answer: "Yes."}}
	if err := repo.ReplaceFAQs(ctx, second); err != nil {
		t.Fatalf("ReplaceFAQs again: %v", err)
	}
	faqs, err := repo.ListFAQs(ctx)
	if err != nil {
		t.Fatalf("ListFAQs: %v", err)
	}
	if len(faqs) != 1 || faqs[0].ID != "9" {
		t.Fatalf("unexpected faqs: %+v", faqs)
	}

	ts := []domain.Testimonial{
		{ID: "a", Name: "Ana", Role: "Traveler", Quote: "Great", Rating: 4.5},
		{Name: "Bob", Quote: "Fine"},
	}
	if err := repo.ReplaceTestimonials(ctx, ts); err != nil {
		t.Fatalf("ReplaceTestimonials: %v", err)
	}
	got, err := repo.ListTestimonials(ctx)
	if err != nil {
		t.Fatalf("ListTestimonials: %v", err)
	}
	if len(got) != 2 || got[0].Rating != 4.5 || got[1].Name != "Bob" || got[1].Role != "" {
		t.Fatalf("unexpected testimonials: %+v", got)
	}

	for i := 0; i < 2; i++ {
		if err := repo.LogMiss(ctx, "faqs", 404, "not found"); err != nil {
			t.Fatalf("LogMiss: %v", err)
		}
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM content_sync_misses`).Scan(&n); err != nil || n != 1 {
		t.Fatalf("expected one miss row, got %d (%v)", n, err)
	}
}
