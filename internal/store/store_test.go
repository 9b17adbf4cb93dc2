package store_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/wdtree/internal/db"
	"github.com/persistorai/wdtree/internal/dbpool"
	"github.com/persistorai/wdtree/internal/models"
	"github.com/persistorai/wdtree/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	if err := db.Migrate(ctx, pool, log); err != nil {
		t.Fatalf("migrating test DB: %v", err)
	}

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

func testResult(rows int) *models.Result {
	tbl := &models.Table{Columns: []string{models.ColumnEntity, "label_en", models.ColumnPaths}}
	for i := range rows {
		tbl.Rows = append(tbl.Rows, models.TableRow{
			Entity: fmt.Sprintf("Q%d", i+1),
			Cells:  map[string]models.Cell{"label_en": {"entity"}},
			Paths:  [][]string{{"Root"}},
		})
	}

	return &models.Result{
		RunID:     uuid.New().String(),
		Root:      "Q1",
		Query:     "SELECT DISTINCT ?entity WHERE {}",
		Tree:      &models.FlareNode{Name: "Root", NodeID: "Q1"},
		Table:     tbl,
		Stats:     models.RunStats{Rows: rows, Entities: rows},
		StartedAt: time.Now().UTC().Truncate(time.Millisecond),
		Duration:  1500 * time.Millisecond,
	}
}

func countEntities(t *testing.T, env *testEnv, runID string) int {
	t.Helper()

	var n int
	err := env.pool.QueryRow(context.Background(),
		"SELECT count(*) FROM run_entities WHERE run_id = $1", runID).Scan(&n)
	if err != nil {
		t.Fatalf("counting run entities: %v", err)
	}

	return n
}

func TestSaveRun(t *testing.T) {
	env := getTestEnv(t)
	s := store.NewRunStore(store.Base{Pool: env.pool, Log: env.log})
	ctx := context.Background()

	res := testResult(3)
	if err := s.SaveRun(ctx, res); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	var root string
	var durationMS int64
	err := env.pool.QueryRow(ctx, "SELECT root, duration_ms FROM runs WHERE id = $1", res.RunID).Scan(&root, &durationMS)
	if err != nil {
		t.Fatalf("reading run: %v", err)
	}

	if root != "Q1" || durationMS != 1500 {
		t.Errorf("run = (%s, %d), want (Q1, 1500)", root, durationMS)
	}

	if n := countEntities(t, env, res.RunID); n != 3 {
		t.Errorf("run entities = %d, want 3", n)
	}
}

func TestSaveRunReplaces(t *testing.T) {
	env := getTestEnv(t)
	s := store.NewRunStore(store.Base{Pool: env.pool, Log: env.log})
	ctx := context.Background()

	res := testResult(4)
	if err := s.SaveRun(ctx, res); err != nil {
		t.Fatalf("first SaveRun() error: %v", err)
	}

	res.Table.Rows = res.Table.Rows[:1]
	if err := s.SaveRun(ctx, res); err != nil {
		t.Fatalf("second SaveRun() error: %v", err)
	}

	if n := countEntities(t, env, res.RunID); n != 1 {
		t.Errorf("run entities = %d, want 1", n)
	}
}

func TestSaveRunBatches(t *testing.T) {
	env := getTestEnv(t)
	s := store.NewRunStore(store.Base{Pool: env.pool, Log: env.log})

	res := testResult(1201)
	if err := s.SaveRun(context.Background(), res); err != nil {
		t.Fatalf("SaveRun() error: %v", err)
	}

	if n := countEntities(t, env, res.RunID); n != 1201 {
		t.Errorf("run entities = %d, want 1201", n)
	}
}

func TestSaveRunInvalidID(t *testing.T) {
	s := store.NewRunStore(store.Base{Log: logrus.New()})

	res := testResult(1)
	res.RunID = "not-a-uuid"

	if err := s.SaveRun(context.Background(), res); err == nil {
		t.Fatal("expected error for invalid run id")
	}
}
