package tests

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashmine/miner-rewards/internal/platform/db"
	"github.com/hashmine/miner-rewards/internal/platform/web"
	"github.com/hashmine/miner-rewards/internal/rewards"

	"github.com/google/uuid"
	"github.com/tokenized/logger"
)

// Success and failure markers.
const (
	Success = "✓"
	Failed  = "✗"
)

// Test owns state for running/shutting down tests.
type Test struct {
	MasterDB  *db.DB
	WebConfig *web.Config
	path      string
}

// New is the entry point for tests. Each call opens a throwaway database file
// with a fresh schema.
func New() *Test {
	ctx := Context()

	path := filepath.Join(os.TempDir(), fmt.Sprintf("rewards-test-%s.db", uuid.New().String()))

	masterDB, err := db.New(&db.DBConfig{
		Driver: "sqlite3",
		URL:    path,
	})
	if err != nil {
		logger.Fatal(ctx, "tests : Register DB : %s", err)
	}

	if err := rewards.EnsureSchema(ctx, masterDB); err != nil {
		logger.Fatal(ctx, "tests : Create Schema : %s", err)
	}

	webConfig := &web.Config{}

	return &Test{MasterDB: masterDB, WebConfig: webConfig, path: path}
}

// TearDown is used for shutting down tests. Calling this should be
// done in a defer immediately after calling New.
func (t *Test) TearDown() {
	t.MasterDB.Close()
	os.Remove(t.path)
}

// Context returns an app level context for testing.
func Context() context.Context {
	values := web.Values{
		TraceID: uuid.New().String(),
		Now:     time.Now(),
	}

	return context.WithValue(context.Background(), web.KeyValues, &values)
}
