package surrealdb

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	surreal "github.com/surrealdb/surrealdb.go"

	"github.com/vrautomations/cryptotrack/internal/common"
	tcommon "github.com/vrautomations/cryptotrack/tests/common"
)

// testManager connects to the shared container and returns a Manager bound
// to a fresh database so tests stay isolated.
func testManager(t *testing.T) *Manager {
	t.Helper()

	sc := tcommon.StartSurrealDB(t)
	ctx := context.Background()

	db, err := surreal.New(sc.Address())
	if err != nil {
		t.Fatalf("connect to SurrealDB: %v", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": "root",
		"pass": "root",
	}); err != nil {
		t.Fatalf("sign in to SurrealDB: %v", err)
	}

	// SurrealDB rejects "/" in database names, which subtests produce.
	sanitized := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dbName := fmt.Sprintf("t_%s_%d", sanitized, time.Now().UnixNano()%100000)
	if err := db.Use(ctx, "cryptotrack_test", dbName); err != nil {
		t.Fatalf("select namespace/database: %v", err)
	}

	m, err := newManager(ctx, db, common.NewSilentLogger())
	if err != nil {
		t.Fatalf("apply schema: %v", err)
	}

	t.Cleanup(func() {
		m.Close()
	})

	return m
}
