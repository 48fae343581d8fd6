package testutil

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"

	"poker-room/internal/config"
	"poker-room/internal/store"

	"github.com/jackc/pgx/v5"
	"github.com/nats-io/nats.go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OpenTestStore opens the accounts store inside a fresh schema of
// TEST_POSTGRES_DSN (URL form). The schema is dropped when the test ends.
func OpenTestStore(t *testing.T) *store.Store {
	t.Helper()
	cfg, err := config.LoadTest()
	if err != nil {
		t.Skipf("skip test db: %v", err)
	}
	ctx := context.Background()
	schema := pgx.Identifier{"accounts_test_" + strconv.FormatInt(time.Now().UnixNano(), 10)}.Sanitize()

	admin, err := pgx.Connect(ctx, cfg.TestPostgresDSN)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA IF EXISTS "+schema+" CASCADE")
		_ = admin.Close(context.Background())
	})
	if _, err := admin.Exec(ctx, "CREATE SCHEMA "+schema); err != nil {
		t.Fatalf("create schema: %v", err)
	}

	u, err := url.Parse(cfg.TestPostgresDSN)
	if err != nil {
		t.Fatalf("parse dsn: %v", err)
	}
	q := u.Query()
	q.Set("search_path", strings.Trim(schema, `"`))
	u.RawQuery = q.Encode()
	st, err := store.New(u.String())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(st.Close)

	ddl, err := os.ReadFile(migrationsPath("000001_init.up.sql"))
	if err != nil {
		t.Fatalf("read migration: %v", err)
	}
	if _, err := st.Pool.Exec(ctx, string(ddl)); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	return st
}

func migrationsPath(name string) string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations", name)
}

// OpenTestMongo connects to a fresh database on TEST_MONGODB_URI and drops it
// on cleanup.
func OpenTestMongo(t *testing.T) *store.MongoStore {
	t.Helper()
	cfg, err := config.LoadTestMongo()
	if err != nil {
		t.Skipf("skip test mongo: %v", err)
	}
	u, err := url.Parse(cfg.TestMongoURI)
	if err != nil {
		t.Fatalf("parse mongo uri: %v", err)
	}
	dbName := "test_" + strconv.FormatInt(time.Now().UnixNano(), 10)
	u.Path = "/" + dbName
	st, err := store.NewMongo(context.Background(), u.String())
	if err != nil {
		t.Fatalf("open mongo store: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
		client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.TestMongoURI))
		if err == nil {
			_ = client.Database(dbName).Drop(context.Background())
			_ = client.Disconnect(context.Background())
		}
	})
	return st
}

// OpenTestNATS connects to TEST_NATS_URL.
func OpenTestNATS(t *testing.T) *nats.Conn {
	t.Helper()
	cfg, err := config.LoadTestNATS()
	if err != nil {
		t.Skipf("skip test nats: %v", err)
	}
	conn, err := nats.Connect(cfg.TestNATSURL, nats.Name("poker-room-test"))
	if err != nil {
		t.Fatalf("connect nats: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}
