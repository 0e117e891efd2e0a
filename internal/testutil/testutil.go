// Package testutil holds shared fixtures for package tests: an isolated
// in-memory SQLite database, a miniredis-backed cache and user factories.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/oggyb/campus-match/internal/app"
	"github.com/oggyb/campus-match/internal/cache"
	"github.com/oggyb/campus-match/internal/config"
	"github.com/oggyb/campus-match/internal/db"
	"github.com/oggyb/campus-match/internal/logger"
	"github.com/oggyb/campus-match/internal/relay"
)

const Domain = "ecci.edu.co"

var dbSeq atomic.Int64

// OpenDB spins up an in-memory SQLite DB and applies migrations.
// Each call gets its own isolated database. The pool is capped at one
// connection so concurrent tests serialize instead of hitting table locks.
func OpenDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, dbSeq.Add(1))
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 gormlogger.Discard,
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Migrate(database))
	return database
}

// NewRedis starts a miniredis and returns a cache bound to it.
func NewRedis(t *testing.T) (*cache.RedisCache, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(func() { mr.Close() })

	cfg := config.Defaults()
	cfg.Redis.Addr = mr.Addr()

	rc := cache.NewRedisCache(cfg)
	t.Cleanup(func() { _ = rc.Close() })
	return rc, mr
}

// Config returns defaults suitable for tests (cheap bcrypt, fixed secret).
func Config() *config.Config {
	cfg := config.Defaults()
	cfg.Auth.BcryptCost = bcrypt.MinCost
	cfg.Auth.JWTSecret = "test-secret"
	return cfg
}

// CreateUser inserts a user with password "password".
func CreateUser(t *testing.T, gdb *gorm.DB, name string) *db.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)

	u := &db.User{
		Name:         name,
		Email:        strings.ToLower(name) + "@" + Domain,
		PasswordHash: string(hash),
		Program:      "Systems Engineering",
		Term:         3,
		Interests:    []string{"chess"},
		Verified:     true,
	}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// CreateMatch inserts an edge initiator -> receiver with the given status.
func CreateMatch(t *testing.T, gdb *gorm.DB, initiator, receiver uint64, status db.MatchStatus) *db.Match {
	t.Helper()

	m := &db.Match{InitiatorID: initiator, ReceiverID: receiver, Status: status}
	if status == db.MatchMatched {
		now := time.Now().UTC()
		m.MatchedAt = &now
	}
	require.NoError(t, gdb.Omit(clause.Associations).Create(m).Error)
	return m
}

// NewApp wires an AppContext over a fresh database, a miniredis and an
// in-process relay hub.
func NewApp(t *testing.T) *app.AppContext {
	t.Helper()

	gdb := OpenDB(t)
	rc, _ := NewRedis(t)

	hub := relay.NewHub(relay.NewLocalBroker(), logger.Discard())
	require.NoError(t, hub.Start(context.Background()))
	t.Cleanup(func() { _ = hub.Close() })

	return app.New(Config(), gdb, rc, hub, logger.Discard())
}

// Token issues a bearer token for userID.
func Token(t *testing.T, appCtx *app.AppContext, userID uint64) string {
	t.Helper()
	tok, _, err := appCtx.Tokens.Issue(userID)
	require.NoError(t, err)
	return tok
}
