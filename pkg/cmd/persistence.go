package cmd

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/durable"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/durable/redisstore"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence/file"
	"github.com/mnt-future2020/isuite-nocode-sub001/pkg/persistence/postgresql"
)

// stepResultTTL bounds how long committed step results stay replayable in
// Redis. Runs older than this cannot resume, which matches how long an
// interrupted worker is worth waiting for.
const stepResultTTL = 7 * 24 * time.Hour

// NewPersistence builds the storage backend from a database URL. Postgres
// URLs get the SQL implementation; anything else is treated as a file path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	switch provider(databaseURL) {
	case "postgres", "postgresql":
		return postgresql.NewPersistence(ctx, logger, databaseURL)
	default:
		return file.NewPersistence(databaseURL)
	}
}

// NewStepStore picks the durable step backend: Redis when configured,
// otherwise the persistence layer's step result tables.
func NewStepStore(ctx context.Context, redisURL string, p persistence.Persistence) (durable.StepStore, error) {
	if redisURL == "" {
		return p, nil
	}

	return redisstore.NewStoreFromAddr(ctx, redisURL, stepResultTTL)
}

func provider(databaseURL string) string {
	scheme, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	return scheme
}
