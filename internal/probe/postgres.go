package probe

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hazz-dev/readygate/internal/readiness"
)

// NewPostgres probes a PostgreSQL server reachable at the given DSN. The
// connection pool is created lazily on the first probe attempt and reused
// across evaluations.
func NewPostgres(dsn string) readiness.Probe {
	var (
		mu   sync.Mutex
		pool *pgxpool.Pool
	)
	return func(ctx context.Context) error {
		mu.Lock()
		if pool == nil {
			p, err := pgxpool.New(ctx, dsn)
			if err != nil {
				mu.Unlock()
				return fmt.Errorf("configuring postgres pool: %w", err)
			}
			pool = p
		}
		p := pool
		mu.Unlock()
		return p.Ping(ctx)
	}
}

// NewPostgresPool probes an existing pool. Hosts that already own a pool
// should prefer this over NewPostgres to avoid a second set of connections.
func NewPostgresPool(pool *pgxpool.Pool) readiness.Probe {
	return func(ctx context.Context) error {
		return pool.Ping(ctx)
	}
}
