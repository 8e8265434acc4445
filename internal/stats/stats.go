// internal/stats/stats.go
//
// Per-tenant usage aggregation for the dashboard KPI strip.
//
/*
Context
--------
One endpoint answers "how much of my plan am I using": active user
count, project count, and summed document storage, each paired with the
ceiling denormalised onto the tenant row.  The three counts hit three
different tables, so they run concurrently under an errgroup; the pool
serialises as needed and the endpoint returns in one round-trip's worth
of latency instead of three.

Counts are point-in-time reads, not locked against concurrent writes.
A dashboard that is one insert stale is fine.
*/
package stats

import (
	"context"

	"github.com/jmoiron/sqlx"
	"golang.org/x/sync/errgroup"

	"github.com/tallyhq/tally/internal/tenant"
	"github.com/tallyhq/tally/internal/user"
)

// Usage is the aggregated report for one tenant.
type Usage struct {
	Users        int     `json:"users"`
	MaxUsers     int     `json:"max_users"`
	Projects     int     `json:"projects"`
	MaxProjects  int     `json:"max_projects"`
	StorageGB    float64 `json:"storage_gb"`
	MaxStorageGB int     `json:"max_storage_gb"`
}

// Collect runs the three usage counts concurrently and pairs them with
// the tenant's ceilings.
func Collect(ctx context.Context, db *sqlx.DB, ten *tenant.Record) (*Usage, error) {
	u := &Usage{
		MaxUsers:     ten.MaxUsers,
		MaxProjects:  ten.MaxProjects,
		MaxStorageGB: ten.MaxStorageGB,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := user.CountByTenant(gctx, db, ten.ID)
		if err != nil {
			return err
		}
		u.Users = n
		return nil
	})

	g.Go(func() error {
		const q = `SELECT COUNT(*) FROM projects WHERE tenant_id = ? AND status <> 'archived'`
		return db.GetContext(gctx, &u.Projects, q, ten.ID)
	})

	g.Go(func() error {
		// COALESCE: a tenant with zero documents sums to NULL otherwise.
		const q = `SELECT COALESCE(SUM(size_bytes), 0) FROM documents WHERE tenant_id = ?`
		var bytes int64
		if err := db.GetContext(gctx, &bytes, q, ten.ID); err != nil {
			return err
		}
		u.StorageGB = float64(bytes) / (1 << 30)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return u, nil
}
