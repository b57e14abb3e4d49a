// Package leaselock keeps graph builds from overlapping across worker
// processes. Whoever owns the graph row in graph_locks may rebuild the
// graph. Ownership lapses when the owner stops heartbeating for one TTL,
// so a crashed worker blocks the next job for at most that long.
package leaselock

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"os"
	"time"

	"github.com/OFFIS-RIT/coursegraph/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

var (
	ErrBusy = errors.New("graph is locked by another job")
	ErrLost = errors.New("graph lock lost")
)

const graphKey = "graph"

// A lease survives this many failed heartbeats in a row. Heartbeat defaults
// to a third of the TTL, so the row is still ours when the limit is hit.
const maxMissedHeartbeats = 2

type dbConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Options struct {
	TTL       time.Duration
	Heartbeat time.Duration

	// Wait polls until the graph frees up instead of failing with ErrBusy.
	Wait   bool
	Poll   time.Duration
	Jitter time.Duration

	// Owner names this process in graph_locks.locked_by. Defaults to the
	// host name.
	Owner string
}

func (o Options) withDefaults() Options {
	if o.TTL <= 0 {
		o.TTL = 5 * time.Minute
	}
	if o.Heartbeat <= 0 || o.Heartbeat >= o.TTL {
		o.Heartbeat = max(o.TTL/3, time.Second)
	}
	if o.Poll <= 0 {
		o.Poll = 250 * time.Millisecond
	}
	if o.Jitter < 0 {
		o.Jitter = 0
	}
	if o.Owner == "" {
		o.Owner, _ = os.Hostname()
		if o.Owner == "" {
			o.Owner = "coursegraph"
		}
	}
	return o
}

// Holder describes the job that currently owns the graph.
type Holder struct {
	Owner      string
	JobID      string
	AcquiredAt time.Time
	ExpiresAt  time.Time
}

// GraphLock hands out ownership of the shared graph to one job at a time.
type GraphLock struct {
	db   dbConn
	opts Options
}

// New returns a lock on db, usually a *pgxpool.Pool on a database migrated
// by the pgx store.
func New(db dbConn, opts Options) *GraphLock {
	return &GraphLock{db: db, opts: opts.withDefaults()}
}

// WithLease runs fn while jobID owns the graph. The context passed to fn is
// cancelled with ErrLost when the heartbeat can no longer extend the lease.
func (g *GraphLock) WithLease(ctx context.Context, jobID string, fn func(ctx context.Context) error) error {
	if jobID == "" {
		return errors.New("graph lock needs a job id")
	}
	token, err := g.acquire(ctx, jobID)
	if err != nil {
		return err
	}
	defer func() {
		if _, err := g.db.Exec(context.Background(), releaseSQL, graphKey, token); err != nil {
			logger.Warn("[Lock] Failed to release graph", "job_id", jobID, "err", err)
			return
		}
		logger.Debug("[Lock] Released graph", "job_id", jobID)
	}()

	done := make(chan struct{})
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		defer close(done)
		return fn(egCtx)
	})
	eg.Go(func() error {
		return g.heartbeat(egCtx, token, jobID, done)
	})
	return eg.Wait()
}

// Holder reports who owns the graph. ok is false when nobody holds an
// unexpired lease.
func (g *GraphLock) Holder(ctx context.Context) (h Holder, ok bool, err error) {
	err = g.db.QueryRow(ctx, holderSQL, graphKey).Scan(&h.Owner, &h.JobID, &h.AcquiredAt, &h.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Holder{}, false, nil
	}
	if err != nil {
		return Holder{}, false, err
	}
	return h, true, nil
}

func (g *GraphLock) acquire(ctx context.Context, jobID string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", err
	}
	token := g.opts.Owner + "/" + id

	for {
		var key string
		err := g.db.QueryRow(ctx, tryAcquireSQL, graphKey, token, jobID, g.opts.TTL.Milliseconds()).Scan(&key)
		if err == nil {
			logger.Info("[Lock] Graph locked", "job_id", jobID, "owner", token)
			return token, nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return "", err
		}

		h, held, err := g.Holder(ctx)
		if err != nil {
			return "", err
		}
		if !held {
			// Released between the two queries.
			continue
		}
		if !g.opts.Wait {
			return "", fmt.Errorf("%w: job %s since %s", ErrBusy, h.JobID, h.AcquiredAt.Format(time.RFC3339))
		}
		logger.Debug("[Lock] Waiting for graph", "job_id", jobID, "holder_job", h.JobID, "holder", h.Owner)
		if err := pause(ctx, g.opts.Poll, g.opts.Jitter); err != nil {
			return "", err
		}
	}
}

func (g *GraphLock) heartbeat(ctx context.Context, token, jobID string, done <-chan struct{}) error {
	t := time.NewTicker(g.opts.Heartbeat)
	defer t.Stop()

	missed := 0
	for {
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return nil
		case <-t.C:
		}

		err := g.extend(ctx, token)
		switch {
		case err == nil:
			missed = 0
		case errors.Is(err, ErrLost):
			logger.Error("[Lock] Graph taken over", "job_id", jobID)
			return err
		default:
			missed++
			logger.Warn("[Lock] Heartbeat failed", "job_id", jobID, "missed", missed, "err", err)
			if missed >= maxMissedHeartbeats {
				return fmt.Errorf("%w: %v", ErrLost, err)
			}
		}
	}
}

func (g *GraphLock) extend(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, g.opts.Heartbeat)
	defer cancel()

	var expires time.Time
	err := g.db.QueryRow(ctx, extendSQL, graphKey, token, g.opts.TTL.Milliseconds()).Scan(&expires)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrLost
	}
	return err
}

func pause(ctx context.Context, base, jitter time.Duration) error {
	d := base
	if jitter > 0 {
		d += time.Duration(rand.Int64N(int64(jitter) + 1))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

const tryAcquireSQL = `
INSERT INTO graph_locks (lock_key, locked_by, job_id, acquired_at, expires_at)
VALUES ($1, $2, $3, now(), now() + ($4::bigint * interval '1 millisecond'))
ON CONFLICT (lock_key) DO UPDATE
SET locked_by   = EXCLUDED.locked_by,
    job_id      = EXCLUDED.job_id,
    acquired_at = EXCLUDED.acquired_at,
    expires_at  = EXCLUDED.expires_at
WHERE graph_locks.expires_at < now()
RETURNING lock_key;
`

const extendSQL = `
UPDATE graph_locks
SET expires_at = now() + ($3::bigint * interval '1 millisecond')
WHERE lock_key = $1 AND locked_by = $2
RETURNING expires_at;
`

const releaseSQL = `
DELETE FROM graph_locks
WHERE lock_key = $1 AND locked_by = $2;
`

const holderSQL = `
SELECT locked_by, job_id, acquired_at, expires_at
FROM graph_locks
WHERE lock_key = $1 AND expires_at >= now();
`
