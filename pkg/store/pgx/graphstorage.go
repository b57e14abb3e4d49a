// Package pgx stores the course graph in PostgreSQL. Entities and relations
// live in two tables; names are unique and every write is an upsert.
package pgx

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/coursegraph/internal/util"
	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, optionsAndArgs ...any) (pgxv5.Rows, error)
	QueryRow(ctx context.Context, sql string, optionsAndArgs ...any) pgxv5.Row
	Begin(ctx context.Context) (pgxv5.Tx, error)
}

// GraphDBStorage implements store.GraphStorage on a pgx connection or pool.
type GraphDBStorage struct {
	conn  pgxIConn
	close func()
}

// NewGraphDBStorage connects a pool to databaseURL. The schema must already
// be migrated, see Migrate.
func NewGraphDBStorage(ctx context.Context, databaseURL string) (*GraphDBStorage, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &GraphDBStorage{conn: pool, close: pool.Close}, nil
}

// NewGraphDBStorageWithConnection wraps an existing connection. Close does
// not close conn.
func NewGraphDBStorageWithConnection(conn pgxIConn) *GraphDBStorage {
	return &GraphDBStorage{conn: conn}
}

const upsertEntityQuery = `
INSERT INTO entities (name, type, description)
VALUES ($1, $2, $3)
ON CONFLICT (name) DO UPDATE SET
    type = EXCLUDED.type,
    description = CASE
        WHEN EXCLUDED.description = '' THEN entities.description
        ELSE EXCLUDED.description
    END`

const ensureEntityQuery = `
INSERT INTO entities (name) VALUES ($1)
ON CONFLICT (name) DO NOTHING`

const mergeRelationQuery = `
WITH endpoints AS (
    SELECT s.id AS source_id, t.id AS target_id
    FROM entities s, entities t
    WHERE s.name = $1 AND t.name = $2
), ins AS (
    INSERT INTO relations (source_id, target_id, label)
    SELECT source_id, target_id, $3 FROM endpoints
    ON CONFLICT (source_id, target_id, label) DO NOTHING
)
SELECT count(*) FROM endpoints`

func (s *GraphDBStorage) Clear(ctx context.Context) error {
	_, err := s.conn.Exec(ctx, "TRUNCATE relations, entities RESTART IDENTITY")
	if err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	return nil
}

func (s *GraphDBStorage) UpsertEntity(ctx context.Context, entity common.Entity) error {
	_, err := s.conn.Exec(ctx, upsertEntityQuery,
		util.SanitizePostgresText(entity.Name),
		util.SanitizePostgresText(entity.Type),
		util.SanitizePostgresText(entity.Description),
	)
	if err != nil {
		return fmt.Errorf("upsert entity %q: %w", entity.Name, err)
	}
	return nil
}

func (s *GraphDBStorage) MergeRelation(ctx context.Context, triple common.Triple) (bool, error) {
	if err := store.ValidateTriple(triple); err != nil {
		return false, err
	}
	return mergeRelation(ctx, s.conn, triple)
}

func mergeRelation(ctx context.Context, conn pgxIConn, triple common.Triple) (bool, error) {
	var found int64
	err := conn.QueryRow(ctx, mergeRelationQuery,
		util.SanitizePostgresText(triple.Subject),
		util.SanitizePostgresText(triple.Object),
		triple.Label,
	).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("merge relation %q: %w", triple.Label, err)
	}
	return found > 0, nil
}

func (s *GraphDBStorage) MergeRelationWithEndpoints(ctx context.Context, triple common.Triple) error {
	if err := store.ValidateTriple(triple); err != nil {
		return err
	}

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, name := range []string{triple.Subject, triple.Object} {
		if _, err := tx.Exec(ctx, ensureEntityQuery, util.SanitizePostgresText(name)); err != nil {
			return fmt.Errorf("create entity %q: %w", name, err)
		}
	}
	if _, err := mergeRelation(ctx, tx, triple); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *GraphDBStorage) FindEntitiesContaining(ctx context.Context, phrase string) ([]common.Entity, error) {
	rows, err := s.conn.Query(ctx, `
SELECT name, type, description FROM entities
WHERE strpos(name, $1) > 0
ORDER BY name COLLATE "C"`, util.SanitizePostgresText(phrase))
	if err != nil {
		return nil, err
	}
	return pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.Entity, error) {
		var e common.Entity
		err := row.Scan(&e.Name, &e.Type, &e.Description)
		return e, err
	})
}

func (s *GraphDBStorage) FindRelationLabels(ctx context.Context, subjectPhrase, objectPhrase string) ([]string, error) {
	rows, err := s.conn.Query(ctx, `
SELECT DISTINCT r.label COLLATE "C" AS label
FROM relations r
JOIN entities s ON s.id = r.source_id
JOIN entities t ON t.id = r.target_id
WHERE strpos(s.name, $1) > 0 AND strpos(t.name, $2) > 0
ORDER BY label`,
		util.SanitizePostgresText(subjectPhrase),
		util.SanitizePostgresText(objectPhrase),
	)
	if err != nil {
		return nil, err
	}
	return pgxv5.CollectRows(rows, pgxv5.RowTo[string])
}

func (s *GraphDBStorage) FindRelationsFrom(ctx context.Context, subjectPhrase string, labels []string) ([]common.Triple, error) {
	rows, err := s.conn.Query(ctx, `
SELECT s.name, r.label, t.name
FROM relations r
JOIN entities s ON s.id = r.source_id
JOIN entities t ON t.id = r.target_id
WHERE strpos(s.name, $1) > 0 AND r.label = ANY($2)
ORDER BY s.name COLLATE "C", r.label COLLATE "C", t.name COLLATE "C"`,
		util.SanitizePostgresText(subjectPhrase), labels)
	if err != nil {
		return nil, err
	}
	return pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.Triple, error) {
		var t common.Triple
		err := row.Scan(&t.Subject, &t.Label, &t.Object)
		return t, err
	})
}

func (s *GraphDBStorage) Relations(ctx context.Context) ([]common.Edge, error) {
	rows, err := s.conn.Query(ctx, `
SELECT s.name, r.label, t.name
FROM relations r
JOIN entities s ON s.id = r.source_id
JOIN entities t ON t.id = r.target_id
ORDER BY s.name COLLATE "C", r.label COLLATE "C", t.name COLLATE "C"`)
	if err != nil {
		return nil, err
	}
	return pgxv5.CollectRows(rows, func(row pgxv5.CollectableRow) (common.Edge, error) {
		var e common.Edge
		err := row.Scan(&e.Source, &e.Label, &e.Target)
		return e, err
	})
}

func (s *GraphDBStorage) Stats(ctx context.Context) (common.GraphStats, error) {
	var stats common.GraphStats
	err := s.conn.QueryRow(ctx, `
SELECT (SELECT count(*) FROM entities), (SELECT count(*) FROM relations)`,
	).Scan(&stats.Entities, &stats.Relations)
	return stats, err
}

func (s *GraphDBStorage) Close() error {
	if s.close != nil {
		s.close()
	}
	return nil
}
