// Package neo4j stores the course graph in Neo4j. Entities are :Entity nodes
// keyed by name and each relation label becomes the relationship type.
package neo4j

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type GraphNeo4jStorage struct {
	driver   neo4j.DriverWithContext
	database string
}

type NewGraphNeo4jStorageParams struct {
	URI      string
	Username string
	Password string
	// Database is empty for the server default.
	Database string
}

// NewGraphNeo4jStorage opens a driver, verifies connectivity and makes sure
// entity names are unique.
func NewGraphNeo4jStorage(ctx context.Context, params NewGraphNeo4jStorageParams) (*GraphNeo4jStorage, error) {
	driver, err := neo4j.NewDriverWithContext(params.URI, neo4j.BasicAuth(params.Username, params.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("connect to neo4j: %w", err)
	}

	s := &GraphNeo4jStorage{driver: driver, database: params.Database}
	if err := s.write(ctx, `CREATE CONSTRAINT entity_name IF NOT EXISTS FOR (e:Entity) REQUIRE e.name IS UNIQUE`, nil); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("create name constraint: %w", err)
	}
	logger.Debug("[Store] Connected to neo4j", "uri", params.URI)
	return s, nil
}

func (s *GraphNeo4jStorage) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return s.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: s.database})
}

func (s *GraphNeo4jStorage) write(ctx context.Context, query string, params map[string]any) error {
	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return err
	}
	_, err = result.Consume(ctx)
	return err
}

// read runs query and hands every record to fn.
func (s *GraphNeo4jStorage) read(ctx context.Context, query string, params map[string]any, fn func(*neo4j.Record) error) error {
	session := s.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return err
	}
	for result.Next(ctx) {
		if err := fn(result.Record()); err != nil {
			return err
		}
	}
	return result.Err()
}

func getString(record *neo4j.Record, key string) string {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return ""
	}
	str, _ := v.(string)
	return str
}

func getInt(record *neo4j.Record, key string) int64 {
	v, ok := record.Get(key)
	if !ok || v == nil {
		return 0
	}
	n, _ := v.(int64)
	return n
}

// relType quotes a validated label for use as a relationship type.
func relType(label string) string {
	return "`" + label + "`"
}

func (s *GraphNeo4jStorage) Clear(ctx context.Context) error {
	if err := s.write(ctx, `MATCH (n) DETACH DELETE n`, nil); err != nil {
		return fmt.Errorf("clear graph: %w", err)
	}
	return nil
}

func (s *GraphNeo4jStorage) UpsertEntity(ctx context.Context, entity common.Entity) error {
	err := s.write(ctx, `
MERGE (e:Entity {name: $name})
SET e.type = $type,
    e.description = CASE WHEN $description = '' THEN coalesce(e.description, '') ELSE $description END`,
		map[string]any{
			"name":        entity.Name,
			"type":        entity.Type,
			"description": entity.Description,
		})
	if err != nil {
		return fmt.Errorf("upsert entity %q: %w", entity.Name, err)
	}
	return nil
}

func (s *GraphNeo4jStorage) MergeRelation(ctx context.Context, triple common.Triple) (bool, error) {
	if err := store.ValidateTriple(triple); err != nil {
		return false, err
	}

	session := s.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	query := `
MATCH (s:Entity {name: $subject}), (t:Entity {name: $object})
MERGE (s)-[:` + relType(triple.Label) + `]->(t)
RETURN count(*) AS merged`
	result, err := session.Run(ctx, query, map[string]any{
		"subject": triple.Subject,
		"object":  triple.Object,
	})
	if err != nil {
		return false, fmt.Errorf("merge relation %q: %w", triple.Label, err)
	}
	record, err := result.Single(ctx)
	if err != nil {
		return false, fmt.Errorf("merge relation %q: %w", triple.Label, err)
	}
	return getInt(record, "merged") > 0, nil
}

func (s *GraphNeo4jStorage) MergeRelationWithEndpoints(ctx context.Context, triple common.Triple) error {
	if err := store.ValidateTriple(triple); err != nil {
		return err
	}

	query := `
MERGE (s:Entity {name: $subject})
  ON CREATE SET s.type = '', s.description = ''
MERGE (t:Entity {name: $object})
  ON CREATE SET t.type = '', t.description = ''
MERGE (s)-[:` + relType(triple.Label) + `]->(t)`
	err := s.write(ctx, query, map[string]any{
		"subject": triple.Subject,
		"object":  triple.Object,
	})
	if err != nil {
		return fmt.Errorf("merge relation %q: %w", triple.Label, err)
	}
	return nil
}

func (s *GraphNeo4jStorage) FindEntitiesContaining(ctx context.Context, phrase string) ([]common.Entity, error) {
	var out []common.Entity
	err := s.read(ctx, `
MATCH (e:Entity) WHERE e.name CONTAINS $phrase
RETURN e.name AS name, e.type AS type, e.description AS description
ORDER BY name`,
		map[string]any{"phrase": phrase},
		func(record *neo4j.Record) error {
			out = append(out, common.Entity{
				Name:        getString(record, "name"),
				Type:        getString(record, "type"),
				Description: getString(record, "description"),
			})
			return nil
		})
	return out, err
}

func (s *GraphNeo4jStorage) FindRelationLabels(ctx context.Context, subjectPhrase, objectPhrase string) ([]string, error) {
	var out []string
	err := s.read(ctx, `
MATCH (s:Entity)-[r]->(t:Entity)
WHERE s.name CONTAINS $subject AND t.name CONTAINS $object
RETURN DISTINCT type(r) AS label
ORDER BY label`,
		map[string]any{"subject": subjectPhrase, "object": objectPhrase},
		func(record *neo4j.Record) error {
			out = append(out, getString(record, "label"))
			return nil
		})
	return out, err
}

func (s *GraphNeo4jStorage) FindRelationsFrom(ctx context.Context, subjectPhrase string, labels []string) ([]common.Triple, error) {
	var out []common.Triple
	err := s.read(ctx, `
MATCH (s:Entity)-[r]->(t:Entity)
WHERE s.name CONTAINS $subject AND type(r) IN $labels
RETURN s.name AS subject, type(r) AS label, t.name AS object
ORDER BY subject, label, object`,
		map[string]any{"subject": subjectPhrase, "labels": labels},
		func(record *neo4j.Record) error {
			out = append(out, common.Triple{
				Subject: getString(record, "subject"),
				Label:   getString(record, "label"),
				Object:  getString(record, "object"),
			})
			return nil
		})
	return out, err
}

func (s *GraphNeo4jStorage) Relations(ctx context.Context) ([]common.Edge, error) {
	var out []common.Edge
	err := s.read(ctx, `
MATCH (s:Entity)-[r]->(t:Entity)
RETURN s.name AS source, type(r) AS label, t.name AS target
ORDER BY source, label, target`,
		nil,
		func(record *neo4j.Record) error {
			out = append(out, common.Edge{
				Source: getString(record, "source"),
				Label:  getString(record, "label"),
				Target: getString(record, "target"),
			})
			return nil
		})
	return out, err
}

func (s *GraphNeo4jStorage) Stats(ctx context.Context) (common.GraphStats, error) {
	var stats common.GraphStats
	err := s.read(ctx, `MATCH (e:Entity) RETURN count(e) AS n`, nil, func(record *neo4j.Record) error {
		stats.Entities = getInt(record, "n")
		return nil
	})
	if err != nil {
		return stats, err
	}
	err = s.read(ctx, `MATCH (:Entity)-[r]->(:Entity) RETURN count(r) AS n`, nil, func(record *neo4j.Record) error {
		stats.Relations = getInt(record, "n")
		return nil
	})
	return stats, err
}

func (s *GraphNeo4jStorage) Close() error {
	return s.driver.Close(context.Background())
}
