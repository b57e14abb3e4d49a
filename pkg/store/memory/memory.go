// Package memory is an in-process GraphStorage used by the build CLI when no
// database is configured and by tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"
)

type GraphMemoryStorage struct {
	mu       sync.RWMutex
	entities map[string]common.Entity
	edges    common.TripleSet
}

func NewGraphMemoryStorage() *GraphMemoryStorage {
	return &GraphMemoryStorage{
		entities: make(map[string]common.Entity),
		edges:    common.NewTripleSet(),
	}
}

func (s *GraphMemoryStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[string]common.Entity)
	s.edges = common.NewTripleSet()
	return nil
}

func (s *GraphMemoryStorage) UpsertEntity(ctx context.Context, entity common.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(entity)
	return nil
}

func (s *GraphMemoryStorage) upsertLocked(entity common.Entity) {
	existing, ok := s.entities[entity.Name]
	if ok && entity.Description == "" {
		entity.Description = existing.Description
	}
	s.entities[entity.Name] = entity
}

func (s *GraphMemoryStorage) MergeRelation(ctx context.Context, triple common.Triple) (bool, error) {
	if err := store.ValidateTriple(triple); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, okSrc := s.entities[triple.Subject]
	_, okDst := s.entities[triple.Object]
	if !okSrc || !okDst {
		return false, nil
	}
	s.edges.Add(triple)
	return true, nil
}

func (s *GraphMemoryStorage) MergeRelationWithEndpoints(ctx context.Context, triple common.Triple) error {
	if err := store.ValidateTriple(triple); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, name := range []string{triple.Subject, triple.Object} {
		if _, ok := s.entities[name]; !ok {
			s.entities[name] = common.Entity{Name: name}
		}
	}
	s.edges.Add(triple)
	return nil
}

func (s *GraphMemoryStorage) FindEntitiesContaining(ctx context.Context, phrase string) ([]common.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []common.Entity
	for name, e := range s.entities {
		if strings.Contains(name, phrase) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *GraphMemoryStorage) FindRelationLabels(ctx context.Context, subjectPhrase, objectPhrase string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	for t := range s.edges {
		if strings.Contains(t.Subject, subjectPhrase) && strings.Contains(t.Object, objectPhrase) {
			seen[t.Label] = struct{}{}
		}
	}
	labels := make([]string, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	return labels, nil
}

func (s *GraphMemoryStorage) FindRelationsFrom(ctx context.Context, subjectPhrase string, labels []string) ([]common.Triple, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := common.NewTripleSet()
	for t := range s.edges {
		if strings.Contains(t.Subject, subjectPhrase) && slices.Contains(labels, t.Label) {
			found.Add(t)
		}
	}
	return found.Sorted(), nil
}

func (s *GraphMemoryStorage) Relations(ctx context.Context) ([]common.Edge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sorted := s.edges.Sorted()
	out := make([]common.Edge, 0, len(sorted))
	for _, t := range sorted {
		out = append(out, common.Edge{Source: t.Subject, Label: t.Label, Target: t.Object})
	}
	return out, nil
}

func (s *GraphMemoryStorage) Stats(ctx context.Context) (common.GraphStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return common.GraphStats{
		Entities:  int64(len(s.entities)),
		Relations: int64(len(s.edges)),
	}, nil
}

func (s *GraphMemoryStorage) Close() error {
	return nil
}
