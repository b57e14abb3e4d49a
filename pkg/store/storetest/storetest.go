// Package storetest holds the behaviour every GraphStorage backend must share.
package storetest

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"
)

// Factory returns an empty storage. It is called once per subtest.
type Factory func(t *testing.T) store.GraphStorage

// Run exercises storage semantics against the backend produced by newStorage.
func Run(t *testing.T, newStorage Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, s store.GraphStorage)
	}{
		{"UpsertIsIdempotent", testUpsertIsIdempotent},
		{"UpsertKeepsDescription", testUpsertKeepsDescription},
		{"MergeRelationNeedsEndpoints", testMergeRelationNeedsEndpoints},
		{"MergeRelationWithEndpoints", testMergeRelationWithEndpoints},
		{"InvalidLabel", testInvalidLabel},
		{"FindEntitiesContaining", testFindEntitiesContaining},
		{"FindRelationLabels", testFindRelationLabels},
		{"FindRelationsFrom", testFindRelationsFrom},
		{"Clear", testClear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStorage(t)
			t.Cleanup(func() { s.Close() })
			if err := s.Clear(context.Background()); err != nil {
				t.Fatalf("Clear: %v", err)
			}
			tt.fn(t, s)
		})
	}
}

func mustUpsert(t *testing.T, s store.GraphStorage, entities ...common.Entity) {
	t.Helper()
	for _, e := range entities {
		if err := s.UpsertEntity(context.Background(), e); err != nil {
			t.Fatalf("UpsertEntity(%q): %v", e.Name, err)
		}
	}
}

func mustMerge(t *testing.T, s store.GraphStorage, triples ...common.Triple) {
	t.Helper()
	for _, tr := range triples {
		applied, err := s.MergeRelation(context.Background(), tr)
		if err != nil {
			t.Fatalf("MergeRelation(%v): %v", tr, err)
		}
		if !applied {
			t.Fatalf("MergeRelation(%v) was not applied", tr)
		}
	}
}

func mustStats(t *testing.T, s store.GraphStorage) common.GraphStats {
	t.Helper()
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	return stats
}

func testUpsertIsIdempotent(t *testing.T, s store.GraphStorage) {
	mustUpsert(t, s,
		common.Entity{Name: "PCA", Type: "METHOD"},
		common.Entity{Name: "PCA", Type: "METHOD"},
		common.Entity{Name: "PCA", Type: "ALGORITHM"},
	)

	stats := mustStats(t, s)
	if stats.Entities != 1 {
		t.Fatalf("expected 1 entity, got %d", stats.Entities)
	}
	got, err := s.FindEntitiesContaining(context.Background(), "PCA")
	if err != nil {
		t.Fatalf("FindEntitiesContaining: %v", err)
	}
	if len(got) != 1 || got[0].Type != "ALGORITHM" {
		t.Fatalf("expected last type to win, got %+v", got)
	}
}

func testUpsertKeepsDescription(t *testing.T, s store.GraphStorage) {
	mustUpsert(t, s,
		common.Entity{Name: "PCA主成分分析", Type: "方法", Description: "一种降维方法"},
		common.Entity{Name: "PCA主成分分析", Type: "算法"},
	)

	got, err := s.FindEntitiesContaining(context.Background(), "PCA")
	if err != nil {
		t.Fatalf("FindEntitiesContaining: %v", err)
	}
	want := []common.Entity{{Name: "PCA主成分分析", Type: "算法", Description: "一种降维方法"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func testMergeRelationNeedsEndpoints(t *testing.T, s store.GraphStorage) {
	ctx := context.Background()
	mustUpsert(t, s, common.Entity{Name: "PCA", Type: "METHOD"})

	applied, err := s.MergeRelation(ctx, common.Triple{Subject: "PCA", Label: "is_a", Object: "Dimensionality reduction"})
	if err != nil {
		t.Fatalf("MergeRelation: %v", err)
	}
	if applied {
		t.Fatal("expected relation with missing endpoint to be dropped")
	}

	mustUpsert(t, s, common.Entity{Name: "Dimensionality reduction", Type: "CONCEPT"})
	triple := common.Triple{Subject: "PCA", Label: "is_a", Object: "Dimensionality reduction"}
	mustMerge(t, s, triple, triple)

	stats := mustStats(t, s)
	if stats.Entities != 2 || stats.Relations != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func testMergeRelationWithEndpoints(t *testing.T, s store.GraphStorage) {
	ctx := context.Background()
	mustUpsert(t, s, common.Entity{Name: "K均值", Type: "算法", Description: "一种聚类算法"})

	triple := common.Triple{Subject: "K均值", Label: "是", Object: "聚类算法"}
	for range 2 {
		if err := s.MergeRelationWithEndpoints(ctx, triple); err != nil {
			t.Fatalf("MergeRelationWithEndpoints: %v", err)
		}
	}

	stats := mustStats(t, s)
	if stats.Entities != 2 || stats.Relations != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	got, err := s.FindEntitiesContaining(ctx, "")
	if err != nil {
		t.Fatalf("FindEntitiesContaining: %v", err)
	}
	want := []common.Entity{
		{Name: "K均值", Type: "算法", Description: "一种聚类算法"},
		{Name: "聚类算法"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	edges, err := s.Relations(ctx)
	if err != nil {
		t.Fatalf("Relations: %v", err)
	}
	wantEdges := []common.Edge{{Source: "K均值", Label: "是", Target: "聚类算法"}}
	if !reflect.DeepEqual(edges, wantEdges) {
		t.Fatalf("got %+v, want %+v", edges, wantEdges)
	}
}

func testInvalidLabel(t *testing.T, s store.GraphStorage) {
	ctx := context.Background()
	mustUpsert(t, s, common.Entity{Name: "A"}, common.Entity{Name: "B"})

	_, err := s.MergeRelation(ctx, common.Triple{Subject: "A", Label: "bad`label", Object: "B"})
	if !errors.Is(err, store.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
	err = s.MergeRelationWithEndpoints(ctx, common.Triple{Subject: "A", Label: "", Object: "C"})
	if !errors.Is(err, store.ErrInvalidLabel) {
		t.Fatalf("expected ErrInvalidLabel, got %v", err)
	}
	if stats := mustStats(t, s); stats.Entities != 2 || stats.Relations != 0 {
		t.Fatalf("invalid label must not write, got %+v", stats)
	}
}

func testFindEntitiesContaining(t *testing.T, s store.GraphStorage) {
	mustUpsert(t, s,
		common.Entity{Name: "PCA主成分分析", Type: "方法"},
		common.Entity{Name: "核PCA", Type: "方法"},
		common.Entity{Name: "LDA", Type: "方法"},
	)

	got, err := s.FindEntitiesContaining(context.Background(), "PCA")
	if err != nil {
		t.Fatalf("FindEntitiesContaining: %v", err)
	}
	var names []string
	for _, e := range got {
		names = append(names, e.Name)
	}
	want := []string{"PCA主成分分析", "核PCA"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("got %v, want %v", names, want)
	}

	got, err = s.FindEntitiesContaining(context.Background(), "pca")
	if err != nil {
		t.Fatalf("FindEntitiesContaining: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("lookup should be case sensitive, got %+v", got)
	}
}

func testFindRelationLabels(t *testing.T, s store.GraphStorage) {
	mustUpsert(t, s,
		common.Entity{Name: "PCA"},
		common.Entity{Name: "LDA"},
		common.Entity{Name: "核LDA"},
	)
	mustMerge(t, s,
		common.Triple{Subject: "PCA", Label: "related_to", Object: "LDA"},
		common.Triple{Subject: "PCA", Label: "related_to", Object: "核LDA"},
		common.Triple{Subject: "PCA", Label: "contrasts_with", Object: "LDA"},
		common.Triple{Subject: "LDA", Label: "depends_on", Object: "PCA"},
	)

	got, err := s.FindRelationLabels(context.Background(), "PCA", "LDA")
	if err != nil {
		t.Fatalf("FindRelationLabels: %v", err)
	}
	want := []string{"contrasts_with", "related_to"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	got, err = s.FindRelationLabels(context.Background(), "PCA", "SVM")
	if err != nil {
		t.Fatalf("FindRelationLabels: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no labels, got %v", got)
	}
}

func testFindRelationsFrom(t *testing.T, s store.GraphStorage) {
	mustUpsert(t, s,
		common.Entity{Name: "PCA主成分分析"},
		common.Entity{Name: "一种降维方法"},
		common.Entity{Name: "协方差矩阵"},
	)
	mustMerge(t, s,
		common.Triple{Subject: "PCA主成分分析", Label: "定义为", Object: "一种降维方法"},
		common.Triple{Subject: "PCA主成分分析", Label: "依赖", Object: "协方差矩阵"},
	)

	got, err := s.FindRelationsFrom(context.Background(), "PCA", []string{"是", "定义为"})
	if err != nil {
		t.Fatalf("FindRelationsFrom: %v", err)
	}
	want := []common.Triple{{Subject: "PCA主成分分析", Label: "定义为", Object: "一种降维方法"}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %+v, want %+v", got, want)
	}
}

func testClear(t *testing.T, s store.GraphStorage) {
	ctx := context.Background()
	mustUpsert(t, s, common.Entity{Name: "A"})
	if err := s.MergeRelationWithEndpoints(ctx, common.Triple{Subject: "A", Label: "uses", Object: "B"}); err != nil {
		t.Fatalf("MergeRelationWithEndpoints: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if stats := mustStats(t, s); stats != (common.GraphStats{}) {
		t.Fatalf("expected empty graph, got %+v", stats)
	}
	edges, err := s.Relations(ctx)
	if err != nil {
		t.Fatalf("Relations: %v", err)
	}
	if len(edges) != 0 {
		t.Fatalf("expected no edges, got %v", edges)
	}
}
