package graph

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"
)

// Extractor produces entities and relations from free text.
// *extract.Extractor satisfies it.
type Extractor interface {
	ExtractEntities(ctx context.Context, text string) (common.EntitySet, error)
	ExtractRelations(ctx context.Context, text string) (common.TripleSet, error)
}

// Ingestor writes extracted and imported knowledge into a graph store.
//
// An Ingestor should be created using NewIngestor.
type Ingestor struct {
	store     store.GraphStorage
	extractor Extractor
}

// NewIngestorParams defines the dependencies of an Ingestor. Extractor may
// be nil when only structured imports are used.
type NewIngestorParams struct {
	Store     store.GraphStorage
	Extractor Extractor
}

func NewIngestor(params NewIngestorParams) (*Ingestor, error) {
	if params.Store == nil {
		return nil, errors.New("graph ingestor needs a store")
	}
	return &Ingestor{
		store:     params.Store,
		extractor: params.Extractor,
	}, nil
}

// Stats summarises one ingestion run.
type Stats struct {
	Documents        int `json:"documents"`
	EntitiesMerged   int `json:"entities_merged"`
	RelationsMerged  int `json:"relations_merged"`
	RelationsDropped int `json:"relations_dropped"`
	RowsSkipped      int `json:"rows_skipped"`
}

// Add accumulates other into s.
func (s *Stats) Add(other Stats) {
	s.Documents += other.Documents
	s.EntitiesMerged += other.EntitiesMerged
	s.RelationsMerged += other.RelationsMerged
	s.RelationsDropped += other.RelationsDropped
	s.RowsSkipped += other.RowsSkipped
}
