package graph

import (
	"context"
	"errors"
	"fmt"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"
)

// RebuildFromDocuments wipes the store and rebuilds it from the given
// documents, one after another. Relations whose endpoints were not
// recognised as entities are dropped.
func (g *Ingestor) RebuildFromDocuments(ctx context.Context, files []loader.GraphFile) (Stats, error) {
	var stats Stats
	if g.extractor == nil {
		return stats, errors.New("graph ingestor has no extractor")
	}

	if err := g.store.Clear(ctx); err != nil {
		return stats, err
	}
	logger.Info("[Graph] Cleared graph for rebuild", "documents", len(files))

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		docStats, err := g.processDocument(ctx, file)
		stats.Add(docStats)
		if err != nil {
			return stats, fmt.Errorf("process %s: %w", file.FilePath, err)
		}
	}

	logger.Info("[Graph] Rebuild finished",
		"documents", stats.Documents,
		"entities", stats.EntitiesMerged,
		"relations", stats.RelationsMerged,
		"dropped", stats.RelationsDropped,
	)
	return stats, nil
}

func (g *Ingestor) processDocument(ctx context.Context, file loader.GraphFile) (Stats, error) {
	var stats Stats

	content, err := file.GetText(ctx)
	if err != nil {
		return stats, err
	}
	text := string(content)

	entities, err := g.extractor.ExtractEntities(ctx, text)
	if err != nil {
		return stats, err
	}
	relations, err := g.extractor.ExtractRelations(ctx, text)
	if err != nil {
		return stats, err
	}

	for _, key := range entities.Sorted() {
		if err := g.store.UpsertEntity(ctx, common.Entity{Name: key.Name, Type: key.Type}); err != nil {
			return stats, err
		}
		stats.EntitiesMerged++
	}

	for _, triple := range relations.Sorted() {
		applied, err := g.store.MergeRelation(ctx, triple)
		if errors.Is(err, store.ErrInvalidLabel) {
			logger.Warn("[Graph] Dropping relation with invalid label", "label", triple.Label, "err", err)
			stats.RelationsDropped++
			continue
		}
		if err != nil {
			return stats, err
		}
		if !applied {
			logger.Debug("[Graph] Dropping relation with unknown endpoint",
				"subject", triple.Subject, "relation", triple.Label, "object", triple.Object)
			stats.RelationsDropped++
			continue
		}
		stats.RelationsMerged++
	}

	stats.Documents = 1
	logger.Info("[Graph] Processed document",
		"file", file.FilePath,
		"entities", stats.EntitiesMerged,
		"relations", stats.RelationsMerged,
		"dropped", stats.RelationsDropped,
	)
	return stats, nil
}

// BuildFromFiles ingests a mixed batch the way the build command and the
// upload job do: when the batch holds documents the graph is rebuilt from
// them first, then every JSON and CSV file is imported in order. A batch
// without documents only adds to the existing graph.
func (g *Ingestor) BuildFromFiles(ctx context.Context, files []loader.GraphFile) (Stats, error) {
	var (
		stats      Stats
		documents  []loader.GraphFile
		structured []loader.GraphFile
	)
	for _, f := range files {
		if f.FileType == loader.GraphFileTypeDocument {
			documents = append(documents, f)
		} else {
			structured = append(structured, f)
		}
	}

	if len(documents) > 0 {
		docStats, err := g.RebuildFromDocuments(ctx, documents)
		stats.Add(docStats)
		if err != nil {
			return stats, err
		}
	}

	for _, f := range structured {
		fileStats, err := g.ImportFile(ctx, f)
		stats.Add(fileStats)
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}
