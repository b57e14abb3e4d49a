package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader/csv"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"
)

// ImportFromJSON merges a JSON array of entity records into the graph
// without clearing it. Relation targets that do not exist yet are created
// with an empty type.
func (g *Ingestor) ImportFromJSON(ctx context.Context, data []byte) (Stats, error) {
	var stats Stats

	records, err := loader.ParseEntityRecords(data)
	if err != nil {
		return stats, err
	}

	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		entity := common.Entity{
			Name:        strings.TrimSpace(record.Name),
			Type:        strings.TrimSpace(record.Type),
			Description: strings.TrimSpace(record.Description),
		}
		if err := g.store.UpsertEntity(ctx, entity); err != nil {
			return stats, err
		}
		stats.EntitiesMerged++

		for _, rel := range record.Relations {
			triple := common.Triple{
				Subject: entity.Name,
				Label:   strings.TrimSpace(rel.Type),
				Object:  strings.TrimSpace(rel.Target),
			}
			merged, err := g.mergeWithEndpoints(ctx, triple)
			if err != nil {
				return stats, err
			}
			if !merged {
				logger.Warn("[Graph] Skipping JSON relation", "entity", entity.Name, "relation", rel.Type, "target", rel.Target)
				stats.RowsSkipped++
				continue
			}
			stats.RelationsMerged++
		}
	}

	logger.Info("[Graph] Imported JSON",
		"entities", stats.EntitiesMerged,
		"relations", stats.RelationsMerged,
		"skipped", stats.RowsSkipped,
	)
	return stats, nil
}

// ImportCSVTriples merges triple rows into the graph, creating endpoints as
// needed. Incomplete rows are skipped and counted.
func (g *Ingestor) ImportCSVTriples(ctx context.Context, rows []loader.TripleRow) (Stats, error) {
	var stats Stats

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		row.Source = strings.TrimSpace(row.Source)
		row.Target = strings.TrimSpace(row.Target)
		row.Relation = strings.TrimSpace(row.Relation)
		if !row.Valid() {
			logger.Warn("[Graph] Skipping malformed CSV row", "line", row.Line)
			stats.RowsSkipped++
			continue
		}

		triple := common.Triple{Subject: row.Source, Label: row.Relation, Object: row.Target}

		merged, err := g.mergeWithEndpoints(ctx, triple)
		if err != nil {
			return stats, err
		}
		if !merged {
			logger.Warn("[Graph] Skipping CSV row with invalid relation", "line", row.Line, "relation", triple.Label)
			stats.RowsSkipped++
			continue
		}
		stats.RelationsMerged++
	}

	logger.Info("[Graph] Imported CSV",
		"relations", stats.RelationsMerged,
		"skipped", stats.RowsSkipped,
	)
	return stats, nil
}

// mergeWithEndpoints reports false for triples the store refuses.
func (g *Ingestor) mergeWithEndpoints(ctx context.Context, triple common.Triple) (bool, error) {
	if triple.Subject == "" || triple.Object == "" {
		return false, nil
	}
	err := g.store.MergeRelationWithEndpoints(ctx, triple)
	if errors.Is(err, store.ErrInvalidLabel) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("merge relation: %w", err)
	}
	return true, nil
}

// ImportJSONFile loads file and passes it to ImportFromJSON.
func (g *Ingestor) ImportJSONFile(ctx context.Context, file loader.GraphFile) (Stats, error) {
	content, err := file.GetText(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats, err := g.ImportFromJSON(ctx, content)
	if err != nil {
		return stats, fmt.Errorf("import %s: %w", file.FilePath, err)
	}
	stats.Documents = 1
	return stats, nil
}

// ImportCSVFile loads file, parses its triple rows and passes them to
// ImportCSVTriples. A file without the required header fails with
// loader.ErrMissingColumns.
func (g *Ingestor) ImportCSVFile(ctx context.Context, file loader.GraphFile) (Stats, error) {
	content, err := file.GetText(ctx)
	if err != nil {
		return Stats{}, err
	}
	rows, err := csv.ParseTripleRows(content)
	if err != nil {
		return Stats{}, fmt.Errorf("import %s: %w", file.FilePath, err)
	}
	stats, err := g.ImportCSVTriples(ctx, rows)
	if err != nil {
		return stats, fmt.Errorf("import %s: %w", file.FilePath, err)
	}
	stats.Documents = 1
	return stats, nil
}

// ImportFile dispatches a structured file by type.
func (g *Ingestor) ImportFile(ctx context.Context, file loader.GraphFile) (Stats, error) {
	switch file.FileType {
	case loader.GraphFileTypeJSON:
		return g.ImportJSONFile(ctx, file)
	case loader.GraphFileTypeCSV:
		return g.ImportCSVFile(ctx, file)
	}
	return Stats{}, fmt.Errorf("%w: %s cannot be imported incrementally", loader.ErrUnsupportedFileType, file.FilePath)
}
