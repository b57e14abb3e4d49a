package main

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/OFFIS-RIT/coursegraph/internal/app"
	"github.com/OFFIS-RIT/coursegraph/pkg/graph"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader/files"
	ioloader "github.com/OFFIS-RIT/coursegraph/pkg/loader/io"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"

	"github.com/spf13/cobra"
)

var buildCmd = &cobra.Command{
	Use:   "build [dir]",
	Short: "Rebuild the graph from a directory of course material",
	Long: `Rebuild the graph from a directory of course material.

PDF and text files are run through entity and relation extraction and
replace the stored graph. JSON entity lists and CSV triple tables in the
same directory are merged in afterwards. Other files are ignored.

Examples:
  coursegraph build                 # Use ./data
  coursegraph build ./lectures      # Use another directory`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "data"
		if len(args) == 1 {
			dir = args[0]
		}

		inputs, err := collectFiles(dir, files.NewResolver(ioloader.NewIOGraphFileLoader()))
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			return fmt.Errorf("no pdf, txt, json or csv files in %s", dir)
		}

		services, err := app.Open(cmd.Context(), app.OpenParams{
			Config:     cfg,
			Extraction: hasDocuments(inputs),
		})
		if err != nil {
			return err
		}
		defer services.Close()

		stats, err := services.Ingestor.BuildFromFiles(cmd.Context(), inputs)
		if err != nil {
			return err
		}
		if services.AI != nil {
			m := services.AI.GetMetrics()
			logger.Info("AI usage", "requests", m.Requests, "total_tokens", m.TotalTokens)
		}
		return printJSON(cmd, stats)
	},
}

// collectFiles walks dir and returns every supported file, sorted by path
// so rebuilds are reproducible.
func collectFiles(dir string, resolver *files.Resolver) ([]loader.GraphFile, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if _, err := loader.FileTypeForPath(path); err != nil {
			logger.Debug("Skipping unsupported file", "path", path)
			return nil
		}
		paths = append(paths, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	slices.Sort(paths)

	out := make([]loader.GraphFile, 0, len(paths))
	for _, path := range paths {
		f, err := resolver.File(filepath.Base(path), path)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

func hasDocuments(inputs []loader.GraphFile) bool {
	return slices.ContainsFunc(inputs, func(f loader.GraphFile) bool {
		return f.FileType == loader.GraphFileTypeDocument
	})
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print entity and relation counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := app.Open(cmd.Context(), app.OpenParams{Config: cfg})
		if err != nil {
			return err
		}
		defer services.Close()

		stats, err := services.Store.Stats(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

// importFile runs one structured import with the services opened for
// querying only.
func importFile(cmd *cobra.Command, path string, want loader.GraphFileType) (graph.Stats, error) {
	if _, err := os.Stat(path); err != nil {
		return graph.Stats{}, err
	}
	f, err := files.NewResolver(ioloader.NewIOGraphFileLoader()).File(filepath.Base(path), path)
	if err != nil {
		return graph.Stats{}, err
	}
	if f.FileType != want {
		return graph.Stats{}, fmt.Errorf("%s is not a %s file", path, want)
	}

	services, err := app.Open(cmd.Context(), app.OpenParams{Config: cfg})
	if err != nil {
		return graph.Stats{}, err
	}
	defer services.Close()

	return services.Ingestor.ImportFile(cmd.Context(), f)
}

var importJSONCmd = &cobra.Command{
	Use:   "import-json <file>",
	Short: "Merge a JSON entity list into the graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := importFile(cmd, args[0], loader.GraphFileTypeJSON)
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}

var importCSVCmd = &cobra.Command{
	Use:   "import-csv <file>",
	Short: "Merge a CSV triple table (source,target,relation) into the graph",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := importFile(cmd, args[0], loader.GraphFileTypeCSV)
		if err != nil {
			return err
		}
		return printJSON(cmd, stats)
	},
}
