package loader

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/OFFIS-RIT/coursegraph/internal/util"
)

type GraphFileType string

const (
	// GraphFileTypeDocument is free text (PDF or plain text) that goes
	// through entity and relation extraction.
	GraphFileTypeDocument GraphFileType = "document"
	// GraphFileTypeJSON is a structured entity list.
	GraphFileTypeJSON GraphFileType = "json"
	// GraphFileTypeCSV is a triple table with source, target and relation
	// columns.
	GraphFileTypeCSV GraphFileType = "csv"
)

var (
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrMissingColumns      = errors.New("csv is missing required columns")
)

// GraphFile is an input to graph construction. The content is retrieved via
// the associated GraphFileLoader.
type GraphFile struct {
	ID       string
	FilePath string
	FileType GraphFileType
	Loader   GraphFileLoader
}

// NewGraphFileParams defines the input parameters for creating a GraphFile.
type NewGraphFileParams struct {
	ID       string
	FilePath string
	Loader   GraphFileLoader
}

func NewGraphDocumentFile(params NewGraphFileParams) GraphFile {
	return GraphFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		FileType: GraphFileTypeDocument,
		Loader:   params.Loader,
	}
}

func NewGraphJSONFile(params NewGraphFileParams) GraphFile {
	return GraphFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		FileType: GraphFileTypeJSON,
		Loader:   params.Loader,
	}
}

func NewGraphCSVFile(params NewGraphFileParams) GraphFile {
	return GraphFile{
		ID:       params.ID,
		FilePath: params.FilePath,
		FileType: GraphFileTypeCSV,
		Loader:   params.Loader,
	}
}

// GetText retrieves the content of the file using its Loader. For PDFs this
// is the extracted page text, for everything else the raw bytes.
func (f *GraphFile) GetText(ctx context.Context) ([]byte, error) {
	if f.Loader == nil {
		return nil, fmt.Errorf("file %s has no loader", f.FilePath)
	}
	return f.Loader.GetFileText(ctx, *f)
}

// GraphFileLoader loads the contents of a GraphFile. Implementations may
// read from disk, object storage, or wrap another loader to transform its
// output.
type GraphFileLoader interface {
	GetFileText(ctx context.Context, file GraphFile) ([]byte, error)
}

// CacheKey identifies a file for loader caches.
func CacheKey(file GraphFile) string {
	if file.ID != "" {
		return file.ID + ":" + file.FilePath
	}
	return file.FilePath
}

// FileTypeForPath maps a file name to its graph file type.
func FileTypeForPath(path string) (GraphFileType, error) {
	switch util.FileExtension(path) {
	case "pdf", "txt":
		return GraphFileTypeDocument, nil
	case "json":
		return GraphFileTypeJSON, nil
	case "csv":
		return GraphFileTypeCSV, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFileType, filepath.Base(path))
}
