// Package files picks the loader chain for an input path.
package files

import (
	"github.com/OFFIS-RIT/coursegraph/internal/util"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader/pdf"
)

// Resolver turns paths into GraphFiles. Raw bytes come from base; PDFs get
// the text extractor layered on top.
type Resolver struct {
	base loader.GraphFileLoader
	pdf  *pdf.PDFGraphLoader
}

func NewResolver(base loader.GraphFileLoader) *Resolver {
	return &Resolver{
		base: base,
		pdf:  pdf.NewPDFGraphLoader(base),
	}
}

// File returns a GraphFile for path, or loader.ErrUnsupportedFileType.
func (r *Resolver) File(id, path string) (loader.GraphFile, error) {
	fileType, err := loader.FileTypeForPath(path)
	if err != nil {
		return loader.GraphFile{}, err
	}

	params := loader.NewGraphFileParams{ID: id, FilePath: path, Loader: r.base}
	switch fileType {
	case loader.GraphFileTypeJSON:
		return loader.NewGraphJSONFile(params), nil
	case loader.GraphFileTypeCSV:
		return loader.NewGraphCSVFile(params), nil
	}

	if util.FileExtension(path) == "pdf" {
		params.Loader = r.pdf
	}
	return loader.NewGraphDocumentFile(params), nil
}
