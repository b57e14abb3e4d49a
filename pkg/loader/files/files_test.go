package files

import (
	"context"
	"errors"
	"testing"

	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/loader/pdf"
)

type memLoader map[string]string

func (m memLoader) GetFileText(_ context.Context, f loader.GraphFile) ([]byte, error) {
	return []byte(m[f.FilePath]), nil
}

func TestResolverFile(t *testing.T) {
	base := memLoader{"notes.txt": "PCA is a type of dimensionality reduction."}
	r := NewResolver(base)

	tests := []struct {
		path     string
		wantType loader.GraphFileType
		wantPDF  bool
	}{
		{path: "notes.txt", wantType: loader.GraphFileTypeDocument},
		{path: "lecture.PDF", wantType: loader.GraphFileTypeDocument, wantPDF: true},
		{path: "graph.json", wantType: loader.GraphFileTypeJSON},
		{path: "triples.csv", wantType: loader.GraphFileTypeCSV},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			f, err := r.File("id", tt.path)
			if err != nil {
				t.Fatalf("File() error = %v", err)
			}
			if f.FileType != tt.wantType {
				t.Errorf("FileType = %q, want %q", f.FileType, tt.wantType)
			}
			_, isPDF := f.Loader.(*pdf.PDFGraphLoader)
			if isPDF != tt.wantPDF {
				t.Errorf("pdf loader = %v, want %v", isPDF, tt.wantPDF)
			}
		})
	}

	f, _ := r.File("id", "notes.txt")
	text, err := f.GetText(context.Background())
	if err != nil || string(text) != "PCA is a type of dimensionality reduction." {
		t.Errorf("GetText() = %q, %v", text, err)
	}
}

func TestResolverRejectsUnknownExtension(t *testing.T) {
	_, err := NewResolver(memLoader{}).File("id", "slides.pptx")
	if !errors.Is(err, loader.ErrUnsupportedFileType) {
		t.Fatalf("File() error = %v, want ErrUnsupportedFileType", err)
	}
}
