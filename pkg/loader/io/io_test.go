package io

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
)

func TestIOGraphFileLoaderCachesContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lecture.txt")
	if err := os.WriteFile(path, []byte("PCA is a type of dimensionality reduction."), 0o600); err != nil {
		t.Fatal(err)
	}

	l := NewIOGraphFileLoader()
	file := loader.NewGraphDocumentFile(loader.NewGraphFileParams{FilePath: path, Loader: l})

	first, err := file.GetText(context.Background())
	if err != nil {
		t.Fatalf("GetText() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("changed"), 0o600); err != nil {
		t.Fatal(err)
	}
	second, err := file.GetText(context.Background())
	if err != nil {
		t.Fatalf("GetText() error = %v", err)
	}
	if string(first) != string(second) {
		t.Errorf("second read bypassed cache: %q vs %q", first, second)
	}
}

func TestIOGraphFileLoaderMissingFile(t *testing.T) {
	l := NewIOGraphFileLoader()
	_, err := l.GetFileText(context.Background(), loader.GraphFile{FilePath: filepath.Join(t.TempDir(), "nope.txt")})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
