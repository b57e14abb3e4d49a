package loader

import (
	"errors"
	"testing"
)

func TestFileTypeForPath(t *testing.T) {
	tests := []struct {
		path    string
		want    GraphFileType
		wantErr bool
	}{
		{path: "data/lecture1.pdf", want: GraphFileTypeDocument},
		{path: "notes.TXT", want: GraphFileTypeDocument},
		{path: "graph.json", want: GraphFileTypeJSON},
		{path: "triples.csv", want: GraphFileTypeCSV},
		{path: "slides.pptx", wantErr: true},
		{path: "README", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FileTypeForPath(tt.path)
			if tt.wantErr {
				if !errors.Is(err, ErrUnsupportedFileType) {
					t.Fatalf("FileTypeForPath() error = %v, want ErrUnsupportedFileType", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("FileTypeForPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("FileTypeForPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseEntityRecords(t *testing.T) {
	data := []byte(`[
		{"name": "PCA", "type": "方法", "description": "一种降维方法",
		 "relations": [{"type": "related_to", "target": "LDA"}]},
		{"name": "LDA", "type": "方法"}
	]`)
	got, err := ParseEntityRecords(data)
	if err != nil {
		t.Fatalf("ParseEntityRecords() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Description != "一种降维方法" || len(got[0].Relations) != 1 || got[0].Relations[0].Target != "LDA" {
		t.Errorf("unexpected first record: %+v", got[0])
	}
	if got[1].Relations != nil {
		t.Errorf("second record should have no relations: %+v", got[1])
	}
}

func TestParseEntityRecordsRejectsBadInput(t *testing.T) {
	for _, in := range []string{`{"name": "PCA"}`, `[{"type": "方法"}]`, `not json`} {
		if _, err := ParseEntityRecords([]byte(in)); err == nil {
			t.Errorf("ParseEntityRecords(%s) expected error", in)
		}
	}
}

func TestCacheKey(t *testing.T) {
	if got := CacheKey(GraphFile{ID: "a", FilePath: "x.pdf"}); got != "a:x.pdf" {
		t.Errorf("CacheKey() = %q", got)
	}
	if got := CacheKey(GraphFile{FilePath: "x.pdf"}); got != "x.pdf" {
		t.Errorf("CacheKey() = %q", got)
	}
}
