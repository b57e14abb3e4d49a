package util

import "testing"

func TestSanitizePostgresText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain utf8",
			input: "主成分分析 PCA",
			want:  "主成分分析 PCA",
		},
		{
			name:  "contains null byte",
			input: "PC\x00A",
			want:  "PCA",
		},
		{
			name:  "contains invalid utf8",
			input: string([]byte{'a', 0xff, 'b'}),
			want:  "ab",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizePostgresText(tt.input)
			if got != tt.want {
				t.Fatalf("unexpected sanitized value: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFileExtension(t *testing.T) {
	tests := map[string]string{
		"data/notes.PDF":   "pdf",
		"triples.csv":      "csv",
		"/tmp/no-ext":      "",
		"archive.tar.json": "json",
	}
	for in, want := range tests {
		if got := FileExtension(in); got != want {
			t.Errorf("FileExtension(%q) = %q, want %q", in, got, want)
		}
	}
}
