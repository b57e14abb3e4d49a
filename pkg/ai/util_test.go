package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

type taggedEntity struct {
	Word        string `json:"word"`
	EntityGroup string `json:"entity_group"`
}

type taggedEntities struct {
	Entities []taggedEntity `json:"entities"`
}

func TestUnmarshalFlexible_ObjectVariants(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  taggedEntity
	}{
		{
			name:  "valid json object",
			input: `{"word":"PCA","entity_group":"MISC"}`,
			want:  taggedEntity{Word: "PCA", EntityGroup: "MISC"},
		},
		{
			name:  "unquoted key and single quotes",
			input: `{word: 'PCA', entity_group: 'MISC'}`,
			want:  taggedEntity{Word: "PCA", EntityGroup: "MISC"},
		},
		{
			name:  "trailing comma",
			input: `{"word":"主成分分析","entity_group":"MISC",}`,
			want:  taggedEntity{Word: "主成分分析", EntityGroup: "MISC"},
		},
		{
			name:  "missing end bracket",
			input: `{"word":"LDA"`,
			want:  taggedEntity{Word: "LDA"},
		},
		{
			name:  "stringified invalid json object",
			input: `"{word: 'LDA'}"`,
			want:  taggedEntity{Word: "LDA"},
		},
		{
			name:  "markdown code fence",
			input: "```json\n{\"word\": \"PCA\", \"entity_group\": \"MISC\"}\n```",
			want:  taggedEntity{Word: "PCA", EntityGroup: "MISC"},
		},
		{
			name:  "bare code fence",
			input: "```\n{\"word\": \"LDA\"}\n```",
			want:  taggedEntity{Word: "LDA"},
		},
		{
			name:  "duplicate leading brace",
			input: "{\n{\n  \"word\": \"K-means\"\n}\n",
			want:  taggedEntity{Word: "K-means"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var got taggedEntity
			if err := UnmarshalFlexible(tc.input, &got); err != nil {
				t.Fatalf("UnmarshalFlexible() error = %v", err)
			}
			if got != tc.want {
				t.Fatalf("UnmarshalFlexible() got = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestUnmarshalFlexible_NestedList(t *testing.T) {
	input := `{entities: [{word:'PCA', entity_group:'MISC'},{word:'Fisher', entity_group:'PER',}]}`
	var got taggedEntities
	if err := UnmarshalFlexible(input, &got); err != nil {
		t.Fatalf("UnmarshalFlexible() error = %v", err)
	}
	if len(got.Entities) != 2 || got.Entities[1].Word != "Fisher" {
		t.Fatalf("UnmarshalFlexible() got = %+v", got)
	}
}

func TestUnmarshalFlexible_Unrecoverable(t *testing.T) {
	var got taggedEntity
	if err := UnmarshalFlexible("hello", &got); err == nil {
		t.Fatalf("UnmarshalFlexible() expected error for unrecoverable input")
	}
}

func TestGenerateSchemaInlinesDefinitions(t *testing.T) {
	raw, err := json.Marshal(GenerateSchema(&taggedEntities{}))
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	s := string(raw)
	if strings.Contains(s, "$ref") {
		t.Errorf("schema should not use references: %s", s)
	}
	for _, field := range []string{`"entities"`, `"word"`, `"entity_group"`} {
		if !strings.Contains(s, field) {
			t.Errorf("schema missing %s: %s", field, s)
		}
	}
}

func TestModelMetricsAdd(t *testing.T) {
	var m ModelMetrics
	m.Add(ModelMetrics{Requests: 1, InputTokens: 100, OutputTokens: 50, TotalTokens: 150, DurationMs: 500})
	m.Add(ModelMetrics{Requests: 1, InputTokens: 20, OutputTokens: 30, TotalTokens: 50, DurationMs: 500})

	if m.Requests != 2 || m.TotalTokens != 200 || m.DurationMs != 1000 {
		t.Fatalf("unexpected totals: %+v", m)
	}
	if m.TokenPerSecond != 200 {
		t.Errorf("TokenPerSecond = %v, want 200", m.TokenPerSecond)
	}
}
