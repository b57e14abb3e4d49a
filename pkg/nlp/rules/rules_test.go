package rules

import (
	"context"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

func sentenceTexts(t *testing.T, p *SentenceParser, text string) []string {
	t.Helper()
	sents, err := p.Parse(context.Background(), text)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	var out []string
	for _, s := range sents {
		if len(s.Tokens) != 0 {
			t.Fatalf("rule parser produced tokens: %#v", s.Tokens)
		}
		out = append(out, s.Text)
	}
	return out
}

func TestEnglishSentences(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "empty input",
			text: "",
			want: nil,
		},
		{
			name: "multiple sentences",
			text: "PCA is a type of dimensionality reduction. It uses eigenvectors! Does it?",
			want: []string{
				"PCA is a type of dimensionality reduction.",
				"It uses eigenvectors!",
				"Does it?",
			},
		},
		{
			name: "multi-line sentence",
			text: "K-means depends on\nthe initial centroids.",
			want: []string{"K-means depends on the initial centroids."},
		},
		{
			name: "blank line ends sentence",
			text: "Heading without period\n\nBody text.",
			want: []string{"Heading without period", "Body text."},
		},
		{
			name: "numeric listing stays together",
			text: "Steps: 1. center the data 2. compute covariance. Done.",
			want: []string{"Steps: 1. center the data 2. compute covariance.", "Done."},
		},
	}

	p := NewSentenceParser(nlp.English)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sentenceTexts(t, p, tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Parse() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestChineseSentences(t *testing.T) {
	p := NewSentenceParser(nlp.Chinese)
	got := sentenceTexts(t, p, "主成分分析是降维方法的一种。PCA依赖于协方差矩阵！\n聚类包括K均值")
	want := []string{
		"主成分分析是降维方法的一种。",
		"PCA依赖于协方差矩阵！",
		"聚类包括K均值",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Parse() = %#v, want %#v", got, want)
	}
}

func TestParseHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewSentenceParser(nlp.English).Parse(ctx, "text."); err == nil {
		t.Fatal("expected error for canceled context")
	}
}
