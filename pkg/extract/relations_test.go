package extract

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

func TestFirstMatchPriority(t *testing.T) {
	tests := []struct {
		name     string
		rules    RuleSet
		sentence string
		want     Match
		wantOK   bool
	}{
		{
			name:     "type of wins over is a and stores",
			rules:    EnglishRules,
			sentence: "a database is a type of system that stores data.",
			want:     Match{Subject: "a database", Object: "system that stores data.", Label: "is_a"},
			wantOK:   true,
		},
		{
			name:     "defined as",
			rules:    EnglishRules,
			sentence: "entropy is defined as a measure of disorder",
			want:     Match{Subject: "entropy", Object: "a measure of disorder", Label: "defined_as"},
			wantOK:   true,
		},
		{
			name:     "anchored at sentence start",
			rules:    EnglishRules,
			sentence: "pca uses eigenvectors",
			want:     Match{Subject: "pca", Object: "eigenvectors", Label: "used_in"},
			wantOK:   true,
		},
		{
			name:     "no rule applies",
			rules:    EnglishRules,
			sentence: "hello world",
			wantOK:   false,
		},
		{
			name:     "chinese kind of",
			rules:    ChineseRules,
			sentence: "主成分分析是降维方法的一种。",
			want:     Match{Subject: "主成分分析", Object: "降维方法", Label: "是"},
			wantOK:   true,
		},
		{
			name:     "chinese depends on before depends",
			rules:    ChineseRules,
			sentence: "PCA依赖于协方差矩阵。",
			want:     Match{Subject: "PCA", Object: "协方差矩阵。", Label: "依赖"},
			wantOK:   true,
		},
		{
			name:     "chinese framed pattern",
			rules:    ChineseRules,
			sentence: "客户端与服务器通信",
			want:     Match{Subject: "客户端", Object: "服务器", Label: "通信"},
			wantOK:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.rules.FirstMatch(tt.sentence)
			if ok != tt.wantOK {
				t.Fatalf("FirstMatch() ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Errorf("FirstMatch() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestCapitalize(t *testing.T) {
	tests := map[string]string{
		"":                   "",
		"pca":                "Pca",
		"dimensionality RED": "Dimensionality red",
		"主成分":                "主成分",
		"élan":               "Élan",
	}
	for in, want := range tests {
		if got := Capitalize(in); got != want {
			t.Errorf("Capitalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractRelationsEnglish(t *testing.T) {
	e := newTestExtractor(t, nlp.NewServiceParams{})

	got, err := e.ExtractRelations(context.Background(), "PCA is a type of dimensionality reduction. X is a y.")
	if err != nil {
		t.Fatalf("ExtractRelations() error = %v", err)
	}
	want := []common.Triple{
		{Subject: "Pca", Label: "is_a", Object: "Dimensionality reduction"},
	}
	if !reflect.DeepEqual(got.Sorted(), want) {
		t.Errorf("ExtractRelations() = %#v, want %#v", got.Sorted(), want)
	}
}

func TestExtractRelationsChinese(t *testing.T) {
	e := newTestExtractor(t, nlp.NewServiceParams{})

	text := "主成分分析是降维方法的一种。K均值是一种聚类算法。\nPCA依赖于协方差矩阵！A是B的一种。"
	got, err := e.ExtractRelations(context.Background(), text)
	if err != nil {
		t.Fatalf("ExtractRelations() error = %v", err)
	}
	want := []common.Triple{
		{Subject: "K均值", Label: "是", Object: "聚类算法"},
		{Subject: "PCA", Label: "依赖", Object: "协方差矩阵！"},
		{Subject: "主成分分析", Label: "是", Object: "降维方法"},
	}
	if !reflect.DeepEqual(got.Sorted(), want) {
		t.Errorf("ExtractRelations() = %#v, want %#v", got.Sorted(), want)
	}
}

func TestExtractRelationsDependencyPass(t *testing.T) {
	sentence := nlp.Sentence{
		Text: "The team uses Git.",
		Tokens: []nlp.Token{
			{Text: "The", Lemma: "the", Dep: "det", Head: 1},
			{Text: "team", Lemma: "team", Dep: "nsubj", Head: 2},
			{Text: "uses", Lemma: "use", Dep: "ROOT", Head: 2},
			{Text: "Git", Lemma: "git", Dep: "dobj", Head: 2},
			{Text: ".", Lemma: ".", Dep: "punct", Head: 2},
		},
	}
	e := newTestExtractor(t, nlp.NewServiceParams{
		EnglishParser: &fakeParser{sentences: []nlp.Sentence{sentence}},
	})

	got, err := e.ExtractRelations(context.Background(), sentence.Text)
	if err != nil {
		t.Fatalf("ExtractRelations() error = %v", err)
	}
	want := []common.Triple{
		{Subject: "The team", Label: "used_in", Object: "Git"},
		{Subject: "team", Label: "used_in", Object: "Git"},
	}
	if !reflect.DeepEqual(got.Sorted(), want) {
		t.Errorf("ExtractRelations() = %#v, want %#v", got.Sorted(), want)
	}
}

func TestDependencyRelations(t *testing.T) {
	tests := []struct {
		name string
		s    nlp.Sentence
		want []common.Triple
	}{
		{
			name: "apply with attribute",
			s: nlp.Sentence{Tokens: []nlp.Token{
				{Text: "Auditors", Dep: "nsubj", Head: 1},
				{Text: "apply", Lemma: "apply", Dep: "ROOT", Head: 1},
				{Text: "rules", Dep: "attr", Head: 1},
			}},
			want: []common.Triple{{Subject: "Auditors", Label: "applies", Object: "rules"}},
		},
		{
			name: "enforce maps to applies",
			s: nlp.Sentence{Tokens: []nlp.Token{
				{Text: "Firewalls", Dep: "nsubj", Head: 1},
				{Text: "enforce", Lemma: "enforce", Dep: "ROOT", Head: 1},
				{Text: "policies", Dep: "dobj", Head: 1},
			}},
			want: []common.Triple{{Subject: "Firewalls", Label: "applies", Object: "policies"}},
		},
		{
			name: "other verbs ignored",
			s: nlp.Sentence{Tokens: []nlp.Token{
				{Text: "Students", Dep: "nsubj", Head: 1},
				{Text: "learn", Lemma: "learn", Dep: "ROOT", Head: 1},
				{Text: "PCA", Dep: "dobj", Head: 1},
			}},
			want: nil,
		},
		{
			name: "object to the left is ignored",
			s: nlp.Sentence{Tokens: []nlp.Token{
				{Text: "What", Dep: "dobj", Head: 2},
				{Text: "teams", Dep: "nsubj", Head: 2},
				{Text: "use", Lemma: "use", Dep: "ROOT", Head: 2},
			}},
			want: nil,
		},
		{
			name: "first right dependent only",
			s: nlp.Sentence{Tokens: []nlp.Token{
				{Text: "Teams", Dep: "nsubj", Head: 1},
				{Text: "use", Lemma: "use", Dep: "ROOT", Head: 1},
				{Text: "Git", Dep: "dobj", Head: 1},
				{Text: "Jira", Dep: "dobj", Head: 1},
			}},
			want: []common.Triple{{Subject: "Teams", Label: "used_in", Object: "Git"}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DependencyRelations(tt.s)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("DependencyRelations() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestExtractRelationsSkipsFailingParse(t *testing.T) {
	e := newTestExtractor(t, nlp.NewServiceParams{
		EnglishParser: &fakeParser{err: errors.New("parser down")},
	})
	got, err := e.ExtractRelations(context.Background(), "主成分分析是降维方法的一种。")
	if err != nil {
		t.Fatalf("ExtractRelations() error = %v", err)
	}
	if len(got) != 1 {
		t.Errorf("chinese engine should still run, got %v", got.Sorted())
	}
}
