// Package nlp defines the interface the extraction pipeline needs from the
// language model runtime: named-entity recognition and sentence
// segmentation with an optional dependency parse. Concrete backends live in
// the sub-packages.
package nlp

import (
	"context"
	"errors"
	"fmt"
	"io"
)

type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

// RawEntity is one item of token-classification output. Aggregating
// pipelines fill EntityGroup and a merged Word, token-level pipelines fill
// Entity with the sub-token in Word.
type RawEntity struct {
	Word        string  `json:"word"`
	Entity      string  `json:"entity,omitempty"`
	EntityGroup string  `json:"entity_group,omitempty"`
	Score       float64 `json:"score,omitempty"`
	Start       int     `json:"start,omitempty"`
	End         int     `json:"end,omitempty"`
}

// Token is a parsed token. Head is the index of the syntactic head within
// the same sentence; the root token points to itself.
type Token struct {
	Text  string `json:"text"`
	Lemma string `json:"lemma"`
	Dep   string `json:"dep"`
	Head  int    `json:"head"`
}

// Sentence is a segmented sentence. Tokens is empty when the backend only
// segments and does not parse.
type Sentence struct {
	Text   string  `json:"text"`
	Tokens []Token `json:"tokens,omitempty"`
}

// Rights returns the syntactic children of token i that appear after it,
// in sentence order.
func (s Sentence) Rights(i int) []Token {
	var out []Token
	for j := i + 1; j < len(s.Tokens); j++ {
		if s.Tokens[j].Head == i {
			out = append(out, s.Tokens[j])
		}
	}
	return out
}

// Recognizer tags named entities in a text chunk.
type Recognizer interface {
	Recognize(ctx context.Context, text string) ([]RawEntity, error)
}

// Parser segments text into sentences.
type Parser interface {
	Parse(ctx context.Context, text string) ([]Sentence, error)
}

var ErrNoBackend = errors.New("no nlp backend configured for language")

// Service is the handle for all language models used by the pipeline. It is
// built once at startup and passed to the extractor.
type Service struct {
	recognizers map[Language]Recognizer
	parsers     map[Language]Parser
}

// NewServiceParams wires one recognizer and one parser per language.
type NewServiceParams struct {
	EnglishNER    Recognizer
	ChineseNER    Recognizer
	EnglishParser Parser
	ChineseParser Parser
}

// NewService validates that every slot is filled and returns the handle.
func NewService(params NewServiceParams) (*Service, error) {
	s := &Service{
		recognizers: map[Language]Recognizer{
			English: params.EnglishNER,
			Chinese: params.ChineseNER,
		},
		parsers: map[Language]Parser{
			English: params.EnglishParser,
			Chinese: params.ChineseParser,
		},
	}
	for lang, r := range s.recognizers {
		if r == nil {
			return nil, fmt.Errorf("%w: recognizer %s", ErrNoBackend, lang)
		}
	}
	for lang, p := range s.parsers {
		if p == nil {
			return nil, fmt.Errorf("%w: parser %s", ErrNoBackend, lang)
		}
	}
	return s, nil
}

func (s *Service) Recognizer(lang Language) Recognizer {
	return s.recognizers[lang]
}

func (s *Service) Parser(lang Language) Parser {
	return s.parsers[lang]
}

// Close releases every backend that holds resources. Backends shared between
// slots are closed once.
func (s *Service) Close() error {
	seen := make(map[any]bool)
	var errs []error
	closeOne := func(v any) {
		c, ok := v.(io.Closer)
		if !ok || seen[v] {
			return
		}
		seen[v] = true
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	for _, r := range s.recognizers {
		closeOne(r)
	}
	for _, p := range s.parsers {
		closeOne(p)
	}
	return errors.Join(errs...)
}
