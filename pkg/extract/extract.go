// Package extract turns document text into (name, type) entity pairs and
// (subject, relation, object) triples. Entities come from the language's
// named-entity model; relations come from ordered surface-pattern rules plus
// a dependency heuristic for English.
package extract

import (
	"context"
	"errors"
	"time"

	"github.com/OFFIS-RIT/coursegraph/internal/util"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

const (
	DefaultEnglishNERChunkSize      = 512
	DefaultChineseNERChunkSize      = 128
	DefaultEnglishRelationChunkSize = 5000
	DefaultChineseRelationChunkSize = 100000
	DefaultParallel                 = 4
	DefaultChunkTimeout             = 2 * time.Minute
)

// Extractor runs entity and relation extraction. It is safe for concurrent
// use as long as the underlying nlp backends are.
type Extractor struct {
	nlp *nlp.Service

	englishNERChunk int
	chineseNERChunk int
	englishRelChunk int
	chineseRelChunk int

	parallel     int
	chunkTimeout time.Duration
	maxRetries   int

	englishRules RuleSet
	chineseRules RuleSet
}

// NewExtractorParams configures an Extractor. Zero values select the
// package defaults; MaxRetries of 0 or 1 means a single attempt.
type NewExtractorParams struct {
	NLP *nlp.Service

	EnglishNERChunkSize      int
	ChineseNERChunkSize      int
	EnglishRelationChunkSize int
	ChineseRelationChunkSize int

	Parallel     int
	ChunkTimeout time.Duration
	MaxRetries   int
}

func NewExtractor(params NewExtractorParams) (*Extractor, error) {
	if params.NLP == nil {
		return nil, errors.New("extractor requires an nlp service")
	}
	return &Extractor{
		nlp:             params.NLP,
		englishNERChunk: orDefault(params.EnglishNERChunkSize, DefaultEnglishNERChunkSize),
		chineseNERChunk: orDefault(params.ChineseNERChunkSize, DefaultChineseNERChunkSize),
		englishRelChunk: orDefault(params.EnglishRelationChunkSize, DefaultEnglishRelationChunkSize),
		chineseRelChunk: orDefault(params.ChineseRelationChunkSize, DefaultChineseRelationChunkSize),
		parallel:        orDefault(params.Parallel, DefaultParallel),
		chunkTimeout:    orDefaultDuration(params.ChunkTimeout, DefaultChunkTimeout),
		maxRetries:      orDefault(params.MaxRetries, 1),
		englishRules:    EnglishRules,
		chineseRules:    ChineseRules,
	}, nil
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

// callModel runs fn with the per-chunk timeout applied to every attempt.
func callModel[T any](ctx context.Context, e *Extractor, fn func(context.Context) (T, error)) (T, error) {
	return util.RetryWithContext(ctx, e.maxRetries, func(ctx context.Context) (T, error) {
		callCtx, cancel := context.WithTimeout(ctx, e.chunkTimeout)
		defer cancel()
		return fn(callCtx)
	})
}
