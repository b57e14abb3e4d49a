package extract

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/OFFIS-RIT/coursegraph/pkg/chunker"
	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"

	"golang.org/x/sync/errgroup"
)

var (
	latinLetter  = regexp.MustCompile(`[a-zA-Z]`)
	cjkIdeograph = regexp.MustCompile(`[\x{4e00}-\x{9fff}]`)
)

// SplitByLanguage buckets the lines of text. A line containing both Latin
// letters and CJK ideographs lands in both buckets; a line with neither is
// dropped.
func SplitByLanguage(text string) (english, chinese []string) {
	for _, line := range strings.Split(text, "\n") {
		if latinLetter.MatchString(line) {
			english = append(english, line)
		}
		if cjkIdeograph.MatchString(line) {
			chinese = append(chinese, line)
		}
	}
	return english, chinese
}

// NormalizeEntity reduces one raw model span to a (word, label) pair. The
// aggregated word is preferred, falling back to the entity group; the
// token-level label is preferred, falling back to the entity group. ok is
// false when either side is empty after trimming.
func NormalizeEntity(raw nlp.RawEntity) (word, label string, ok bool) {
	word = raw.Word
	if word == "" {
		word = raw.EntityGroup
	}
	label = raw.Entity
	if label == "" {
		label = raw.EntityGroup
	}
	word = strings.TrimSpace(word)
	label = strings.TrimSpace(label)
	return word, label, word != "" && label != ""
}

type nerJob struct {
	lang  nlp.Language
	chunk string
}

// ExtractEntities runs named-entity recognition over both language buckets
// of text. A chunk whose model call fails is logged and skipped; only
// cancellation of ctx aborts the call.
func (e *Extractor) ExtractEntities(ctx context.Context, text string) (common.EntitySet, error) {
	english, chinese := SplitByLanguage(text)

	var jobs []nerJob
	for _, c := range chunker.Split(english, e.englishNERChunk) {
		jobs = append(jobs, nerJob{lang: nlp.English, chunk: c})
	}
	for _, c := range chunker.Split(chinese, e.chineseNERChunk) {
		jobs = append(jobs, nerJob{lang: nlp.Chinese, chunk: c})
	}

	entities := common.NewEntitySet()
	if len(jobs) == 0 {
		return entities, nil
	}

	var mu sync.Mutex
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallel)

	for i, job := range jobs {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			recognizer := e.nlp.Recognizer(job.lang)
			raw, err := callModel(gCtx, e, func(ctx context.Context) ([]nlp.RawEntity, error) {
				return recognizer.Recognize(ctx, job.chunk)
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("[Extract] NER chunk failed, skipping", "lang", job.lang, "chunk", i, "err", err)
				return nil
			}

			local := common.NewEntitySet()
			for _, r := range raw {
				if word, label, ok := NormalizeEntity(r); ok {
					local.Add(word, label)
				}
			}

			mu.Lock()
			entities.Union(local)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("[Extract] Entities extracted", "chunks", len(jobs), "entities", len(entities))
	return entities, nil
}
