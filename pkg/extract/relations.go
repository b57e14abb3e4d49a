package extract

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/OFFIS-RIT/coursegraph/pkg/chunker"
	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

// ExtractRelations runs the English and Chinese engines over the whole text
// and returns the union of their triples. Regex and dependency triples for
// the same sentence are not reconciled.
func (e *Extractor) ExtractRelations(ctx context.Context, text string) (common.TripleSet, error) {
	triples := common.NewTripleSet()
	lines := strings.Split(text, "\n")

	if err := e.runEngine(ctx, nlp.English, chunker.Split(lines, e.englishRelChunk), func(s nlp.Sentence) {
		triples.AddAll(e.englishSentenceRelations(s))
	}); err != nil {
		return nil, err
	}
	if err := e.runEngine(ctx, nlp.Chinese, chunker.Split(lines, e.chineseRelChunk), func(s nlp.Sentence) {
		triples.AddAll(e.chineseSentenceRelations(s))
	}); err != nil {
		return nil, err
	}

	logger.Debug("[Extract] Relations extracted", "relations", len(triples))
	return triples, nil
}

// runEngine segments each chunk in order and hands every sentence to visit.
// A chunk the parser cannot handle is logged and skipped.
func (e *Extractor) runEngine(
	ctx context.Context,
	lang nlp.Language,
	chunks []string,
	visit func(nlp.Sentence),
) error {
	parser := e.nlp.Parser(lang)
	for i, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		sentences, err := callModel(ctx, e, func(ctx context.Context) ([]nlp.Sentence, error) {
			return parser.Parse(ctx, chunk)
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Warn("[Extract] Sentence parse failed, skipping chunk", "lang", lang, "chunk", i, "err", err)
			continue
		}
		for _, s := range sentences {
			visit(s)
		}
	}
	return nil
}

func (e *Extractor) englishSentenceRelations(s nlp.Sentence) []common.Triple {
	var out []common.Triple

	lower := strings.ToLower(strings.TrimSpace(s.Text))
	if m, ok := e.englishRules.FirstMatch(lower); ok {
		subj := Capitalize(strings.Trim(m.Subject, " ."))
		obj := Capitalize(strings.Trim(m.Object, " ."))
		if utf8.RuneCountInString(subj) > 1 && utf8.RuneCountInString(obj) > 1 {
			out = append(out, common.Triple{Subject: subj, Label: m.Label, Object: obj})
		}
	}

	return append(out, DependencyRelations(s)...)
}

// DependencyRelations emits (subject, label, object) for every nominal
// subject of a use/apply/enforce head that has a direct object or attribute
// to its right. Only the first such dependent is used.
func DependencyRelations(s nlp.Sentence) []common.Triple {
	var out []common.Triple
	for _, tok := range s.Tokens {
		if tok.Dep != "nsubj" || tok.Head < 0 || tok.Head >= len(s.Tokens) {
			continue
		}
		head := s.Tokens[tok.Head]
		label, ok := dependencyVerbs[head.Lemma]
		if !ok {
			continue
		}
		for _, right := range s.Rights(tok.Head) {
			if dependencyObjectDeps[right.Dep] {
				out = append(out, common.Triple{Subject: tok.Text, Label: label, Object: right.Text})
				break
			}
		}
	}
	return out
}

func (e *Extractor) chineseSentenceRelations(s nlp.Sentence) []common.Triple {
	m, ok := e.chineseRules.FirstMatch(strings.TrimSpace(s.Text))
	if !ok {
		return nil
	}
	subj := strings.TrimSpace(m.Subject)
	obj := strings.Trim(m.Object, "。")
	if utf8.RuneCountInString(subj) <= 1 || utf8.RuneCountInString(obj) <= 1 {
		return nil
	}
	return []common.Triple{{Subject: subj, Label: m.Label, Object: obj}}
}

// Capitalize upper-cases the first rune and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
}
