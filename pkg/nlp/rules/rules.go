// Package rules is a punctuation-based sentence segmenter. It does not tag
// entities or parse dependencies; it is used when no model server is
// configured for a language's parser slot.
package rules

import (
	"context"
	"strings"
	"unicode"

	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

// SentenceParser implements nlp.Parser without a dependency parse.
type SentenceParser struct {
	lang nlp.Language
}

func NewSentenceParser(lang nlp.Language) *SentenceParser {
	return &SentenceParser{lang: lang}
}

// Parse splits text into sentences. Blank lines always end a sentence.
func (p *SentenceParser) Parse(ctx context.Context, text string) ([]nlp.Sentence, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []string
	switch p.lang {
	case nlp.Chinese:
		raw = splitChinese(text)
	default:
		raw = splitEnglish(text)
	}

	sentences := make([]nlp.Sentence, 0, len(raw))
	for _, s := range raw {
		sentences = append(sentences, nlp.Sentence{Text: s})
	}
	return sentences, nil
}

func isTerminal(b byte) bool {
	return b == '.' || b == '!' || b == '?'
}

func splitEnglish(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		for _, part := range splitLineIntoSentences(trimmed) {
			if current.Len() > 0 {
				current.WriteString(" ")
			}
			current.WriteString(part)
			if isTerminal(part[len(part)-1]) {
				flush()
			}
		}
	}
	flush()

	return sentences
}

// splitLineIntoSentences cuts after ., ! or ? runs (plus closing quotes and
// brackets). A period after a digit followed by a space is a list marker
// ("1. First") and does not end the sentence.
func splitLineIntoSentences(line string) []string {
	var sentences []string
	var current strings.Builder

	for i := 0; i < len(line); i++ {
		current.WriteByte(line[i])

		if !isTerminal(line[i]) {
			continue
		}
		if line[i] == '.' && i > 0 && unicode.IsDigit(rune(line[i-1])) &&
			i+1 < len(line) && line[i+1] == ' ' {
			continue
		}

		j := i + 1
		for j < len(line) && isTerminal(line[j]) {
			current.WriteByte(line[j])
			j++
		}
		for j < len(line) && strings.IndexByte("\"')]}", line[j]) >= 0 {
			current.WriteByte(line[j])
			j++
		}

		sentence := strings.TrimSpace(current.String())
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		current.Reset()
		i = j - 1
	}

	remaining := strings.TrimSpace(current.String())
	if remaining != "" {
		sentences = append(sentences, remaining)
	}

	return sentences
}

func isChineseTerminal(r rune) bool {
	switch r {
	case '。', '！', '？', '；', '!', '?':
		return true
	}
	return false
}

func splitChinese(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		s := strings.TrimSpace(current.String())
		if s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\n' {
			flush()
			continue
		}
		current.WriteRune(r)
		if !isChineseTerminal(r) {
			continue
		}
		for i+1 < len(runes) && (isChineseTerminal(runes[i+1]) || runes[i+1] == '”' || runes[i+1] == '」') {
			i++
			current.WriteRune(runes[i])
		}
		flush()
	}
	flush()

	return sentences
}
