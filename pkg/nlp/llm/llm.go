// Package llm tags entities with a chat model when no token-classification
// server is available.
package llm

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/coursegraph/pkg/ai"
	"github.com/OFFIS-RIT/coursegraph/pkg/nlp"
)

type entityResponse struct {
	Entities []entityItem `json:"entities"`
}

type entityItem struct {
	Word        string `json:"word"`
	EntityGroup string `json:"entity_group"`
}

// Recognizer implements nlp.Recognizer on top of an ai.GraphAIClient.
type Recognizer struct {
	client ai.GraphAIClient
	opts   []ai.GenerateOption
}

func NewRecognizer(client ai.GraphAIClient, opts ...ai.GenerateOption) *Recognizer {
	return &Recognizer{client: client, opts: opts}
}

// Recognize returns one aggregated span per entity the model reports.
func (r *Recognizer) Recognize(ctx context.Context, text string) ([]nlp.RawEntity, error) {
	var resp entityResponse
	prompt := fmt.Sprintf(ai.EntityPrompt, text)
	if err := r.client.GenerateCompletionWithFormat(
		ctx,
		"entities",
		"Named entities found in the text",
		prompt,
		&resp,
		r.opts...,
	); err != nil {
		return nil, fmt.Errorf("llm entity recognition: %w", err)
	}

	out := make([]nlp.RawEntity, 0, len(resp.Entities))
	for _, e := range resp.Entities {
		out = append(out, nlp.RawEntity{
			Word:        e.Word,
			EntityGroup: e.EntityGroup,
		})
	}
	return out, nil
}
