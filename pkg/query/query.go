// Package query answers definition and relation questions from the stored
// course graph.
package query

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
	"github.com/OFFIS-RIT/coursegraph/pkg/store"
)

const (
	NotFoundText     = "未找到相关信息"
	NoDefinitionText = "（暂无定义）"
	RelationPrefix   = "两者之间的关系是："
	UnanswerableText = "暂时无法回答这个问题"
)

// DefinitionalLabels are the edge labels that state what an entity is.
var DefinitionalLabels = []string{"是", "定义为", "refers_to", "defined_as", "叫做", "称为"}

// ExampleQuestions are offered to users of the QA interface.
var ExampleQuestions = []string{
	"什么是主成分分析？",
	"什么是数据降维？",
	"PCA和LDA有什么关系？",
	"K均值和层次聚类的关系？",
	"支持向量机是什么？",
}

// Answer is the result of one question. Definitions and Triples are set for
// definition questions, Labels for relation questions. Text is always set.
type Answer struct {
	Intent      Intent          `json:"intent"`
	Definitions []common.Entity `json:"definitions,omitempty"`
	Triples     []common.Triple `json:"triples,omitempty"`
	Labels      []string        `json:"labels,omitempty"`
	Text        string          `json:"text"`
}

// Answerer runs classified questions against a graph store. It only reads.
type Answerer struct {
	store store.GraphStorage
}

func NewAnswerer(s store.GraphStorage) (*Answerer, error) {
	if s == nil {
		return nil, errors.New("answerer needs a store")
	}
	return &Answerer{store: s}, nil
}

// Answer classifies question and looks it up. Questions that cannot be
// classified get UnanswerableText and no error; errors are store failures.
func (a *Answerer) Answer(ctx context.Context, question string) (Answer, error) {
	intent := Classify(question)
	logger.Debug("[Query] Classified question", "kind", intent.Kind, "subject", intent.Subject, "object", intent.Object)

	switch intent.Kind {
	case IntentDefinition:
		return a.define(ctx, intent)
	case IntentRelation:
		return a.relate(ctx, intent)
	}
	return Answer{Intent: intent, Text: UnanswerableText}, nil
}

func (a *Answerer) define(ctx context.Context, intent Intent) (Answer, error) {
	answer := Answer{Intent: intent}

	entities, err := a.store.FindEntitiesContaining(ctx, intent.Subject)
	if err != nil {
		return answer, fmt.Errorf("find entities: %w", err)
	}
	triples, err := a.store.FindRelationsFrom(ctx, intent.Subject, DefinitionalLabels)
	if err != nil {
		return answer, fmt.Errorf("find definitions: %w", err)
	}
	answer.Definitions = entities
	answer.Triples = triples

	if len(entities) == 0 {
		answer.Text = NotFoundText
		return answer, nil
	}
	lines := make([]string, 0, len(entities))
	for _, e := range entities {
		if e.Description != "" {
			lines = append(lines, e.Name+"："+e.Description)
		} else {
			lines = append(lines, e.Name+NoDefinitionText)
		}
	}
	answer.Text = strings.Join(lines, "\n")
	return answer, nil
}

func (a *Answerer) relate(ctx context.Context, intent Intent) (Answer, error) {
	answer := Answer{Intent: intent}

	labels, err := a.store.FindRelationLabels(ctx, intent.Subject, intent.Object)
	if err != nil {
		return answer, fmt.Errorf("find relation labels: %w", err)
	}
	answer.Labels = labels

	if len(labels) == 0 {
		answer.Text = NotFoundText
		return answer, nil
	}
	answer.Text = RelationPrefix + strings.Join(labels, "、")
	return answer, nil
}
