package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/OFFIS-RIT/coursegraph/pkg/common"
)

// ErrInvalidLabel is returned for relation labels that cannot be stored as
// an edge type.
var ErrInvalidLabel = errors.New("invalid relation label")

// MaxLabelLength bounds relation labels in runes.
const MaxLabelLength = 128

// GraphStorage persists the entity graph. Entities are keyed by name and
// edges by (source, label, target); every write is a merge, so repeating it
// never duplicates data.
//
// Substring lookups are case sensitive and match anywhere in the name. An
// empty phrase matches every entity.
type GraphStorage interface {
	// Clear deletes every entity and relation.
	Clear(ctx context.Context) error

	// UpsertEntity creates the entity or overwrites its type. An empty
	// description keeps the stored one.
	UpsertEntity(ctx context.Context, entity common.Entity) error

	// MergeRelation creates the edge only if both endpoint entities already
	// exist. applied is false when an endpoint is missing.
	MergeRelation(ctx context.Context, triple common.Triple) (applied bool, err error)

	// MergeRelationWithEndpoints creates missing endpoint entities (with an
	// empty type) and then the edge.
	MergeRelationWithEndpoints(ctx context.Context, triple common.Triple) error

	// FindEntitiesContaining returns entities whose name contains phrase,
	// ordered by name.
	FindEntitiesContaining(ctx context.Context, phrase string) ([]common.Entity, error)

	// FindRelationLabels returns the distinct labels of edges whose source
	// name contains subjectPhrase and whose target name contains
	// objectPhrase, ordered by label.
	FindRelationLabels(ctx context.Context, subjectPhrase, objectPhrase string) ([]string, error)

	// FindRelationsFrom returns edges with one of labels whose source name
	// contains subjectPhrase.
	FindRelationsFrom(ctx context.Context, subjectPhrase string, labels []string) ([]common.Triple, error)

	// Relations returns every edge, for visualization.
	Relations(ctx context.Context) ([]common.Edge, error)

	Stats(ctx context.Context) (common.GraphStats, error)
	Close() error
}

// ValidateLabel rejects labels that are empty, too long, or contain
// backticks or control characters. Labels are otherwise free text, Chinese
// included.
func ValidateLabel(label string) error {
	if strings.TrimSpace(label) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidLabel)
	}
	if utf8.RuneCountInString(label) > MaxLabelLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidLabel, MaxLabelLength)
	}
	if !utf8.ValidString(label) {
		return fmt.Errorf("%w: not valid utf-8", ErrInvalidLabel)
	}
	for _, r := range label {
		if r == '`' || unicode.IsControl(r) {
			return fmt.Errorf("%w: %q", ErrInvalidLabel, label)
		}
	}
	return nil
}

// ValidateTriple checks that both endpoints are named and the label is valid.
func ValidateTriple(t common.Triple) error {
	if t.Subject == "" || t.Object == "" {
		return fmt.Errorf("relation %q has an empty endpoint", t.Label)
	}
	return ValidateLabel(t.Label)
}
