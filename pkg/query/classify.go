package query

import (
	"strings"
)

type IntentKind string

const (
	IntentUnknown    IntentKind = "unknown"
	IntentDefinition IntentKind = "definition"
	IntentRelation   IntentKind = "relation"
)

// Intent is a classified question. Subject is the entity phrase of a
// definition question or the first phrase of a relation question; Object is
// only set for relation questions.
type Intent struct {
	Kind    IntentKind `json:"kind"`
	Subject string     `json:"subject,omitempty"`
	Object  string     `json:"object,omitempty"`
}

const questionMarks = "？?"

var (
	definitionPrefixes = []string{"什么是", "what is ", "what's "}
	definitionSuffixes = []string{"是什么"}

	zhRelationMarkers = []string{"的关系", "有什么关系", "之间", "关系"}
	enRelationMarkers = []string{" relation", " between"}
)

// Classify tests for a definition question first, then a relation question.
// English questions naming both an and-token and "relation" are relation
// questions even when they start with "what is". Anything else, including
// questions whose phrase would be empty, is IntentUnknown.
func Classify(question string) Intent {
	q := strings.TrimSpace(question)
	trimmed := strings.TrimSpace(strings.TrimRight(q, questionMarks+" \t"))
	english := indexFold(q, " and ") >= 0 && indexFold(q, "relation") >= 0

	if phrase, ok := definitionPhrase(trimmed); ok && !english {
		if phrase == "" {
			return Intent{Kind: IntentUnknown}
		}
		return Intent{Kind: IntentDefinition, Subject: phrase}
	}

	if strings.Contains(q, "和") && strings.Contains(q, "关系") {
		return relationIntent(trimmed, "和", zhRelationMarkers, "")
	}
	if english {
		return relationIntent(trimmed, " and ", enRelationMarkers, "between ")
	}

	return Intent{Kind: IntentUnknown}
}

func definitionPhrase(q string) (string, bool) {
	for _, p := range definitionPrefixes {
		if hasPrefixFold(q, p) {
			return cleanPhrase(q[len(p):]), true
		}
	}
	for _, s := range definitionSuffixes {
		if strings.HasSuffix(q, s) {
			return cleanPhrase(strings.TrimSuffix(q, s)), true
		}
	}
	return "", false
}

// relationIntent splits q at the first and-token. The left phrase starts
// after lead when present ("what is the relation between A and B"); the
// right phrase ends at the earliest relation marker.
func relationIntent(q, and string, markers []string, lead string) Intent {
	i := indexFold(q, and)
	if i < 0 {
		return Intent{Kind: IntentUnknown}
	}
	left, right := q[:i], q[i+len(and):]

	if lead != "" {
		if j := lastIndexFold(left, lead); j >= 0 {
			left = left[j+len(lead):]
		}
	}

	cut := len(right)
	for _, m := range markers {
		if j := indexFold(right, m); j >= 0 && j < cut {
			cut = j
		}
	}
	right = right[:cut]

	subject, object := cleanPhrase(left), cleanPhrase(right)
	if subject == "" || object == "" {
		return Intent{Kind: IntentUnknown}
	}
	return Intent{Kind: IntentRelation, Subject: subject, Object: object}
}

func cleanPhrase(s string) string {
	return strings.TrimSpace(strings.Trim(strings.TrimSpace(s), questionMarks))
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// indexFold is strings.Index with ASCII case folding. Markers are ASCII or
// exact Chinese strings, so byte offsets stay valid in s.
func indexFold(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}

func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
