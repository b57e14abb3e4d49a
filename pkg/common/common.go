package common

import (
	"sort"
)

// Entity represents a node in the graph. The Name is the identity key: two
// entities with the same name are the same node, regardless of Type.
//
// Type is overwritten on every merge (last write wins). Description is only
// populated by structured imports and is used to answer definition questions.
type Entity struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// Triple is a directed, labeled edge between two entities. An edge is
// uniquely identified by all three fields.
type Triple struct {
	Subject string `json:"subject"`
	Label   string `json:"relation"`
	Object  string `json:"object"`
}

// Edge is a stored relationship as returned by the graph store, used by
// visualization and listing endpoints.
type Edge struct {
	Source string `json:"source"`
	Label  string `json:"relation"`
	Target string `json:"target"`
}

// GraphStats summarises the size of a stored graph.
type GraphStats struct {
	Entities  int64 `json:"entities"`
	Relations int64 `json:"relations"`
}

// EntityKey is the (name, type) pair produced by entity extraction. Two keys
// are equal when both fields are equal, which is what deduplicates extractor
// output before it reaches the store.
type EntityKey struct {
	Name string
	Type string
}

// EntitySet is a hash set of extracted (name, type) pairs.
type EntitySet map[EntityKey]struct{}

// NewEntitySet returns an empty EntitySet.
func NewEntitySet() EntitySet {
	return make(EntitySet)
}

// Add inserts the pair into the set.
func (s EntitySet) Add(name, typ string) {
	s[EntityKey{Name: name, Type: typ}] = struct{}{}
}

// Union adds every element of other to s.
func (s EntitySet) Union(other EntitySet) {
	for k := range other {
		s[k] = struct{}{}
	}
}

// Contains reports whether the pair is in the set.
func (s EntitySet) Contains(name, typ string) bool {
	_, ok := s[EntityKey{Name: name, Type: typ}]
	return ok
}

// Sorted returns the set elements ordered by name, then type.
func (s EntitySet) Sorted() []EntityKey {
	out := make([]EntityKey, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Type < out[j].Type
	})
	return out
}

// TripleSet is a hash set of relation triples.
type TripleSet map[Triple]struct{}

// NewTripleSet returns an empty TripleSet.
func NewTripleSet() TripleSet {
	return make(TripleSet)
}

// Add inserts the triple into the set.
func (s TripleSet) Add(t Triple) {
	s[t] = struct{}{}
}

// AddAll inserts every triple of ts into the set.
func (s TripleSet) AddAll(ts []Triple) {
	for _, t := range ts {
		s[t] = struct{}{}
	}
}

// Contains reports whether the triple is in the set.
func (s TripleSet) Contains(t Triple) bool {
	_, ok := s[t]
	return ok
}

// Sorted returns the set elements ordered by subject, label, then object.
func (s TripleSet) Sorted() []Triple {
	out := make([]Triple, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Subject != out[j].Subject {
			return out[i].Subject < out[j].Subject
		}
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].Object < out[j].Object
	})
	return out
}
