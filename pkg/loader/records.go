package loader

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EntityRecord is one element of a structured JSON import.
//
//	[{"name": "PCA", "type": "方法", "description": "...",
//	  "relations": [{"type": "related_to", "target": "LDA"}]}]
type EntityRecord struct {
	Name        string           `json:"name"`
	Type        string           `json:"type"`
	Description string           `json:"description,omitempty"`
	Relations   []RelationRecord `json:"relations,omitempty"`
}

type RelationRecord struct {
	Type   string `json:"type"`
	Target string `json:"target"`
}

// ParseEntityRecords decodes a JSON array of entity records. Every record
// must carry a name.
func ParseEntityRecords(data []byte) ([]EntityRecord, error) {
	var records []EntityRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode entity records: %w", err)
	}
	for i, r := range records {
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("entity record %d has no name", i)
		}
	}
	return records, nil
}

// TripleRow is one data row of a CSV triple import. Line is the 1-based
// line number in the source file, for reporting.
type TripleRow struct {
	Line     int
	Source   string
	Target   string
	Relation string
}

// Valid reports whether all three fields are present.
func (r TripleRow) Valid() bool {
	return r.Source != "" && r.Target != "" && r.Relation != ""
}
