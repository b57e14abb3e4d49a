package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/OFFIS-RIT/coursegraph/pkg/loader"
	"github.com/OFFIS-RIT/coursegraph/pkg/logger"
)

// RequiredColumns must all be present in the header, in any order.
var RequiredColumns = []string{"source", "target", "relation"}

// ParseTripleRows reads a CSV triple table. The header is matched case- and
// whitespace-insensitively; extra columns are ignored. Rows that are short,
// unparsable, or have an empty required field are still returned so the
// caller can count them (TripleRow.Valid reports false). Blank lines are
// dropped.
func ParseTripleRows(content []byte) ([]loader.TripleRow, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty file", loader.ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", loader.ErrMissingColumns, strings.Join(missing, ", "))
	}

	field := func(record []string, col string) string {
		i := index[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var rows []loader.TripleRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				logger.Warn("[CSV] Unparsable row", "line", perr.StartLine, "err", perr.Err)
				rows = append(rows, loader.TripleRow{Line: perr.StartLine})
				continue
			}
			return nil, fmt.Errorf("read csv: %w", err)
		}
		if isBlank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, loader.TripleRow{
			Line:     line,
			Source:   field(record, "source"),
			Target:   field(record, "target"),
			Relation: field(record, "relation"),
		})
	}

	return rows, nil
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
