// Package export renders roster records as CSV downloads. Columns are the
// built-in person attributes followed by the caller-visible profile fields in
// display order, so two exports by the same role always line up.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/steeplehq/steeple/internal/model"
)

var baseHeader = []string{"id", "name", "email", "phone", "status", "created_at"}

// PeopleCSV writes one row per person. defs must already be filtered to what
// the caller's role may see; their keys become the trailing columns.
func PeopleCSV(w io.Writer, people []model.Person, defs []model.FieldDef) error {
	cw := csv.NewWriter(w)

	header := append([]string(nil), baseHeader...)
	for _, d := range defs {
		header = append(header, d.Key)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, p := range people {
		row := []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			p.Email,
			p.Phone,
			p.Status,
			p.CreatedAt.Format(time.RFC3339),
		}
		for _, d := range defs {
			row = append(row, cellValue(p.Fields[d.Key]))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// cellValue renders a stored field value as a single cell. Multi-select
// values are semicolon-joined; a missing value is an empty cell.
func cellValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case []string:
		return strings.Join(val, "; ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, cellValue(item))
		}
		return strings.Join(parts, "; ")
	default:
		return fmt.Sprintf("%v", val)
	}
}
