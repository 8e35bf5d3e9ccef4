// Package mapping derives ingestion column mappings from a discovered input schema.
package mapping

import (
	"strings"

	"github.com/shpitdev/polaris-autoingest/pkg/pipeline/schema"
)

// TimeColumn is the reserved name of a table's primary time column.
const TimeColumn = "__time"

// Column maps one target table column to a SQL expression over the input fields.
type Column struct {
	ColumnName string `json:"columnName"`
	Expression string `json:"expression"`
}

// Generate returns one Column per field, in schema order.
//
// The field named timestampField becomes TimeColumn, converted from epoch
// milliseconds. Every other field passes through under its own name.
func Generate(fields []schema.Field, timestampField string) []Column {
	out := make([]Column, 0, len(fields))
	for _, f := range fields {
		if f.Name == timestampField {
			out = append(out, Column{
				ColumnName: TimeColumn,
				Expression: "MILLIS_TO_TIMESTAMP(" + QuoteIdentifier(f.Name) + ")",
			})
			continue
		}
		out = append(out, Column{
			ColumnName: f.Name,
			Expression: QuoteIdentifier(f.Name),
		})
	}
	return out
}

// QuoteIdentifier wraps name in double quotes, doubling any embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

