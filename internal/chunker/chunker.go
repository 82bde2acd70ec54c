// Package chunker turns a schema snapshot into bounded text chunks ready for
// embedding. Chunking is deterministic: the same snapshot always yields the
// same chunk IDs and texts, which makes rebuilds idempotent.
package chunker

import (
	"fmt"
	"strconv"
	"strings"

	"oracle-rag/internal/helper"
	"oracle-rag/internal/models"
)

// DefaultMaxChars bounds a chunk when no size is configured.
const DefaultMaxChars = 1000

type Chunker struct {
	maxChars int
}

func New(maxChars int) *Chunker {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	return &Chunker{maxChars: maxChars}
}

// Chunk produces one chunk per table, split into numbered parts when the
// rendered text exceeds the configured size. Tables arrive sorted from the
// extractor, so output order is stable.
func (c *Chunker) Chunk(schema *models.Schema) []models.Chunk {
	var chunks []models.Chunk
	for _, table := range schema.Tables {
		header := renderHeader(schema.Name, &table)
		body := renderBody(schema.Name, &table)
		for part, text := range c.split(header, body) {
			chunks = append(chunks, models.Chunk{
				ID:    chunkID(schema.Name, table.Name, part, text),
				Table: table.Name,
				Part:  part,
				Text:  text,
				Metadata: map[string]string{
					"kind":   "table",
					"schema": schema.Name,
					"table":  table.Name,
					"part":   strconv.Itoa(part),
				},
			})
		}
	}
	return chunks
}

func chunkID(schema, table string, part int, text string) string {
	return fmt.Sprintf("%s.%s#%d-%s", schema, table, part, helper.ContentHash(text))
}

// split packs body lines into parts so that header+lines stays within
// maxChars. A single oversized line still becomes its own part; the chunk
// size is a target, not a hard protocol limit.
func (c *Chunker) split(header string, body []string) []string {
	if len(body) == 0 {
		return []string{header}
	}

	var parts []string
	var current strings.Builder
	current.WriteString(header)
	for _, line := range body {
		if current.Len() > len(header) && current.Len()+len(line)+1 > c.maxChars {
			parts = append(parts, current.String())
			current.Reset()
			current.WriteString(header)
		}
		current.WriteString("\n")
		current.WriteString(line)
	}
	parts = append(parts, current.String())
	return parts
}

func renderHeader(schema string, t *models.Table) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Table: %s.%s", schema, t.Name)
	if t.Comment != "" {
		fmt.Fprintf(&b, "\nDescription: %s", t.Comment)
	}
	if len(t.PrimaryKeys) > 0 {
		cols := make([]string, len(t.PrimaryKeys))
		for i, pk := range t.PrimaryKeys {
			cols[i] = pk.ColumnName
		}
		fmt.Fprintf(&b, "\nPrimary Key: %s", strings.Join(cols, ", "))
	}
	return b.String()
}

func renderBody(schema string, t *models.Table) []string {
	var lines []string
	if len(t.Columns) > 0 {
		lines = append(lines, "Columns:")
		for _, col := range t.Columns {
			lines = append(lines, "  "+renderColumn(&col))
		}
	}
	if len(t.ForeignKeys) > 0 {
		lines = append(lines, "Relationships:")
		for _, fk := range t.ForeignKeys {
			lines = append(lines, fmt.Sprintf("  %s references %s.%s.%s (%s)",
				fk.ColumnName, fk.ReferencedOwner, fk.ReferencedTable, fk.ReferencedColumn, fk.ConstraintName))
		}
	}
	return lines
}

func renderColumn(col *models.Column) string {
	var b strings.Builder
	b.WriteString(col.Name)
	b.WriteString(" ")
	b.WriteString(typeSpec(col))
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Comment != "" {
		b.WriteString(" -- ")
		b.WriteString(col.Comment)
	}
	return b.String()
}

// typeSpec renders the column type the way Oracle DDL would show it.
func typeSpec(col *models.Column) string {
	switch {
	case col.Precision > 0:
		if col.Scale > 0 {
			return fmt.Sprintf("%s(%d,%d)", col.DataType, col.Precision, col.Scale)
		}
		return fmt.Sprintf("%s(%d)", col.DataType, col.Precision)
	case strings.Contains(col.DataType, "CHAR") && col.Length > 0:
		return fmt.Sprintf("%s(%d)", col.DataType, col.Length)
	default:
		return col.DataType
	}
}
