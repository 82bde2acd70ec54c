package models

// Column holds metadata for one table column as reported by ALL_TAB_COLUMNS.
type Column struct {
	Name      string `json:"name" yaml:"name"`
	DataType  string `json:"data_type" yaml:"data_type"`
	Length    int    `json:"length,omitempty" yaml:"length,omitempty"`
	Precision int    `json:"precision,omitempty" yaml:"precision,omitempty"`
	Scale     int    `json:"scale,omitempty" yaml:"scale,omitempty"`
	Nullable  bool   `json:"nullable" yaml:"nullable"`
	Default   string `json:"default,omitempty" yaml:"default,omitempty"`
	Comment   string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// PrimaryKey is one column of a table's primary key constraint.
type PrimaryKey struct {
	ColumnName string `json:"column_name" yaml:"column_name"`
	Position   int    `json:"position" yaml:"position"`
}

// ForeignKey is one foreign key relationship column.
type ForeignKey struct {
	ColumnName       string `json:"column_name" yaml:"column_name"`
	ReferencedOwner  string `json:"referenced_owner" yaml:"referenced_owner"`
	ReferencedTable  string `json:"referenced_table" yaml:"referenced_table"`
	ReferencedColumn string `json:"referenced_column" yaml:"referenced_column"`
	ConstraintName   string `json:"constraint_name" yaml:"constraint_name"`
}

// Table holds the full metadata for one table.
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Comment     string       `json:"comment,omitempty" yaml:"comment,omitempty"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	PrimaryKeys []PrimaryKey `json:"primary_keys,omitempty" yaml:"primary_keys,omitempty"`
	ForeignKeys []ForeignKey `json:"foreign_keys,omitempty" yaml:"foreign_keys,omitempty"`
}

// Schema is a complete snapshot of one schema's catalog metadata, taken at a
// single point in time. Tables are sorted by name.
type Schema struct {
	Name   string  `json:"name" yaml:"name"`
	Tables []Table `json:"tables" yaml:"tables"`
}

// Chunk is a bounded text unit derived from one table, sized for embedding.
// ID is deterministic given the chunk text, so rebuilding an unchanged schema
// produces the same IDs.
type Chunk struct {
	ID       string
	Table    string
	Part     int
	Text     string
	Metadata map[string]string
}

// QueryResult is the answer to one natural-language question together with
// the chunks that were retrieved as context. Created per query, not persisted.
type QueryResult struct {
	ID       string
	Question string
	Answer   string
	ChunkIDs []string
	Tables   []string
}

// SQLResult is the outcome of natural-language-to-SQL generation. An
// explanation is produced by a separate follow-up call.
type SQLResult struct {
	SQL      string
	Tables   []string
	ChunkIDs []string
}
