package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oracle-rag/internal/models"
)

func hrSchema() *models.Schema {
	return &models.Schema{
		Name: "HR",
		Tables: []models.Table{
			{
				Name:    "DEPARTMENTS",
				Comment: "Departments of the company",
				Columns: []models.Column{
					{Name: "DEPARTMENT_ID", DataType: "NUMBER", Precision: 4, Nullable: false},
					{Name: "DEPARTMENT_NAME", DataType: "VARCHAR2", Length: 30, Nullable: false},
				},
				PrimaryKeys: []models.PrimaryKey{{ColumnName: "DEPARTMENT_ID", Position: 1}},
			},
			{
				Name:    "EMPLOYEES",
				Comment: "All employees with compensation data",
				Columns: []models.Column{
					{Name: "EMPLOYEE_ID", DataType: "NUMBER", Precision: 6, Nullable: false},
					{Name: "LAST_NAME", DataType: "VARCHAR2", Length: 25, Nullable: false},
					{Name: "SALARY", DataType: "NUMBER", Precision: 8, Scale: 2, Nullable: true, Comment: "Monthly salary"},
					{Name: "DEPARTMENT_ID", DataType: "NUMBER", Precision: 4, Nullable: true},
				},
				PrimaryKeys: []models.PrimaryKey{{ColumnName: "EMPLOYEE_ID", Position: 1}},
				ForeignKeys: []models.ForeignKey{{
					ColumnName:       "DEPARTMENT_ID",
					ReferencedOwner:  "HR",
					ReferencedTable:  "DEPARTMENTS",
					ReferencedColumn: "DEPARTMENT_ID",
					ConstraintName:   "EMP_DEPT_FK",
				}},
			},
		},
	}
}

func TestChunkOnePerTable(t *testing.T) {
	chunks := New(1000).Chunk(hrSchema())
	require.Len(t, chunks, 2)

	assert.Equal(t, "DEPARTMENTS", chunks[0].Table)
	assert.Equal(t, "EMPLOYEES", chunks[1].Table)

	emp := chunks[1]
	assert.Contains(t, emp.Text, "Table: HR.EMPLOYEES")
	assert.Contains(t, emp.Text, "Primary Key: EMPLOYEE_ID")
	assert.Contains(t, emp.Text, "SALARY NUMBER(8,2) -- Monthly salary")
	assert.Contains(t, emp.Text, "DEPARTMENT_ID references HR.DEPARTMENTS.DEPARTMENT_ID (EMP_DEPT_FK)")
	assert.Equal(t, "EMPLOYEES", emp.Metadata["table"])
	assert.Equal(t, "HR", emp.Metadata["schema"])
	assert.True(t, strings.HasPrefix(emp.ID, "HR.EMPLOYEES#0-"))
}

func TestChunkDeterministic(t *testing.T) {
	first := New(1000).Chunk(hrSchema())
	second := New(1000).Chunk(hrSchema())
	assert.Equal(t, first, second)
}

func TestChunkContentChangesID(t *testing.T) {
	base := New(1000).Chunk(hrSchema())

	changed := hrSchema()
	changed.Tables[1].Columns[2].Comment = "Annual salary"
	after := New(1000).Chunk(changed)

	assert.NotEqual(t, base[1].ID, after[1].ID)
	assert.Equal(t, base[0].ID, after[0].ID)
}

func TestChunkSplitsOversizeTable(t *testing.T) {
	chunks := New(120).Chunk(hrSchema())

	var empParts []models.Chunk
	for _, c := range chunks {
		if c.Table == "EMPLOYEES" {
			empParts = append(empParts, c)
		}
	}
	require.Greater(t, len(empParts), 1)

	seen := make(map[string]bool)
	for i, part := range empParts {
		assert.Equal(t, i, part.Part)
		assert.Contains(t, part.Text, "Table: HR.EMPLOYEES")
		assert.False(t, seen[part.ID], "chunk IDs must be unique")
		seen[part.ID] = true
	}
}

func TestTypeSpec(t *testing.T) {
	cases := []struct {
		col  models.Column
		want string
	}{
		{models.Column{DataType: "NUMBER", Precision: 8, Scale: 2}, "NUMBER(8,2)"},
		{models.Column{DataType: "NUMBER", Precision: 6}, "NUMBER(6)"},
		{models.Column{DataType: "VARCHAR2", Length: 30}, "VARCHAR2(30)"},
		{models.Column{DataType: "DATE"}, "DATE"},
		{models.Column{DataType: "CLOB", Length: 4000}, "CLOB"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, typeSpec(&tc.col))
	}
}
