package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentHashStable(t *testing.T) {
	assert.Equal(t, ContentHash("Table: HR.EMPLOYEES"), ContentHash("Table: HR.EMPLOYEES"))
	assert.NotEqual(t, ContentHash("a"), ContentHash("b"))
	assert.Len(t, ContentHash("anything"), 12)
}

func TestGenerateUUID(t *testing.T) {
	a := GenerateUUID()
	b := GenerateUUID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}
