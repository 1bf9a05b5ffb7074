package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nereiddb/nereid/gql/ir"
)

func writeQuery(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "query.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadQueryFile(t *testing.T) {
	path := writeQuery(t, `
nodes:
  - var: a
    labels: [Person]
  - var: b
relationships:
  - var: r
    start: a
    end: b
    types: [KNOWS]
selections:
  - compare: {entity: a, property: name, op: eq, value: Ada}
  - has_label: {node: b, label: City}
hints:
  - index: {var: a, label: Person, property: name}
arguments: [outer, other]
`)

	qg, err := loadQueryFile(path)
	require.NoError(t, err)

	assert.Len(t, qg.Nodes(), 2)
	assert.Len(t, qg.Relationships(), 1)
	assert.Len(t, qg.Selections(), 2)
	assert.Len(t, qg.Hints(), 1)
	assert.Equal(t, []ir.Variable{"other", "outer"}, qg.Arguments(),
		"every listed argument survives into the graph")

	rel := qg.Relationships()[0]
	assert.Equal(t, ir.DirectionOutgoing, rel.Direction)
	assert.True(t, rel.IsSimple())
}

func TestLoadQueryFileVarLength(t *testing.T) {
	path := writeQuery(t, `
nodes:
  - var: a
  - var: b
relationships:
  - var: r
    start: a
    end: b
    min_length: 1
    max_length: 3
`)

	qg, err := loadQueryFile(path)
	require.NoError(t, err)
	rel := qg.Relationships()[0]
	require.NotNil(t, rel.Length)
	assert.Equal(t, 1, rel.Length.Min)
	assert.Equal(t, 3, rel.Length.Max)
}

func TestLoadQueryFileOptionalMatch(t *testing.T) {
	path := writeQuery(t, `
nodes:
  - var: a
    labels: [Person]
optional:
  - nodes:
      - var: a
      - var: c
    relationships:
      - var: r2
        start: a
        end: c
`)

	qg, err := loadQueryFile(path)
	require.NoError(t, err)
	require.Len(t, qg.OptionalMatches(), 1)
	assert.Len(t, qg.OptionalMatches()[0].Relationships(), 1)
}

func TestLoadQueryFileRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing node var", "nodes:\n  - labels: [Person]\n"},
		{"dangling endpoint", `
nodes:
  - var: a
relationships:
  - var: r
    start: a
    end: ghost
`},
		{"unknown direction", `
nodes:
  - var: a
  - var: b
relationships:
  - var: r
    start: a
    end: b
    direction: sideways
`},
		{"unknown operator", `
nodes:
  - var: a
selections:
  - compare: {entity: a, property: p, op: "~=", value: 1}
`},
		{"empty hint", "nodes:\n  - var: a\nhints:\n  - {}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadQueryFile(writeQuery(t, tt.content))
			assert.Error(t, err)
		})
	}
}
