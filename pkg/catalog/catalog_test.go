package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_Shape(t *testing.T) {
	c := Default()

	assert.Equal(t, 20, c.Len())
	assert.Len(t, c.Group(GroupEntities), 9)
	assert.Len(t, c.Group(GroupRelations), 11)
	assert.Equal(t, []Group{GroupEntities, GroupRelations}, c.Groups())
}

func TestDefault_FileNamesUnique(t *testing.T) {
	seen := make(map[string]string)
	for _, job := range Default().Jobs() {
		file := job.FileName()
		other, dup := seen[file]
		require.False(t, dup, "%q and %q both map to %s", other, job.Name, file)
		seen[file] = job.Name
	}
	assert.Len(t, seen, 20)
}

func TestDefault_QueriesArePresent(t *testing.T) {
	for _, job := range Default().Jobs() {
		assert.NotEmpty(t, job.Query, job.Name)
		assert.NotContains(t, job.Query, "%", "queries are baked, not templated: %s", job.Name)
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		job      string
		expected string
	}{
		{"Bancos", "bancos.txt"},
		{"Forma de Pago", "forma_de_pago.txt"},
		{"Control Sanitario", "control_sanitario.txt"},
		{"Artículos", "artículos.txt"},
		{"Artículos - Categorías", "artículos___categorías.txt"},
		{"Artículos - Atributos (Medicina)", "artículos___atributos_medicina.txt"},
		{"Artículos - Atributos (Genérico)", "artículos___atributos_genérico.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.job, func(t *testing.T) {
			assert.Equal(t, tt.expected, FileName(tt.job))
		})
	}
}

func TestLookup(t *testing.T) {
	c := Default()

	job, ok := c.Lookup("Bancos")
	require.True(t, ok)
	assert.Equal(t, GroupEntities, job.Group)
	assert.Contains(t, job.Query, "FROM BanBanco")

	_, ok = c.Lookup("bancos")
	assert.False(t, ok, "lookup is exact")

	_, ok = c.Lookup("Inventario")
	assert.False(t, ok)
}

func TestNames_PreservesOrder(t *testing.T) {
	c := Default()

	all := c.Names()
	require.Len(t, all, 20)
	assert.Equal(t, "Artículos", all[0])
	assert.Equal(t, "Forma de Pago", all[8])
	assert.Equal(t, "Artículos - Categorías", all[9])
	assert.Equal(t, "Artículos - Atributos (Genérico)", all[19])

	relations := c.Names(GroupRelations)
	assert.Len(t, relations, 11)
	assert.Equal(t, "Artículos - Categorías", relations[0])
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name    string
		jobs    []Job
		wantErr string
	}{
		{
			name:    "empty name",
			jobs:    []Job{{Name: " ", Query: "SELECT 1"}},
			wantErr: "empty name",
		},
		{
			name:    "empty query",
			jobs:    []Job{{Name: "A", Query: ""}},
			wantErr: "empty query",
		},
		{
			name:    "duplicate name",
			jobs:    []Job{{Name: "A", Query: "SELECT 1"}, {Name: "A", Query: "SELECT 2"}},
			wantErr: "duplicate job name",
		},
		{
			name:    "write statement",
			jobs:    []Job{{Name: "A", Query: "DELETE FROM InvUso"}},
			wantErr: "must be a SELECT or WITH query",
		},
		{
			name:    "batch ending in a write",
			jobs:    []Job{{Name: "A", Query: "SELECT 1; DROP TABLE InvUso"}},
			wantErr: "must be a SELECT or WITH query",
		},
		{
			name:    "file name collision",
			jobs:    []Job{{Name: "Forma de Pago", Query: "SELECT 1"}, {Name: "Forma-de-Pago", Query: "SELECT 2"}},
			wantErr: "forma_de_pago.txt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.jobs...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNew_AcceptsBatches(t *testing.T) {
	c, err := New(
		Job{Name: "Bancos", Group: GroupEntities, Query: "SET NOCOUNT ON; SELECT Codigo FROM BanBanco;"},
		Job{Name: "Marcas", Group: GroupEntities, Query: "SELECT * INTO #t FROM InvMarca; SELECT * FROM #t"},
	)
	require.NoError(t, err)

	job, ok := c.Lookup("Bancos")
	require.True(t, ok)
	assert.Equal(t, "SET NOCOUNT ON; SELECT Codigo FROM BanBanco", job.Query)

	job, ok = c.Lookup("Marcas")
	require.True(t, ok)
	assert.Equal(t, "SELECT * INTO #t FROM InvMarca; SELECT * FROM #t", job.Query)
}

func TestParseGroup(t *testing.T) {
	g, err := ParseGroup(" Relations ")
	require.NoError(t, err)
	assert.Equal(t, GroupRelations, g)

	_, err = ParseGroup("masters")
	assert.Error(t, err)
}
