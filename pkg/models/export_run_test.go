package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestExportRun_Record(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	run := NewExportRun("DBHOST", "Farmacia", "/tmp/out", 3, start)

	assert.NotEqual(t, uuid.Nil, run.ID)
	assert.Zero(t, run.Duration(), "not finished yet")

	run.Record(Succeeded("Bancos", "bancos.txt", 4))
	run.Record(Failed("Marcas", "marcas.txt", errors.New("Invalid object name 'InvMarca'.")))
	run.Record(Succeeded("Lineas", "lineas.txt", 0))

	assert.Equal(t, 3, run.Attempted)
	assert.Equal(t, 2, run.Succeeded)
	assert.Equal(t, 1, run.Failed)
	assert.Equal(t, 4, run.TotalRows)
	assert.Equal(t, "Invalid object name 'InvMarca'.", run.Results[1].Reason)
	assert.False(t, run.Complete())

	run.FinishedAt = start.Add(1500 * time.Millisecond)
	assert.Equal(t, 1500*time.Millisecond, run.Duration())
}

func TestExportRun_Complete(t *testing.T) {
	tests := []struct {
		name string
		edit func(r *ExportRun)
		want bool
	}{
		{
			name: "all succeeded",
			edit: func(r *ExportRun) {
				r.Record(Succeeded("A", "a.txt", 1))
				r.Record(Succeeded("B", "b.txt", 1))
			},
			want: true,
		},
		{
			name: "skipped job",
			edit: func(r *ExportRun) {
				r.Record(Succeeded("A", "a.txt", 1))
				r.Skipped = append(r.Skipped, "B")
			},
		},
		{
			name: "cancelled",
			edit: func(r *ExportRun) {
				r.Record(Succeeded("A", "a.txt", 1))
				r.Record(Succeeded("B", "b.txt", 1))
				r.Cancelled = true
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			run := NewExportRun("DBHOST", "Farmacia", "/tmp/out", 2, time.Now())
			tt.edit(run)
			assert.Equal(t, tt.want, run.Complete())
		})
	}
}

func TestFailed_NilError(t *testing.T) {
	r := Failed("A", "a.txt", nil)
	assert.False(t, r.OK())
	assert.Equal(t, "unknown error", r.Reason)
}
