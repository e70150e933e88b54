package export

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

func TestSummary(t *testing.T) {
	run := models.NewExportRun("DBHOST", "Farmacia", "/home/op/Exportacion_SQL", 3, time.Now())
	run.Record(models.Succeeded("Bancos", "bancos.txt", 1))
	run.Files = append(run.Files, models.ExportedFile{Job: "Bancos", Name: "bancos.txt", Rows: 1})
	run.Record(models.Failed("Marcas", "marcas.txt", errors.New("Invalid object name 'Marcas'.")))
	run.Skipped = append(run.Skipped, "Inventario")

	assert.Equal(t, []string{
		"Export finished with problems",
		"Tables: 1/3",
		"Rows: 1",
		"Location: /home/op/Exportacion_SQL",
		"  bancos.txt (1 record)",
		"  FAILED Marcas: Invalid object name 'Marcas'.",
		"  SKIPPED Inventario: not in catalog",
	}, Summary(run))
}

func TestSummary_Complete(t *testing.T) {
	run := models.NewExportRun("DBHOST", "Farmacia", "/tmp/out", 1, time.Now())
	run.Record(models.Succeeded("Usos", "usos.txt", 12))
	run.Files = append(run.Files, models.ExportedFile{Job: "Usos", Name: "usos.txt", Rows: 12})

	lines := Summary(run)
	assert.Equal(t, "Export completed", lines[0])
	assert.Contains(t, lines, "  usos.txt (12 records)")
}

func TestSummary_Nil(t *testing.T) {
	assert.Nil(t, Summary(nil))
}
