package export

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-export/pkg/catalog"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
	"github.com/ekaya-inc/ekaya-export/pkg/session"
)

type mockConnector struct {
	db *sql.DB
}

func (m mockConnector) Connect(context.Context, models.Endpoint, models.Credentials, time.Duration) (*sql.DB, error) {
	return m.db, nil
}

// TestRun_BancosThroughSession drives the built-in Bancos job through a real
// session backed by sqlmock.
func TestRun_BancosThroughSession(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess := session.New(mockConnector{db: db}, zaptest.NewLogger(t))
	require.NoError(t, sess.Connect(ctx, "DBHOST", models.Integrated(), time.Second))

	mock.ExpectExec("USE [Farmacia]").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, sess.SelectDatabase(ctx, "Farmacia"))

	bancos, ok := catalog.Default().Lookup("Bancos")
	require.True(t, ok)

	mock.ExpectQuery(bancos.Query).WillReturnRows(mock.NewRowsWithColumnDefinition(
		mock.NewColumn("Codigo").OfType("NVARCHAR", ""),
		mock.NewColumn("Descripcion").OfType("NVARCHAR", ""),
		mock.NewColumn("Nombre").OfType("NVARCHAR", ""),
		mock.NewColumn("tipoConfiguracion").OfType("INT", int64(0)),
		mock.NewColumn("estado").OfType("BIT", false),
	).AddRow("01", "Banco del Austro", "Austro Cía.", int64(2), true))

	dir := t.TempDir()
	run, err := New(nil, zaptest.NewLogger(t)).Run(ctx, sess, Request{Jobs: []string{"Bancos"}, OutputDir: dir}, nil)
	require.NoError(t, err)
	assert.True(t, run.Complete())
	assert.Equal(t, session.DatabaseSelected, sess.State(), "session returned after the run")

	data, err := os.ReadFile(filepath.Join(dir, "bancos.txt"))
	require.NoError(t, err)
	assert.Equal(t, "01;Banco del Austro;Austro Cia.;2;True\n", string(data))

	assert.NoError(t, mock.ExpectationsWereMet())
}
