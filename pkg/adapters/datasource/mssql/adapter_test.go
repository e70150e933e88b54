package mssql

import (
	"context"
	"database/sql"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	mssqldb "github.com/microsoft/go-mssqldb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// newTestConnector returns a connector whose open func hands out a sqlmock
// handle and records the DSN it was asked for.
func newTestConnector(t *testing.T) (*Connector, sqlmock.Sqlmock, *string) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var gotDSN string
	c := NewConnector(Options{Encrypt: "disable", TrustServerCertificate: true, AppName: "ekaya-export"}, zaptest.NewLogger(t))
	c.open = func(driverName, dsn string) (*sql.DB, error) {
		assert.Equal(t, DriverName, driverName)
		gotDSN = dsn
		return db, nil
	}
	return c, mock, &gotDSN
}

func TestConnector_Connect_Success(t *testing.T) {
	c, mock, dsn := newTestConnector(t)
	mock.ExpectPing()

	db, err := c.Connect(context.Background(), `DBHOST\SQLEXPRESS`, models.Explicit("reader", "secret"), 10*time.Second)
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, 1, db.Stats().MaxOpenConnections)

	u, err := url.Parse(*dsn)
	require.NoError(t, err)
	assert.Equal(t, "DBHOST", u.Host)
	assert.Equal(t, "/SQLEXPRESS", u.Path)
	assert.Equal(t, "reader", u.User.Username())
	assert.Equal(t, "10", u.Query().Get("connection timeout"))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_Connect_ResolvesHost(t *testing.T) {
	c, mock, dsn := newTestConnector(t)
	c.opts.ResolveHost = func(host string) string {
		if host == "localhost" {
			return "host.docker.internal"
		}
		return host
	}
	mock.ExpectPing()

	_, err := c.Connect(context.Background(), `.\SQLEXPRESS`, models.Integrated(), time.Second)
	require.NoError(t, err)

	u, err := url.Parse(*dsn)
	require.NoError(t, err)
	assert.Equal(t, "host.docker.internal", u.Host)
	assert.Nil(t, u.User)
}

func TestConnector_Connect_LoginFailed(t *testing.T) {
	c, mock, _ := newTestConnector(t)
	mock.ExpectPing().WillReturnError(mssqldb.Error{Number: 18456, Message: "Login failed for user 'reader'."})
	mock.ExpectClose()

	_, err := c.Connect(context.Background(), "DBHOST", models.Explicit("reader", "hunter2"), time.Second)
	require.Error(t, err)

	var connErr *apperrors.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, apperrors.ConnectionErrorAuthenticationFailed, connErr.Kind)
	assert.Equal(t, "DBHOST", connErr.Endpoint)
	assert.NotContains(t, err.Error(), "hunter2", "password never appears in the error")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConnector_Connect_InvalidEndpoint(t *testing.T) {
	c, _, dsn := newTestConnector(t)

	_, err := c.Connect(context.Background(), "  ", models.Integrated(), time.Second)

	var connErr *apperrors.ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.Equal(t, apperrors.ConnectionErrorOther, connErr.Kind)
	assert.Empty(t, *dsn, "nothing is opened for an invalid endpoint")
}

func TestConnector_Connect_InvalidCredentials(t *testing.T) {
	c, _, dsn := newTestConnector(t)

	_, err := c.Connect(context.Background(), "DBHOST", models.Explicit("reader", ""), time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	assert.Empty(t, *dsn)
}

func TestProber_Probe(t *testing.T) {
	tests := []struct {
		name     string
		pingErr  error
		expected datasource.Reachability
	}{
		{name: "login succeeds", pingErr: nil, expected: datasource.Reachable},
		{name: "login rejected", pingErr: mssqldb.Error{Number: 18456, Message: "Login failed"}, expected: datasource.Reachable},
		{name: "timeout", pingErr: context.DeadlineExceeded, expected: datasource.Unreachable},
		{name: "network", pingErr: errors.New("unable to open tcp connection with host 'x:1433'"), expected: datasource.Unreachable},
		{name: "generic", pingErr: errors.New("TLS Handshake failed"), expected: datasource.Unreachable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock, dsn := newTestConnector(t)
			ping := mock.ExpectPing()
			if tt.pingErr != nil {
				ping.WillReturnError(tt.pingErr)
			}
			mock.ExpectClose()

			p := NewProber(c, 2*time.Second)
			assert.Equal(t, tt.expected, p.Probe(context.Background(), "DBHOST"))

			u, err := url.Parse(*dsn)
			require.NoError(t, err)
			assert.Nil(t, u.User, "probes use integrated authentication")
			assert.Equal(t, "2", u.Query().Get("connection timeout"))
		})
	}
}
