package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/microsoft/go-mssqldb" // SQL Server driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-export/pkg/logging"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// Options are the connection settings shared by every connection a
// Connector opens.
type Options struct {
	Encrypt                string
	TrustServerCertificate bool
	AppName                string

	// ResolveHost rewrites the parsed host before dialing; nil keeps it.
	ResolveHost func(host string) string
}

// Connector opens single-connection SQL Server handles.
type Connector struct {
	opts   Options
	logger *zap.Logger

	// open is sql.Open; tests replace it to avoid a live server.
	open func(driverName, dsn string) (*sql.DB, error)
}

// NewConnector creates a SQL Server connector.
func NewConnector(opts Options, logger *zap.Logger) *Connector {
	return &Connector{
		opts:   opts,
		logger: logging.OrNop(logger).Named("mssql"),
		open:   sql.Open,
	}
}

// Connect opens a handle to endpoint and verifies the login with a ping.
// The handle is limited to one physical connection so that statements such
// as USE keep applying to every later query. Failures are returned as
// *apperrors.ConnectionError.
func (c *Connector) Connect(ctx context.Context, endpoint models.Endpoint, creds models.Credentials, timeout time.Duration) (*sql.DB, error) {
	target, err := ParseEndpoint(endpoint)
	if err != nil {
		return nil, &apperrors.ConnectionError{Kind: apperrors.ConnectionErrorOther, Endpoint: endpoint.String(), Err: err}
	}
	if err := creds.Validate(); err != nil {
		return nil, &apperrors.ConnectionError{Kind: apperrors.ConnectionErrorOther, Endpoint: endpoint.String(), Err: err}
	}
	if c.opts.ResolveHost != nil {
		target.Host = c.opts.ResolveHost(target.Host)
	}

	cfg := &Config{
		Target:                 target,
		Credentials:            creds,
		Encrypt:                c.opts.Encrypt,
		TrustServerCertificate: c.opts.TrustServerCertificate,
		ConnectionTimeout:      timeout,
		AppName:                c.opts.AppName,
	}
	dsn := cfg.ConnectionString()

	c.logger.Debug("Opening SQL Server connection",
		zap.String("endpoint", endpoint.String()),
		zap.String("auth", string(creds.Mode())),
		zap.String("dsn", logging.SanitizeConnectionString(dsn)),
		zap.Duration("timeout", timeout))

	db, err := c.open(DriverName, dsn)
	if err != nil {
		return nil, c.connectionError(endpoint, fmt.Errorf("open connection: %w", err))
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, c.connectionError(endpoint, fmt.Errorf("connection test failed: %w", err))
	}

	return db, nil
}

func (c *Connector) connectionError(endpoint models.Endpoint, err error) error {
	kind := ClassifyError(err)
	c.logger.Debug("SQL Server connection failed",
		zap.String("endpoint", endpoint.String()),
		zap.Stringer("kind", kind),
		zap.String("error", logging.SanitizeError(err)))
	return &apperrors.ConnectionError{Kind: kind, Endpoint: endpoint.String(), Err: err}
}

// Prober checks reachability with a short integrated-auth login attempt.
type Prober struct {
	connector *Connector
	timeout   time.Duration
}

// NewProber creates a prober that gives each endpoint timeout to answer.
func NewProber(connector *Connector, timeout time.Duration) *Prober {
	return &Prober{connector: connector, timeout: timeout}
}

// Probe reports Reachable when the login succeeds or the server rejects the
// credentials. Network, timeout, TLS and any other failure is Unreachable.
func (p *Prober) Probe(ctx context.Context, endpoint models.Endpoint) datasource.Reachability {
	db, err := p.connector.Connect(ctx, endpoint, models.Integrated(), p.timeout)
	if err == nil {
		_ = db.Close()
		return datasource.Reachable
	}

	var connErr *apperrors.ConnectionError
	if errors.As(err, &connErr) && connErr.Kind == apperrors.ConnectionErrorAuthenticationFailed {
		return datasource.Reachable
	}
	return datasource.Unreachable
}

// Ensure interfaces are implemented at compile time.
var (
	_ datasource.Connector = (*Connector)(nil)
	_ datasource.Prober    = (*Prober)(nil)
)
