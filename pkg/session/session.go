// Package session owns the single live SQL Server connection of the
// application and enforces which operations are valid in which state.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource/mssql"
	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-export/pkg/logging"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// State is a session lifecycle state.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
	DatabaseSelected
	Exporting
	Closed
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	case DatabaseSelected:
		return "database_selected"
	case Exporting:
		return "exporting"
	case Closed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateError reports an operation attempted in a state that does not allow it.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s not allowed while %s", e.Op, e.State)
}

func (e *StateError) Unwrap() error {
	return apperrors.ErrInvalidState
}

// Session wraps one pinned connection. All methods are safe for concurrent
// use, but statements run one at a time.
type Session struct {
	connector datasource.Connector
	logger    *zap.Logger

	mu       sync.Mutex
	state    State
	endpoint models.Endpoint
	database string
	db       *sql.DB
	conn     *sql.Conn
	exec     *mssql.QueryExecutor
}

// New creates a disconnected session.
func New(connector datasource.Connector, logger *zap.Logger) *Session {
	return &Session{
		connector: connector,
		logger:    logging.OrNop(logger).Named("session"),
		state:     Disconnected,
	}
}

// State returns the current state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Endpoint returns the connected endpoint, empty when disconnected.
func (s *Session) Endpoint() models.Endpoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endpoint
}

// Database returns the selected database, empty until one is selected.
func (s *Session) Database() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.database
}

// Connect establishes the session. It is only valid while Disconnected;
// on failure the session stays Disconnected and the error is an
// *apperrors.ConnectionError.
func (s *Session) Connect(ctx context.Context, endpoint models.Endpoint, creds models.Credentials, timeout time.Duration) error {
	s.mu.Lock()
	if s.state != Disconnected {
		state := s.state
		s.mu.Unlock()
		return &StateError{Op: "connect", State: state}
	}
	s.state = Connecting
	s.mu.Unlock()

	start := time.Now()
	db, conn, err := s.open(ctx, endpoint, creds, timeout)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connecting {
		// Closed while the login was in flight.
		if conn != nil {
			_ = conn.Close()
		}
		if db != nil {
			_ = db.Close()
		}
		return &StateError{Op: "connect", State: s.state}
	}

	if err != nil {
		s.state = Disconnected
		s.logger.Info("Connection failed",
			zap.String("endpoint", endpoint.String()),
			zap.String("auth", string(creds.Mode())),
			zap.String("error", logging.SanitizeError(err)))
		return err
	}

	s.db = db
	s.conn = conn
	s.exec = mssql.NewQueryExecutor(conn)
	s.endpoint = endpoint
	s.database = ""
	s.state = Connected

	s.logger.Info("Connected",
		zap.String("endpoint", endpoint.String()),
		zap.String("auth", string(creds.Mode())),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// open connects and pins one physical connection so that the database
// selected with USE applies to every later statement.
func (s *Session) open(ctx context.Context, endpoint models.Endpoint, creds models.Credentials, timeout time.Duration) (*sql.DB, *sql.Conn, error) {
	db, err := s.connector.Connect(ctx, endpoint, creds, timeout)
	if err != nil {
		return nil, nil, err
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, &apperrors.ConnectionError{
			Kind:     apperrors.ConnectionErrorOther,
			Endpoint: endpoint.String(),
			Err:      fmt.Errorf("reserve connection: %w", err),
		}
	}
	return db, conn, nil
}

// ListDatabases returns the databases visible to the login. An empty list
// is not an error.
func (s *Session) ListDatabases(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected && s.state != DatabaseSelected {
		return nil, &StateError{Op: "list databases", State: s.state}
	}

	names, err := s.exec.ListDatabases(ctx, s.logger)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Listed databases", zap.Int("count", len(names)))
	return names, nil
}

// SelectDatabase makes name the current database. On failure the previous
// state and selection are kept and the error is an *apperrors.SelectionError.
func (s *Session) SelectDatabase(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != Connected && s.state != DatabaseSelected {
		return &StateError{Op: "select database", State: s.state}
	}
	if strings.TrimSpace(name) == "" {
		return &apperrors.SelectionError{Database: name, Err: fmt.Errorf("database name is empty")}
	}

	if err := s.exec.UseDatabase(ctx, name); err != nil {
		s.logger.Info("Database selection failed",
			zap.String("database", name),
			zap.String("error", logging.SanitizeError(err)))
		return &apperrors.SelectionError{Database: name, Err: err}
	}

	s.database = name
	s.state = DatabaseSelected
	s.logger.Info("Database selected", zap.String("database", name))
	return nil
}

// Execute runs query against the selected database and returns every row.
func (s *Session) Execute(ctx context.Context, query string) (*models.ResultSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != DatabaseSelected && s.state != Exporting {
		return nil, &StateError{Op: "execute", State: s.state}
	}
	return s.exec.Query(ctx, query)
}

// BeginExport marks the session as borrowed by an export run. Only one run
// may hold it; the returned release func hands it back and may be called
// more than once.
func (s *Session) BeginExport() (release func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case DatabaseSelected:
	case Exporting:
		return nil, apperrors.ErrExportInProgress
	default:
		return nil, &StateError{Op: "export", State: s.state}
	}

	s.state = Exporting
	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.state == Exporting {
				s.state = DatabaseSelected
			}
		})
	}, nil
}

// Close releases the connection. It can be called in any state, any number
// of times, and never fails; release errors are only logged.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	s.state = Closed
	return nil
}

// Reset closes the session and returns it to Disconnected so a new
// endpoint can be chosen.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeLocked()
	s.state = Disconnected
}

func (s *Session) closeLocked() {
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.logger.Debug("Failed to release connection", zap.Error(err))
		}
	}
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Debug("Failed to close database handle", zap.Error(err))
		}
		s.logger.Info("Disconnected", zap.String("endpoint", s.endpoint.String()))
	}

	s.conn = nil
	s.db = nil
	s.exec = nil
	s.endpoint = ""
	s.database = ""
}
