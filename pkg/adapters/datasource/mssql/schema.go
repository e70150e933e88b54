package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-export/pkg/logging"
)

// ListDatabases returns the database names visible to the login, trying
// ListDatabasesQueries in order. A query that fails or returns no rows
// falls through to the next one; when all of them come back empty the
// result is an empty list and no error.
func (e *QueryExecutor) ListDatabases(ctx context.Context, logger *zap.Logger) ([]string, error) {
	logger = logging.OrNop(logger)

	for i, query := range ListDatabasesQueries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		names, err := e.databaseNames(ctx, query)
		if err != nil {
			logger.Debug("Database list query failed, trying next",
				zap.Int("attempt", i+1),
				zap.String("query", logging.SanitizeQuery(query)),
				zap.Error(err))
			continue
		}
		if len(names) > 0 {
			return names, nil
		}
	}
	return []string{}, nil
}

func (e *QueryExecutor) databaseNames(ctx context.Context, query string) ([]string, error) {
	rs, err := e.Query(ctx, query)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rs.Rows))
	for _, row := range rs.Rows {
		if len(row) == 0 || row[0] == nil {
			continue
		}
		switch v := row[0].(type) {
		case string:
			names = append(names, v)
		case []byte:
			names = append(names, string(v))
		}
	}
	return names, nil
}
