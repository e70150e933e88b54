package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	mssqldb "github.com/microsoft/go-mssqldb"

	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// Conn is the subset of *sql.Conn and *sql.DB the executor needs.
type Conn interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// QueryExecutor runs statements on one SQL Server connection.
type QueryExecutor struct {
	conn Conn
}

// NewQueryExecutor wraps conn. Pass a pinned *sql.Conn when statements such
// as USE must carry over to later queries.
func NewQueryExecutor(conn Conn) *QueryExecutor {
	return &QueryExecutor{conn: conn}
}

// Query runs sqlQuery and materializes every row. Text, decimal and money
// columns come back as strings, DATE and TIME columns as civil values;
// other values are left as the driver returned them. A batch yields its last result set.
func (e *QueryExecutor) Query(ctx context.Context, sqlQuery string) (*models.ResultSet, error) {
	rows, err := e.conn.QueryContext(ctx, sqlQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	result, err := readResultSet(rows)
	if err != nil {
		return nil, err
	}
	for rows.NextResultSet() {
		next, err := readResultSet(rows)
		if err != nil {
			return nil, err
		}
		if len(next.Columns) > 0 {
			result = next
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

func readResultSet(rows *sql.Rows) (*models.ResultSet, error) {
	columnNames, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	columnTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("failed to get column types: %w", err)
	}
	typeNames := make([]string, len(columnTypes))
	for i, ct := range columnTypes {
		typeNames[i] = strings.ToUpper(ct.DatabaseTypeName())
	}

	result := &models.ResultSet{Columns: columnNames, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(columnNames))
		valuePtrs := make([]any, len(columnNames))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		for i, val := range values {
			switch v := val.(type) {
			case []byte:
				values[i] = convertBytes(typeNames[i], v)
			case time.Time:
				values[i] = convertTime(typeNames[i], v)
			}
		}
		result.Rows = append(result.Rows, values)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return result, nil
}

// Exec runs a statement that returns no rows.
func (e *QueryExecutor) Exec(ctx context.Context, statement string) error {
	if _, err := e.conn.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("failed to execute statement: %w", err)
	}
	return nil
}

// UseDatabase switches the connection's current database.
func (e *QueryExecutor) UseDatabase(ctx context.Context, database string) error {
	return e.Exec(ctx, UseDatabaseStatement(database))
}

// convertBytes turns driver byte slices into their textual form where the
// column type says they are text. Unknown types keep their bytes.
func convertBytes(typeName string, b []byte) any {
	switch {
	case isStringType(typeName), isNumericTextType(typeName):
		return string(b)
	case typeName == "UNIQUEIDENTIFIER" && len(b) == 16:
		var id mssqldb.UniqueIdentifier
		if err := id.Scan(b); err == nil {
			return id.String()
		}
	}
	return b
}

// convertTime narrows DATE and TIME columns, which the driver hands back as
// time.Time, to the part the column actually stores.
func convertTime(typeName string, t time.Time) any {
	switch typeName {
	case "DATE":
		return civil.DateOf(t)
	case "TIME":
		return civil.TimeOf(t)
	}
	return t
}
