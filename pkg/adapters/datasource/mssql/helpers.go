package mssql

import (
	"fmt"
	"strings"
)

// ListDatabasesQueries are tried in order; the first to return rows wins.
// Each is broader than the previous one so servers that restrict
// sys.databases columns or permissions still yield a list.
var ListDatabasesQueries = []string{
	"SELECT name FROM sys.databases WHERE state_desc='ONLINE' AND database_id>4 ORDER BY name",
	"SELECT name FROM sys.databases WHERE state_desc='ONLINE' ORDER BY name",
	"SELECT name FROM sys.databases ORDER BY name",
}

// QuoteName returns a bracket-quoted identifier, the equivalent of
// SQL Server's QUOTENAME(): ']' is escaped as ']]'.
func QuoteName(identifier string) string {
	escaped := strings.ReplaceAll(identifier, "]", "]]")
	return fmt.Sprintf("[%s]", escaped)
}

// UseDatabaseStatement returns the context-switch statement for a database.
func UseDatabaseStatement(database string) string {
	return "USE " + QuoteName(database)
}

// isStringType returns true if the type is a character type in SQL Server.
func isStringType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "CHAR", "NCHAR", "VARCHAR", "NVARCHAR", "TEXT", "NTEXT", "XML":
		return true
	}
	return false
}

// isNumericTextType returns true for exact numeric types the driver hands
// back as decimal text.
func isNumericTextType(sqlType string) bool {
	switch strings.ToUpper(sqlType) {
	case "DECIMAL", "NUMERIC", "MONEY", "SMALLMONEY":
		return true
	}
	return false
}
