//go:build !windows

package discovery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// mssqlConfPath is written by mssql-conf on SQL Server for Linux installs.
const mssqlConfPath = "/var/opt/mssql/mssql.conf"

// fileInstances reports the default instance when a SQL Server for Linux
// install is present. Linux installs cannot host named instances.
type fileInstances struct {
	confPath string
}

// PlatformInstances returns the instance source for this platform.
func PlatformInstances() LocalInstanceSource {
	return fileInstances{confPath: mssqlConfPath}
}

func (f fileInstances) LocalInstances(_ context.Context) ([]string, error) {
	_, err := os.Stat(f.confPath)
	switch {
	case err == nil:
		return []string{DefaultInstanceName}, nil
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	default:
		return nil, err
	}
}

// PlatformDataSources returns the unixODBC data source reader. $ODBCINI
// wins over the user file, which wins over the system file.
func PlatformDataSources() DataSourceSource {
	paths := make([]string, 0, 3)
	if p := os.Getenv("ODBCINI"); p != "" {
		paths = append(paths, p)
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".odbc.ini"))
	}
	paths = append(paths, "/etc/odbc.ini")
	return ODBCIniFiles(paths...)
}
