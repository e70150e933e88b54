//go:build !windows

package discovery

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileInstances(t *testing.T) {
	conf := filepath.Join(t.TempDir(), "mssql.conf")

	names, err := fileInstances{confPath: conf}.LocalInstances(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, os.WriteFile(conf, []byte("[sqlagent]\nenabled = false\n"), 0o600))
	names, err = fileInstances{confPath: conf}.LocalInstances(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultInstanceName}, names)
}
