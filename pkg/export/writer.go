package export

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/ekaya-inc/ekaya-export/pkg/models"
	"github.com/ekaya-inc/ekaya-export/pkg/sanitize"
)

const (
	fieldSeparator = ";"
	lineTerminator = "\n"
)

// writeResultSet writes rs to path as UTF-8 text without a header: one line
// per row, sanitized fields joined by ';'. It returns the bytes written. On
// error the partial file is left in place.
func writeResultSet(path string, rs *models.ResultSet) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	var (
		written int64
		fields  []string
	)
	for _, row := range rs.Rows {
		fields = fields[:0]
		for _, v := range row {
			fields = append(fields, sanitize.Value(v))
		}

		n, err := w.WriteString(strings.Join(fields, fieldSeparator) + lineTerminator)
		written += int64(n)
		if err != nil {
			_ = f.Close()
			return written, fmt.Errorf("write %s: %w", path, err)
		}
	}

	if err := w.Flush(); err != nil {
		_ = f.Close()
		return written, fmt.Errorf("flush %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return written, fmt.Errorf("close %s: %w", path, err)
	}
	return written, nil
}
