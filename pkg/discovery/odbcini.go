package discovery

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// odbcListSection is the unixODBC section that maps DSN names to driver
// descriptions.
const odbcListSection = "odbc data sources"

// odbcIniFiles reads DSNs from unixODBC ini files. Earlier files win when a
// name appears twice; missing files are skipped.
type odbcIniFiles struct {
	paths []string
}

// ODBCIniFiles returns a DataSourceSource over the given odbc.ini files.
func ODBCIniFiles(paths ...string) DataSourceSource {
	return odbcIniFiles{paths: paths}
}

func (o odbcIniFiles) DataSources(ctx context.Context) ([]DataSource, error) {
	var (
		sources []DataSource
		errs    []error
	)
	seen := make(map[string]struct{})

	for _, path := range o.paths {
		if err := ctx.Err(); err != nil {
			return sources, err
		}
		found, err := readODBCIniFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, src := range found {
			key := strings.ToLower(src.Name)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			sources = append(sources, src)
		}
	}

	if len(sources) == 0 {
		return nil, errors.Join(errs...)
	}
	return sources, nil
}

func readODBCIniFile(path string) ([]DataSource, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sources, err := parseODBCIni(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return sources, nil
}

// parseODBCIni returns every DSN that declares a driver, either through its
// own section's Driver key or through the [ODBC Data Sources] list. A
// section's Driver key wins over the list description.
func parseODBCIni(r io.Reader) ([]DataSource, error) {
	var (
		order   []string
		drivers = make(map[string]string)
		fromKey = make(map[string]bool)
		section string
	)

	record := func(name, driver string, own bool) {
		if name == "" || driver == "" {
			return
		}
		if _, ok := drivers[name]; !ok {
			order = append(order, name)
		} else if fromKey[name] && !own {
			return
		}
		drivers[name] = driver
		fromKey[name] = fromKey[name] || own
	}

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == ';' || line[0] == '#' {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok || section == "" {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch {
		case strings.EqualFold(section, odbcListSection):
			record(key, value, false)
		case strings.EqualFold(section, "ODBC"):
			// global unixODBC options, not a DSN
		case strings.EqualFold(key, "Driver"):
			record(section, value, true)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	sources := make([]DataSource, 0, len(order))
	for _, name := range order {
		sources = append(sources, DataSource{Name: name, Driver: drivers[name]})
	}
	return sources, nil
}
