//go:build windows

package discovery

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sys/windows/registry"
)

var instanceKeyPaths = []string{
	`SOFTWARE\Microsoft\Microsoft SQL Server\Instance Names\SQL`,
	`SOFTWARE\WOW6432Node\Microsoft\Microsoft SQL Server\Instance Names\SQL`,
}

const odbcDataSourcesKeyPath = `SOFTWARE\ODBC\ODBC.INI\ODBC Data Sources`

// registryInstances reads installed instance names from the SQL Server
// registration keys, including the 32-bit view.
type registryInstances struct{}

// PlatformInstances returns the registry-backed instance source.
func PlatformInstances() LocalInstanceSource {
	return registryInstances{}
}

func (registryInstances) LocalInstances(ctx context.Context) ([]string, error) {
	var (
		names []string
		errs  []error
	)
	for _, path := range instanceKeyPaths {
		if err := ctx.Err(); err != nil {
			return names, err
		}
		values, err := readValueNames(registry.LOCAL_MACHINE, path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		names = append(names, values...)
	}
	if len(names) == 0 {
		return nil, errors.Join(errs...)
	}
	return names, nil
}

// registryDataSources reads the system and user ODBC data source lists.
type registryDataSources struct{}

// PlatformDataSources returns the registry-backed ODBC source.
func PlatformDataSources() DataSourceSource {
	return registryDataSources{}
}

func (registryDataSources) DataSources(ctx context.Context) ([]DataSource, error) {
	var (
		sources []DataSource
		errs    []error
	)
	for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		if err := ctx.Err(); err != nil {
			return sources, err
		}
		found, err := readDataSources(root)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sources = append(sources, found...)
	}
	if len(sources) == 0 {
		return nil, errors.Join(errs...)
	}
	return sources, nil
}

func readValueNames(root registry.Key, path string) ([]string, error) {
	k, err := registry.OpenKey(root, path, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, fmt.Errorf("read values of %s: %w", path, err)
	}
	return names, nil
}

func readDataSources(root registry.Key) ([]DataSource, error) {
	k, err := registry.OpenKey(root, odbcDataSourcesKeyPath, registry.QUERY_VALUE)
	if err != nil {
		if errors.Is(err, registry.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", odbcDataSourcesKeyPath, err)
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return nil, fmt.Errorf("read values of %s: %w", odbcDataSourcesKeyPath, err)
	}

	sources := make([]DataSource, 0, len(names))
	for _, name := range names {
		driver, _, err := k.GetStringValue(name)
		if err != nil {
			continue
		}
		sources = append(sources, DataSource{Name: name, Driver: driver})
	}
	return sources, nil
}
