// Package discovery gathers candidate SQL Server endpoints from the local
// machine and, when nothing is installed locally, probes well-known aliases
// to keep only the ones that answer.
package discovery

import (
	"context"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-export/pkg/logging"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// DefaultInstanceName is the registry name of an unnamed SQL Server instance.
const DefaultInstanceName = "MSSQLSERVER"

// sqlServerMarker selects data sources that point at SQL Server.
const sqlServerMarker = "SQL Server"

// LocalInstanceSource lists the SQL Server instance names installed on this
// machine, e.g. MSSQLSERVER or SQLEXPRESS.
type LocalInstanceSource interface {
	LocalInstances(ctx context.Context) ([]string, error)
}

// DataSource is a configured ODBC data source.
type DataSource struct {
	Name   string
	Driver string
}

// DataSourceSource lists configured ODBC data sources.
type DataSourceSource interface {
	DataSources(ctx context.Context) ([]DataSource, error)
}

// Options configures a Discoverer. Zero values select the platform sources,
// os.Hostname and the defaults below.
type Options struct {
	Hostname    func() (string, error)
	Instances   LocalInstanceSource
	DataSources DataSourceSource

	// Prober is required for probing; a nil Prober disables it.
	Prober datasource.Prober
	// Probe enables reachability probing of heuristic candidates.
	Probe            bool
	ProbeTimeout     time.Duration
	ProbeConcurrency int
	ProbeCeiling     time.Duration
}

const (
	defaultProbeTimeout     = 2 * time.Second
	defaultProbeConcurrency = 8
	defaultProbeCeiling     = 10 * time.Second
)

// Result is the outcome of one discovery pass.
type Result struct {
	// Endpoints is what the operator should be offered, in first-seen order.
	Endpoints []models.Endpoint
	// FromLocalRegistry is true when locally installed instances were found.
	FromLocalRegistry bool
	// Probed is true when candidates were filtered by reachability.
	Probed bool
	// Reachable counts the candidates that answered a probe.
	Reachable int
}

// Discoverer builds candidate endpoint lists.
type Discoverer struct {
	opts   Options
	logger *zap.Logger
}

// New creates a Discoverer.
func New(opts Options, logger *zap.Logger) *Discoverer {
	if opts.Hostname == nil {
		opts.Hostname = os.Hostname
	}
	if opts.Instances == nil {
		opts.Instances = PlatformInstances()
	}
	if opts.DataSources == nil {
		opts.DataSources = PlatformDataSources()
	}
	if opts.ProbeTimeout <= 0 {
		opts.ProbeTimeout = defaultProbeTimeout
	}
	if opts.ProbeConcurrency < 1 {
		opts.ProbeConcurrency = defaultProbeConcurrency
	}
	if opts.ProbeCeiling <= 0 {
		opts.ProbeCeiling = defaultProbeCeiling
	}
	return &Discoverer{
		opts:   opts,
		logger: logging.OrNop(logger).Named("discovery"),
	}
}

// Discover never fails. An empty result means the operator has to type an
// endpoint by hand.
func (d *Discoverer) Discover(ctx context.Context) *Result {
	host := d.hostname()
	result := &Result{}

	local := d.localEndpoints(ctx, host)
	candidates := local
	if len(local) > 0 {
		result.FromLocalRegistry = true
	} else {
		candidates = HeuristicEndpoints(host)
	}

	candidates = append(candidates, d.dataSourceEndpoints(ctx)...)
	candidates = Dedup(candidates)

	if result.FromLocalRegistry || !d.opts.Probe || d.opts.Prober == nil {
		result.Endpoints = candidates
		d.logger.Info("Discovery finished",
			zap.Int("candidates", len(candidates)),
			zap.Bool("local_instances", result.FromLocalRegistry))
		return result
	}

	reachability := d.probeAll(ctx, candidates)
	var reachable []models.Endpoint
	for i, r := range reachability {
		if r == datasource.Reachable {
			reachable = append(reachable, candidates[i])
		}
	}

	result.Probed = true
	result.Reachable = len(reachable)
	if len(reachable) > 0 {
		result.Endpoints = reachable
	} else {
		result.Endpoints = candidates
	}

	d.logger.Info("Discovery finished",
		zap.Int("candidates", len(candidates)),
		zap.Int("reachable", len(reachable)))
	return result
}

func (d *Discoverer) hostname() string {
	host, err := d.opts.Hostname()
	host = strings.TrimSpace(host)
	if err != nil || host == "" {
		d.logger.Debug("Hostname unavailable, using localhost", zap.Error(err))
		return "localhost"
	}
	return host
}

func (d *Discoverer) localEndpoints(ctx context.Context, host string) []models.Endpoint {
	names, err := d.opts.Instances.LocalInstances(ctx)
	if err != nil {
		d.logger.Debug("Could not read local instances", zap.Error(err))
		return nil
	}

	endpoints := make([]models.Endpoint, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		endpoints = append(endpoints, InstanceEndpoint(host, name))
	}
	return endpoints
}

func (d *Discoverer) dataSourceEndpoints(ctx context.Context) []models.Endpoint {
	sources, err := d.opts.DataSources.DataSources(ctx)
	if err != nil {
		d.logger.Debug("Could not read ODBC data sources", zap.Error(err))
		return nil
	}

	var endpoints []models.Endpoint
	for _, src := range sources {
		if strings.Contains(src.Name, sqlServerMarker) || strings.Contains(src.Driver, sqlServerMarker) {
			endpoints = append(endpoints, models.Endpoint(src.Name))
		}
	}
	return endpoints
}

// InstanceEndpoint maps an installed instance name to the endpoint that
// addresses it on host.
func InstanceEndpoint(host, instance string) models.Endpoint {
	if strings.EqualFold(instance, DefaultInstanceName) {
		return models.Endpoint(host)
	}
	return models.Endpoint(host + `\` + instance)
}

// HeuristicEndpoints returns the aliases a local default or Express install
// usually answers to.
func HeuristicEndpoints(host string) []models.Endpoint {
	return []models.Endpoint{
		models.Endpoint(host),
		models.Endpoint(host + `\SQLEXPRESS`),
		"localhost",
		`localhost\SQLEXPRESS`,
		".",
		`.\SQLEXPRESS`,
		"(local)",
		`(local)\SQLEXPRESS`,
	}
}

// Dedup drops case-insensitive duplicates and blanks, keeping the first
// spelling seen and the original order.
func Dedup(endpoints []models.Endpoint) []models.Endpoint {
	seen := make(map[string]struct{}, len(endpoints))
	out := make([]models.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		trimmed := strings.TrimSpace(string(ep))
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, models.Endpoint(trimmed))
	}
	return out
}
