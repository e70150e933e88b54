// Package cli is the command-line front end: it collects endpoints,
// credentials and job selections, then drives discovery, the session and
// the export pipeline.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-export/pkg/adapters/datasource/mssql"
	"github.com/ekaya-inc/ekaya-export/pkg/config"
	"github.com/ekaya-inc/ekaya-export/pkg/discovery"
	"github.com/ekaya-inc/ekaya-export/pkg/logging"
	"github.com/ekaya-inc/ekaya-export/pkg/session"
)

// app carries what every command needs once flags are parsed.
type app struct {
	version    string
	configPath string
	logLevel   string
	plain      bool

	cfg    *config.Config
	logger *zap.Logger

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// Execute runs the ekaya-export command line.
func Execute(version string) error {
	root := NewRootCommand(version)
	return root.Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	a := &app{
		version: version,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}

	root := &cobra.Command{
		Use:   "ekaya-export",
		Short: "Export a fixed catalog of SQL Server tables to delimited text files",
		Long: `ekaya-export finds SQL Server instances on this machine, connects to one,
and writes each selected catalog job to a ';'-delimited text file.

Run "ekaya-export wizard" for the guided flow.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.load(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to the config file (default "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.plain, "plain", false, "Use plain ASCII output instead of Unicode box-drawing characters.")

	root.AddCommand(
		newDiscoverCommand(a),
		newDatabasesCommand(a),
		newJobsCommand(a),
		newRunCommand(a),
		newWizardCommand(a),
	)
	return root
}

// load reads configuration and builds the logger.
func (a *app) load(cmd *cobra.Command) error {
	a.stdin = cmd.InOrStdin()
	a.stdout = cmd.OutOrStdout()
	a.stderr = cmd.ErrOrStderr()

	cfg, err := config.Load(a.configPath, a.version)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.logger.Debug("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("output_dir", cfg.Export.OutputDir),
		zap.Int("connection_timeout_seconds", cfg.Connection.TimeoutSeconds),
		zap.Bool("probe", cfg.Discovery.Probe))
	return nil
}

func (a *app) connector() *mssql.Connector {
	return mssql.NewConnector(mssql.Options{
		Encrypt:                a.cfg.Connection.Encrypt,
		TrustServerCertificate: a.cfg.Connection.TrustServerCertificate,
		AppName:                a.cfg.Connection.AppName,
		ResolveHost:            config.HostAddress,
	}, a.logger)
}

func (a *app) discoverer(probe bool) *discovery.Discoverer {
	connector := a.connector()
	return discovery.New(discovery.Options{
		Prober:           mssql.NewProber(connector, a.cfg.Discovery.ProbeTimeout()),
		Probe:            probe,
		ProbeTimeout:     a.cfg.Discovery.ProbeTimeout(),
		ProbeConcurrency: a.cfg.Discovery.ProbeConcurrency,
		ProbeCeiling:     a.cfg.Discovery.ProbeCeiling(),
	}, a.logger)
}

// openSession connects to server and, when database is not empty, selects
// it. The caller owns the returned session.
func (a *app) openSession(ctx context.Context, server, database string, auth *authFlags) (*session.Session, error) {
	creds, err := auth.credentials(a)
	if err != nil {
		return nil, err
	}

	sess := session.New(a.connector(), a.logger)
	fmt.Fprintf(a.stderr, "Connecting to %s...\n", server)
	if err := sess.Connect(ctx, parseEndpoint(server), creds, a.cfg.Connection.ConnectionTimeout()); err != nil {
		return nil, err
	}

	if database != "" {
		if err := sess.SelectDatabase(ctx, database); err != nil {
			_ = sess.Close()
			return nil, err
		}
	}
	return sess, nil
}
