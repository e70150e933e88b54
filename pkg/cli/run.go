package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-export/pkg/catalog"
	"github.com/ekaya-inc/ekaya-export/pkg/export"
	"github.com/ekaya-inc/ekaya-export/pkg/logging"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// errIncomplete makes the process exit non-zero when any job did not export.
var errIncomplete = errors.New("export incomplete")

func newRunCommand(a *app) *cobra.Command {
	var (
		server   string
		database string
		jobs     []string
		groups   []string
		output   string
		format   string
		verbose  bool
		auth     authFlags
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Export catalog jobs from a database",
		Long: `Connect to a server, select a database and export catalog jobs, one
';'-delimited file per job. Without --job or --group every job is exported.`,
		Example: `  ekaya-export run -S 'PC01\SQLEXPRESS' -d Farmacia
  ekaya-export run -S db01,1433 -d Farmacia -U reader --password-prompt --group entities
  ekaya-export run -S PC01 -d Farmacia --job Bancos --job Marcas --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatTable && format != formatYAML {
				return fmt.Errorf("unknown format %q (want %s or %s)", format, formatTable, formatYAML)
			}

			cat := catalog.Default()
			selected, err := selectJobs(cat, jobs, groups)
			if err != nil {
				return err
			}
			if output == "" {
				output = a.cfg.Export.OutputDir
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			sess, err := a.openSession(ctx, server, database, &auth)
			if err != nil {
				return err
			}
			defer sess.Close()

			pipeline := export.New(cat, a.logger)
			run, runErr := pipeline.Run(ctx, sess, export.Request{Jobs: selected, OutputDir: output},
				progressPrinter(a.stderr, isTerminal(a.stderr)))
			if run == nil {
				return runErr
			}

			if verbose {
				printExecutedQueries(a, cat, run)
			}
			if err := renderRun(a.stdout, a.plain, format, run); err != nil {
				return err
			}

			if runErr != nil {
				return runErr
			}
			if !run.Complete() {
				return errIncomplete
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&server, "server", "S", "", `Server to connect to, e.g. HOST, HOST\SQLEXPRESS or HOST,1433`)
	cmd.Flags().StringVarP(&database, "database", "d", "", "Database to export from")
	cmd.Flags().StringArrayVarP(&jobs, "job", "j", nil, "Job to export; repeatable")
	cmd.Flags().StringSliceVarP(&groups, "group", "g", nil, "Export every job of these groups (entities, relations)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from config, ~/Exportacion_SQL)")
	cmd.Flags().StringVar(&format, "format", formatTable, "Result format: table or yaml")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the query executed for each job")
	_ = cmd.MarkFlagRequired("server")
	_ = cmd.MarkFlagRequired("database")
	addAuthFlags(cmd, &auth)
	return cmd
}

// selectJobs returns the job names to run in catalog order for groups,
// followed by explicit jobs in the order given. Nothing selected means
// everything. Unknown job names are kept; the pipeline reports them as
// skipped.
func selectJobs(cat *catalog.Catalog, jobs, groups []string) ([]string, error) {
	if len(jobs) == 0 && len(groups) == 0 {
		return cat.Names(), nil
	}

	var selected []string
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			selected = append(selected, name)
		}
	}

	if len(groups) > 0 {
		parsed := make([]catalog.Group, 0, len(groups))
		for _, g := range groups {
			group, err := catalog.ParseGroup(g)
			if err != nil {
				return nil, err
			}
			parsed = append(parsed, group)
		}
		for _, name := range cat.Names(parsed...) {
			add(name)
		}
	}
	for _, name := range jobs {
		add(name)
	}
	return selected, nil
}

func printExecutedQueries(a *app, cat *catalog.Catalog, run *models.ExportRun) {
	fmt.Fprintln(a.stdout, "Executed queries:")
	for _, r := range run.Results {
		job, ok := cat.Lookup(r.Job)
		if !ok {
			continue
		}
		fmt.Fprintf(a.stdout, "  [%s] %s\n", r.Job, logging.SanitizeQuery(job.Query))
	}
}
