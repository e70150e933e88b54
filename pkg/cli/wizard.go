package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-export/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-export/pkg/catalog"
	"github.com/ekaya-inc/ekaya-export/pkg/discovery"
	"github.com/ekaya-inc/ekaya-export/pkg/export"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
	"github.com/ekaya-inc/ekaya-export/pkg/session"
)

// backCommand returns from database selection to server selection.
const backCommand = "back"

var errAborted = errors.New("aborted")

// prompter is satisfied by *liner.State.
type prompter interface {
	Prompt(prompt string) (string, error)
	PasswordPrompt(prompt string) (string, error)
}

// wizard walks the operator through discovery, login, database choice and
// export, one question at a time.
type wizard struct {
	p     prompter
	out   io.Writer
	plain bool

	discover  func(ctx context.Context) *discovery.Result
	sess      *session.Session
	pipeline  *export.Pipeline
	catalog   *catalog.Catalog
	timeout   time.Duration
	outputDir string
	progress  export.ProgressSink
}

func newWizardCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "wizard",
		Short: "Guided discovery, connection and export",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			cat := catalog.Default()
			discoverer := a.discoverer(a.cfg.Discovery.Probe)
			w := &wizard{
				p:         line,
				out:       a.stdout,
				plain:     a.plain,
				discover:  discoverer.Discover,
				sess:      session.New(a.connector(), a.logger),
				pipeline:  export.New(cat, a.logger),
				catalog:   cat,
				timeout:   a.cfg.Connection.ConnectionTimeout(),
				outputDir: a.cfg.Export.OutputDir,
				progress:  progressPrinter(a.stdout, isTerminal(a.stdout)),
			}

			err := w.run(cmd.Context())
			if errors.Is(err, errAborted) {
				fmt.Fprintln(a.stdout, "\nAborted.")
				return nil
			}
			return err
		},
	}
}

func (w *wizard) run(ctx context.Context) error {
	defer w.sess.Close()

	for {
		endpoint, err := w.chooseEndpoint(ctx)
		if err != nil {
			return err
		}

		creds, err := w.chooseCredentials()
		if err != nil {
			return err
		}

		fmt.Fprintf(w.out, "Connecting to %s...\n", endpoint)
		if err := w.sess.Connect(ctx, endpoint, creds, w.timeout); err != nil {
			w.printConnectError(err)
			continue
		}
		fmt.Fprintf(w.out, "Connected to %s\n", endpoint)

		back, err := w.exportLoop(ctx)
		if err != nil {
			return err
		}
		if !back {
			return nil
		}
		w.sess.Reset()
	}
}

func (w *wizard) chooseEndpoint(ctx context.Context) (models.Endpoint, error) {
	fmt.Fprintln(w.out, "Searching for SQL Server instances...")
	result := w.discover(ctx)
	if err := renderEndpoints(w.out, w.plain, result); err != nil {
		return "", err
	}

	for {
		answer, err := w.ask("Server (number or name): ")
		if err != nil {
			return "", err
		}
		if answer == "" && len(result.Endpoints) > 0 {
			return result.Endpoints[0], nil
		}
		if answer == "" {
			fmt.Fprintln(w.out, "Please enter a server name.")
			continue
		}
		return models.Endpoint(pick(answer, endpointStrings(result.Endpoints))), nil
	}
}

func (w *wizard) chooseCredentials() (models.Credentials, error) {
	for {
		user, err := w.ask("Login (empty for Windows authentication): ")
		if err != nil {
			return models.Credentials{}, err
		}
		if user == "" {
			return models.Integrated(), nil
		}

		password, err := w.p.PasswordPrompt("Password: ")
		if err != nil {
			return models.Credentials{}, promptError(err)
		}

		creds := models.Explicit(user, password)
		if err := creds.Validate(); err != nil {
			fmt.Fprintln(w.out, "Please enter both a login and a password.")
			continue
		}
		return creds, nil
	}
}

// exportLoop handles database choice and exports until the operator is
// done. It reports true when the operator asked to go back to server
// selection.
func (w *wizard) exportLoop(ctx context.Context) (bool, error) {
	for {
		names, err := w.sess.ListDatabases(ctx)
		if err != nil {
			return false, err
		}
		if err := renderDatabases(w.out, w.plain, names); err != nil {
			return false, err
		}

		answer, err := w.ask("Database (number or name, 'back' to change server): ")
		if err != nil {
			return false, err
		}
		if strings.EqualFold(answer, backCommand) {
			return true, nil
		}
		if answer == "" {
			continue
		}

		database := pick(answer, names)
		if err := w.sess.SelectDatabase(ctx, database); err != nil {
			fmt.Fprintf(w.out, "Could not select database: %v\n", err)
			continue
		}

		if err := w.exportOnce(ctx); err != nil {
			return false, err
		}

		again, err := w.ask("Export from another database? [y/N]: ")
		if err != nil {
			return false, err
		}
		if !strings.EqualFold(again, "y") && !strings.EqualFold(again, "yes") {
			return false, nil
		}
	}
}

func (w *wizard) exportOnce(ctx context.Context) error {
	var jobs []string
	for {
		answer, err := w.ask("Groups to export [all, entities, relations] (default all): ")
		if err != nil {
			return err
		}
		var groups []string
		if answer != "" && !strings.EqualFold(answer, "all") {
			groups = strings.Split(answer, ",")
		}
		jobs, err = selectJobs(w.catalog, nil, groups)
		if err != nil {
			fmt.Fprintln(w.out, err)
			continue
		}
		break
	}

	dir, err := w.ask(fmt.Sprintf("Output folder (default %s): ", w.outputDir))
	if err != nil {
		return err
	}
	if dir == "" {
		dir = w.outputDir
	}

	run, err := w.pipeline.Run(ctx, w.sess, export.Request{Jobs: jobs, OutputDir: dir}, w.progress)
	if run == nil {
		if errors.Is(err, apperrors.ErrNoJobsSelected) {
			fmt.Fprintln(w.out, "Select at least one job.")
			return nil
		}
		return err
	}
	return renderRun(w.out, w.plain, formatTable, run)
}

func (w *wizard) printConnectError(err error) {
	var connErr *apperrors.ConnectionError
	if errors.As(err, &connErr) {
		fmt.Fprintf(w.out, "Could not connect to %s: %s\n", connErr.Endpoint, connErr.Kind.Message())
		return
	}
	fmt.Fprintf(w.out, "Could not connect: %v\n", err)
}

func (w *wizard) ask(prompt string) (string, error) {
	answer, err := w.p.Prompt(prompt)
	if err != nil {
		return "", promptError(err)
	}
	return strings.TrimSpace(answer), nil
}

func promptError(err error) error {
	if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
		return errAborted
	}
	return err
}

// pick resolves a 1-based list number to its entry; anything else is
// taken literally.
func pick(answer string, options []string) string {
	if n, err := strconv.Atoi(answer); err == nil && n >= 1 && n <= len(options) {
		return options[n-1]
	}
	return answer
}

func endpointStrings(endpoints []models.Endpoint) []string {
	out := make([]string, len(endpoints))
	for i, ep := range endpoints {
		out[i] = ep.String()
	}
	return out
}
