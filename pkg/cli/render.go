package cli

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"gopkg.in/yaml.v3"

	"github.com/ekaya-inc/ekaya-export/pkg/catalog"
	"github.com/ekaya-inc/ekaya-export/pkg/discovery"
	"github.com/ekaya-inc/ekaya-export/pkg/export"
	"github.com/ekaya-inc/ekaya-export/pkg/models"
)

// Output formats for run results.
const (
	formatTable = "table"
	formatYAML  = "yaml"
)

func newTable(w io.Writer, plain bool) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	// Keep headers as written (no upper-casing).
	table.Options(tablewriter.WithConfig(tablewriter.Config{
		Header: tw.CellConfig{
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
	}))
	if plain {
		table.Options(tablewriter.WithSymbols(&tw.SymbolASCII{}))
	}
	return table
}

func renderEndpoints(w io.Writer, plain bool, result *discovery.Result) error {
	if len(result.Endpoints) == 0 {
		fmt.Fprintln(w, "No SQL Server instances found. Enter a server name manually.")
		return nil
	}

	source := "heuristic aliases"
	switch {
	case result.FromLocalRegistry:
		source = "local installation"
	case result.Probed && result.Reachable > 0:
		source = "reachable aliases"
	case result.Probed:
		source = "heuristic aliases (none answered)"
	}

	table := newTable(w, plain)
	table.Header("#", "Server")
	for i, ep := range result.Endpoints {
		table.Append(strconv.Itoa(i+1), ep.String())
	}
	if err := table.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d instance(s) found from %s\n", len(result.Endpoints), source)
	return nil
}

func renderDatabases(w io.Writer, plain bool, names []string) error {
	if len(names) == 0 {
		fmt.Fprintln(w, "No databases visible to this login.")
		return nil
	}

	table := newTable(w, plain)
	table.Header("#", "Database")
	for i, name := range names {
		table.Append(strconv.Itoa(i+1), name)
	}
	return table.Render()
}

func renderJobs(w io.Writer, plain bool, jobs []catalog.Job) error {
	table := newTable(w, plain)
	table.Header("Job", "Group", "File")
	for _, job := range jobs {
		table.Append(job.Name, string(job.Group), job.FileName())
	}
	return table.Render()
}

func renderRun(w io.Writer, plain bool, format string, run *models.ExportRun) error {
	if format == formatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(run); err != nil {
			return fmt.Errorf("encode run: %w", err)
		}
		return enc.Close()
	}

	table := newTable(w, plain)
	table.Header("Job", "File", "Status", "Rows", "Reason")
	for _, r := range run.Results {
		rows := ""
		if r.OK() {
			rows = strconv.Itoa(r.RowCount)
		}
		table.Append(r.Job, r.File, string(r.Status), rows, r.Reason)
	}
	if err := table.Render(); err != nil {
		return err
	}

	for _, line := range export.Summary(run) {
		fmt.Fprintln(w, line)
	}
	return nil
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// progressPrinter renders progress on one rewritten line for terminals and
// one line per event otherwise.
func progressPrinter(w io.Writer, tty bool) export.ProgressSink {
	last := 0
	return export.ProgressFunc(func(percent int, label string) {
		if !tty {
			fmt.Fprintf(w, "[%3d%%] %s\n", percent, label)
			return
		}

		line := fmt.Sprintf("\r[%3d%%] %s", percent, label)
		pad := last - len(line)
		if pad > 0 {
			line += strings.Repeat(" ", pad)
		}
		last = len(line)
		fmt.Fprint(w, line)
		if percent >= 100 {
			fmt.Fprintln(w)
			last = 0
		}
	})
}
