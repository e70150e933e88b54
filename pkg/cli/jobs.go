package cli

import (
	"github.com/spf13/cobra"

	"github.com/ekaya-inc/ekaya-export/pkg/catalog"
)

func newJobsCommand(a *app) *cobra.Command {
	var groups []string

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List the export catalog",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cat := catalog.Default()
			if len(groups) == 0 {
				return renderJobs(a.stdout, a.plain, cat.Jobs())
			}

			var jobs []catalog.Job
			for _, name := range groups {
				g, err := catalog.ParseGroup(name)
				if err != nil {
					return err
				}
				jobs = append(jobs, cat.Group(g)...)
			}
			return renderJobs(a.stdout, a.plain, jobs)
		},
	}

	cmd.Flags().StringSliceVarP(&groups, "group", "g", nil, "Only list jobs of these groups (entities, relations)")
	return cmd
}
