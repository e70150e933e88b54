package cli

import (
	"github.com/spf13/cobra"
)

func newDiscoverCommand(a *app) *cobra.Command {
	var noProbe bool

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List candidate SQL Server instances",
		Long: `List SQL Server instances installed on this machine and configured ODBC
data sources. When nothing is installed locally, common aliases are probed
and only the ones that answer are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			probe := a.cfg.Discovery.Probe && !noProbe
			result := a.discoverer(probe).Discover(cmd.Context())
			return renderEndpoints(a.stdout, a.plain, result)
		},
	}

	cmd.Flags().BoolVar(&noProbe, "no-probe", false, "Do not probe candidates for reachability")
	return cmd
}
