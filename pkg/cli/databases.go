package cli

import (
	"github.com/spf13/cobra"
)

func newDatabasesCommand(a *app) *cobra.Command {
	var (
		server string
		auth   authFlags
	)

	cmd := &cobra.Command{
		Use:   "databases",
		Short: "List the databases on a server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sess, err := a.openSession(cmd.Context(), server, "", &auth)
			if err != nil {
				return err
			}
			defer sess.Close()

			names, err := sess.ListDatabases(cmd.Context())
			if err != nil {
				return err
			}
			return renderDatabases(a.stdout, a.plain, names)
		},
	}

	cmd.Flags().StringVarP(&server, "server", "S", "", `Server to connect to, e.g. HOST, HOST\SQLEXPRESS or HOST,1433`)
	_ = cmd.MarkFlagRequired("server")
	addAuthFlags(cmd, &auth)
	return cmd
}
