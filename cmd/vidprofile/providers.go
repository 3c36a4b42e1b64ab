package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kbukum/vidprofile/service"
)

func NewCmdProviders(g *GlobalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:          "providers",
		Short:        "List the configured AI providers and what they can do.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.run(cmd.Context(), func(_ context.Context, svc *service.Service) error {
				descriptors := svc.Registry.Descriptors()
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), descriptors)
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tOPERATIONS\tENABLED\tSTATUS")
				for _, d := range descriptors {
					fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", d.Name, d.Capabilities.String(), d.Enabled, d.Status)
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print descriptors as JSON.")
	return cmd
}
