package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kbukum/vidprofile/version"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

// NewRootCommand builds the vidprofile command tree.
func NewRootCommand() *cobra.Command {
	o := DefaultGlobalOptions()
	cmd := &cobra.Command{
		Use:   "vidprofile [command]",
		Short: "vidprofile turns a recorded presentation into a CV profile.",
		Long: "vidprofile transcribes a short video, extracts a professional profile from the\n" +
			"transcript and writes a CV summary or a technical test, falling back across\n" +
			"the configured AI providers.",
		Version:      version.Short(),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	o.Bind(cmd.PersistentFlags())

	cmd.AddCommand(
		NewCmdProcess(o),
		NewCmdAssess(o),
		NewCmdPrompts(o),
		NewCmdProviders(o),
		NewCmdVersion(),
	)
	return cmd
}
