package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/prompt"
	"github.com/kbukum/vidprofile/service"
)

func NewCmdPrompts(g *GlobalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: "Inspect and edit the prompt templates.",
	}
	cmd.AddCommand(
		newCmdPromptsList(g),
		newCmdPromptsGet(g),
		newCmdPromptsSet(g),
		newCmdPromptsReset(g),
		newCmdPromptsExport(g),
		newCmdPromptsImport(g),
	)
	return cmd
}

func newCmdPromptsList(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "list",
		Short:        "List the templates and their variables.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				templates, err := svc.Prompts.List(ctx)
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 8, 2, ' ', 0)
				fmt.Fprintln(w, "NAME\tVARIABLES\tDESCRIPTION")
				for _, t := range templates {
					fmt.Fprintf(w, "%s\t%s\t%s\n", t.Name, strings.Join(t.Variables, ","), t.Description)
				}
				return w.Flush()
			})
		},
	}
}

func newCmdPromptsGet(g *GlobalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:          "get NAME",
		Short:        "Print a template.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				t, err := svc.Prompts.Get(ctx, args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), t)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), t.Template)
				return err
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full template document as JSON.")
	return cmd
}

func newCmdPromptsSet(g *GlobalOptions) *cobra.Command {
	var file, text string
	cmd := &cobra.Command{
		Use:          "set NAME (--file FILE | --text TEXT)",
		Short:        "Replace the text of a template.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := templateBody(file, text)
			if err != nil {
				return err
			}
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				t, err := svc.Prompts.Update(ctx, args[0], body)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), t)
			})
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the template text from FILE.")
	cmd.Flags().StringVar(&text, "text", "", "Template text.")
	cmd.MarkFlagsMutuallyExclusive("file", "text")
	return cmd
}

func templateBody(file, text string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", goerrors.InvalidInput("file", err.Error())
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return "", goerrors.MissingField("template")
	}
	return text, nil
}

func newCmdPromptsReset(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "reset [NAME]",
		Short:        "Restore the built-in text of one template, or of all of them.",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = args[0]
			}
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				return svc.Prompts.Reset(ctx, name)
			})
		},
	}
}

func newCmdPromptsExport(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "export",
		Short:        "Write every template to stdout as YAML.",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				return prompt.Export(ctx, svc.Prompts, cmd.OutOrStdout())
			})
		},
	}
}

func newCmdPromptsImport(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "import FILE",
		Short:        "Update templates from a YAML bundle written by export.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return goerrors.InvalidInput("file", err.Error())
			}
			defer f.Close()
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				updated, err := prompt.Import(ctx, svc.Prompts, f)
				if err != nil {
					return err
				}
				for _, t := range updated {
					fmt.Fprintln(cmd.OutOrStdout(), t.Name)
				}
				return nil
			})
		},
	}
}
