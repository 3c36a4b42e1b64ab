package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/kbukum/vidprofile/ai"
	goerrors "github.com/kbukum/vidprofile/errors"
	"github.com/kbukum/vidprofile/service"
)

type AssessOptions struct {
	ProfileFile  string
	Profession   string
	Technologies string
	Experience   string
	Education    string
}

func NewCmdAssess(g *GlobalOptions) *cobra.Command {
	o := &AssessOptions{}
	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Generate a technical test for a profile.",
		Example: "  vidprofile assess --profession \"Backend developer\" --technologies \"Go, Redis\"\n" +
			"  vidprofile process talk.mp4 | jq .profile_data > profile.json && vidprofile assess --profile profile.json",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fields, err := o.Fields()
			if err != nil {
				return err
			}
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				res, err := svc.Orchestrator.Assess(ctx, fields)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			})
		},
	}
	o.Bind(cmd.Flags())
	return cmd
}

func (o *AssessOptions) Bind(fs *pflag.FlagSet) {
	fs.StringVarP(&o.ProfileFile, "profile", "p", o.ProfileFile, "JSON file with profile fields, e.g. the profile_data of a process run.")
	fs.StringVar(&o.Profession, "profession", o.Profession, "Candidate profession. Overrides the profile file.")
	fs.StringVar(&o.Technologies, "technologies", o.Technologies, "Comma-separated technologies. Overrides the profile file.")
	fs.StringVar(&o.Experience, "experience", o.Experience, "Experience summary. Overrides the profile file.")
	fs.StringVar(&o.Education, "education", o.Education, "Education summary. Overrides the profile file.")
}

// Fields merges the profile file with the flags. Flags win.
func (o *AssessOptions) Fields() (ai.ProfileFields, error) {
	fields := ai.DefaultProfile()
	if o.ProfileFile != "" {
		data, err := os.ReadFile(o.ProfileFile)
		if err != nil {
			return fields, goerrors.InvalidInput("profile", err.Error())
		}
		if fields, err = ai.DecodeProfile(data); err != nil {
			return fields, err
		}
	}

	for key, value := range map[string]string{
		ai.FieldProfession:   o.Profession,
		ai.FieldTechnologies: o.Technologies,
		ai.FieldExperience:   o.Experience,
		ai.FieldEducation:    o.Education,
	} {
		if value != "" {
			fields = fields.With(key, value)
		}
	}
	return fields, nil
}
