package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/kbukum/vidprofile/pipeline"
	"github.com/kbukum/vidprofile/service"
)

type processOutput struct {
	Video  string           `json:"video"`
	Result *pipeline.Result `json:"result,omitempty"`
	Error  string           `json:"error,omitempty"`
}

func NewCmdProcess(g *GlobalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "process VIDEO [VIDEO...]",
		Short: "Transcribe videos and generate their CV profiles.",
		Long: "Extracts the audio track of each video, transcribes it, extracts the profile\n" +
			"and writes the CV summary. Several videos are processed concurrently within\n" +
			"the configured worker pool; the output is one JSON document per video.",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return g.run(cmd.Context(), func(ctx context.Context, svc *service.Service) error {
				if len(args) == 1 {
					res, err := svc.Orchestrator.Process(ctx, args[0])
					if err != nil {
						return err
					}
					return writeJSON(cmd.OutOrStdout(), res)
				}

				outcomes, err := svc.Orchestrator.ProcessAll(ctx, args)
				if err != nil {
					return err
				}
				out := make([]processOutput, len(outcomes))
				var firstErr error
				for i, oc := range outcomes {
					out[i] = processOutput{Video: oc.Video, Result: oc.Result}
					if oc.Err != nil {
						out[i].Error = oc.Err.Error()
						if firstErr == nil {
							firstErr = oc.Err
						}
					}
				}
				if err := writeJSON(cmd.OutOrStdout(), out); err != nil {
					return err
				}
				return firstErr
			})
		},
	}
}
