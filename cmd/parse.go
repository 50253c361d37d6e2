package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/pipeline"
)

var parseCmd = &cobra.Command{
	Use:   "parse <resume-file|->",
	Short: "Extract a structured candidate record from resume text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd, ai.KindResume, args[0])
	},
}

var analyzeJobCmd = &cobra.Command{
	Use:   "analyze-job <job-file|->",
	Short: "Extract a structured job profile from a job description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runParse(cmd, ai.KindJob, args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(analyzeJobCmd)
}

func runParse(cmd *cobra.Command, kind ai.Kind, path string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	s, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	text, err := readDocument(path)
	if err != nil {
		return err
	}

	out, err := s.pipeline.Run(ctx, kind, text)
	if err != nil {
		logParseFailure(s.logger, err)
		return err
	}

	s.logger.Info("document parsed",
		zap.String("request_id", out.RequestID),
		zap.String("status", string(out.Status)),
		zap.Int("confidence", out.Confidence),
		zap.String("provider", out.Provider),
		zap.Float64("cost", out.Cost),
	)

	if out.Candidate != nil && path != "-" {
		out.Candidate.Source = path
	}
	return printResult(cmd, out)
}

// logParseFailure adds the provider failures and guidance when every provider failed.
func logParseFailure(l *zap.Logger, err error) {
	var failed *pipeline.AllParsersFailedError
	if !errors.As(err, &failed) {
		return
	}
	providers := make([]string, 0, len(failed.Failures))
	for _, f := range failed.Failures {
		providers = append(providers, f.Provider)
	}
	l.Error("all providers failed",
		zap.Strings("providers", providers),
		zap.Strings("hint", failed.Guidance),
	)
}
