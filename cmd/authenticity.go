package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/records"
)

var authenticityCmd = &cobra.Command{
	Use:   "authenticity <resume-file>",
	Short: "Score how likely a resume is genuine",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthenticity,
}

func init() {
	rootCmd.AddCommand(authenticityCmd)

	authenticityCmd.Flags().Bool("quick", false, "only return the score, risk level and top issues")
	authenticityCmd.Flags().String("job", "", "job description used for keyword stuffing checks")
	authenticityCmd.Flags().String("candidate", "", "already parsed candidate record (.json); skips parsing")
}

func runAuthenticity(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	candidatePath, _ := cmd.Flags().GetString("candidate")

	s, err := setup(ctx, candidatePath == "")
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	text, err := readDocument(args[0])
	if err != nil {
		return err
	}

	var candidate *records.Candidate
	if candidatePath != "" {
		raw, err := readDocument(candidatePath)
		if err != nil {
			return err
		}
		if candidate, err = records.DecodeCandidate(raw); err != nil {
			return err
		}
	} else {
		out, err := s.pipeline.Run(ctx, ai.KindResume, text)
		if err != nil {
			return err
		}
		candidate = out.Candidate
	}

	if quick, _ := cmd.Flags().GetBool("quick"); quick {
		return printResult(cmd, s.analyzer.QuickCheck(ctx, text, candidate))
	}

	var jobText string
	if jobPath, _ := cmd.Flags().GetString("job"); jobPath != "" {
		if jobText, err = readDocument(jobPath); err != nil {
			return err
		}
	}

	report := s.analyzer.Analyze(ctx, text, candidate, jobText)
	s.logger.Info("authenticity analyzed",
		zap.String("candidate", candidate.Name),
		zap.Int("score", report.OverallScore),
		zap.String("risk", string(report.RiskLevel)),
		zap.Int("red_flags", len(report.RedFlags)),
		zap.Bool("depth_analyzed", report.DepthAnalyzed),
	)
	return printResult(cmd, report)
}
