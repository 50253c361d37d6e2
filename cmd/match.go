package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/export"
	"github.com/spigell/cv-screener/internal/filtering"
	"github.com/spigell/cv-screener/internal/records"
)

var matchCmd = &cobra.Command{
	Use:   "match --job <job-file> <candidate-file>...",
	Short: "Score and rank candidates against a job",
	Long: `Score and rank candidates against a job.

Files ending in .json are read as already structured records. Any other file is
treated as raw text and parsed first, which requires configured providers.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().String("job", "", "job description (.json profile or raw text)")
	matchCmd.Flags().Int("min-score", -1, "drop matches below this overall score (overrides matching.filters.min-score)")
	matchCmd.Flags().Int("max-results", -1, "keep at most this many matches (overrides matching.filters.max-results)")
	matchCmd.Flags().StringSlice("disable-filter", nil, "filter steps to skip, by name")
	matchCmd.Flags().String("xlsx", "", "also write the ranking to this spreadsheet")
	matchCmd.MarkFlagRequired("job")
}

func isRecordFile(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	jobPath, _ := cmd.Flags().GetString("job")

	needProviders := !isRecordFile(jobPath)
	for _, path := range args {
		if !isRecordFile(path) {
			needProviders = true
		}
	}

	s, err := setup(ctx, needProviders)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	job, err := loadJob(ctx, s, jobPath)
	if err != nil {
		return err
	}

	candidates := make([]*records.Candidate, 0, len(args))
	for _, path := range args {
		c, err := loadCandidate(ctx, s, path)
		if err != nil {
			// One unreadable resume should not sink the ranking.
			s.logger.Warn("skipping candidate", zap.String("file", path), zap.Error(err))
			continue
		}
		candidates = append(candidates, c)
	}
	if len(candidates) == 0 {
		return fmt.Errorf("no candidates could be loaded")
	}

	cfg := s.cfg.Matching.Filters
	if v, _ := cmd.Flags().GetInt("min-score"); v >= 0 {
		cfg.MinScore = v
	}
	if v, _ := cmd.Flags().GetInt("max-results"); v >= 0 {
		cfg.MaxResults = v
	}

	steps := filtering.Default()
	disabled, _ := cmd.Flags().GetStringSlice("disable-filter")
	for _, name := range disabled {
		filtering.DisableByName(steps, name, "disabled by flag")
	}

	ranked := s.matcher.ScoreAll(candidates, job)
	filtered, err := filtering.Run(ctx, &cfg, filtering.Deps{Logger: s.logger}, steps, &filtering.Matches{Items: ranked})
	if err != nil {
		return fmt.Errorf("filtering failed: %w", err)
	}

	s.logger.Info("candidates ranked",
		zap.String("job", job.Title),
		zap.Int("scored", len(ranked)),
		zap.Int("kept", filtered.Len()),
	)

	if path, _ := cmd.Flags().GetString("xlsx"); path != "" {
		if err := writeWorkbook(path, filtered, candidates); err != nil {
			return fmt.Errorf("export to %s: %w", path, err)
		}
		s.logger.Info("ranking exported", zap.String("filename", path))
	}

	return printResult(cmd, filtered.Items)
}

func loadJob(ctx context.Context, s *screener, path string) (*records.JobProfile, error) {
	text, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if isRecordFile(path) {
		job, err := records.DecodeJob(text)
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
		job.Normalize()
		return job, nil
	}

	out, err := s.pipeline.Run(ctx, ai.KindJob, text)
	if err != nil {
		return nil, err
	}
	return out.Job, nil
}

func loadCandidate(ctx context.Context, s *screener, path string) (*records.Candidate, error) {
	text, err := readDocument(path)
	if err != nil {
		return nil, err
	}

	var c *records.Candidate
	if isRecordFile(path) {
		c, err = records.DecodeCandidate(text)
		if err != nil {
			return nil, fmt.Errorf("decode: %w", err)
		}
	} else {
		out, err := s.pipeline.Run(ctx, ai.KindResume, text)
		if err != nil {
			return nil, err
		}
		c = out.Candidate
	}

	if c.Name == "" {
		c.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if c.Source == "" {
		c.Source = path
	}
	return c, nil
}

func writeWorkbook(path string, m *filtering.Matches, candidates []*records.Candidate) error {
	wb := export.NewWorkbook()
	defer wb.Close()

	if err := wb.AddMatches(m.Items); err != nil {
		return err
	}
	if err := wb.AddCandidates(candidates); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := wb.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
