package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/batch"
	"github.com/spigell/cv-screener/internal/config"
	"github.com/spigell/cv-screener/internal/notify"
	"github.com/spigell/cv-screener/internal/secrets"
)

var batchCmd = &cobra.Command{
	Use:   "batch <dir|file>...",
	Short: "Parse many documents concurrently",
	Long: `Parse many documents concurrently.

Directories are expanded to the regular files they contain (not recursively).
Progress events are published to RabbitMQ when notify.amqp-url is configured.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("kind", string(ai.KindResume), "document kind: resume or job")
	batchCmd.Flags().Int("concurrency", 0, "parallel documents (overrides batch.concurrency)")
	batchCmd.Flags().String("save", "", "write the batch report to this file for the review command")
}

func runBatch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	kindFlag, _ := cmd.Flags().GetString("kind")
	kind, err := ai.ParseKind(kindFlag)
	if err != nil || kind == ai.KindDepth {
		return fmt.Errorf("--kind must be resume or job, got %q", kindFlag)
	}

	s, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer s.logger.Sync()

	items, err := collectItems(args)
	if err != nil {
		return err
	}

	notifier, err := newNotifier(s.cfg.Notify, s.logger)
	if err != nil {
		// Progress events are optional; the batch itself still runs.
		s.logger.Warn("batch events disabled", zap.Error(err))
		notifier = notify.Nop{}
	}
	defer notifier.Close()

	concurrency := s.cfg.Batch.Concurrency
	if v, _ := cmd.Flags().GetInt("concurrency"); v > 0 {
		concurrency = v
	}

	rep, err := batch.New(s.pipeline, concurrency, notifier, s.logger).Run(ctx, kind, items)
	if err != nil {
		return err
	}

	s.logger.Info("batch finished",
		zap.String("batch_id", rep.BatchID),
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("needs_review", rep.NeedsReview),
		zap.Int("failed", rep.Failed),
		zap.Float64("cost", rep.Cost),
	)

	if path, _ := cmd.Flags().GetString("save"); path != "" {
		if err := writeJSONFile(path, rep); err != nil {
			return fmt.Errorf("saving report: %w", err)
		}
		s.logger.Info("batch report saved", zap.String("filename", path))
	}

	return printResult(cmd, rep)
}

// collectItems reads every argument into a batch item. Directories contribute
// their regular files in name order.
func collectItems(args []string) ([]batch.Item, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, e := range entries {
			if e.Type().IsRegular() {
				files = append(files, filepath.Join(arg, e.Name()))
			}
		}
		sort.Strings(files)
		paths = append(paths, files...)
	}

	if len(paths) > batch.MaxItems {
		return nil, fmt.Errorf("%w: got %d files", batch.ErrTooManyItems, len(paths))
	}

	items := make([]batch.Item, 0, len(paths))
	for _, path := range paths {
		text, err := readDocument(path)
		if err != nil {
			return nil, err
		}
		items = append(items, batch.Item{File: path, Text: text})
	}
	return items, nil
}

func newNotifier(cfg config.Notify, l *zap.Logger) (notify.Notifier, error) {
	if !cfg.Enabled() {
		return notify.Nop{}, nil
	}

	url, err := secrets.Load(secrets.Source{
		Name:  "amqp url",
		Value: cfg.AMQPURL,
		File:  cfg.AMQPURLFile,
	})
	if err != nil {
		return nil, err
	}
	return notify.DialAMQP(url, cfg.Exchange, l)
}
