// Package batch parses many documents with bounded concurrency.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/cv-screener/internal/ai"
	"github.com/spigell/cv-screener/internal/logger"
	"github.com/spigell/cv-screener/internal/notify"
	"github.com/spigell/cv-screener/internal/pipeline"
)

const (
	MaxItems           = 50
	DefaultConcurrency = 5
)

var (
	ErrNoItems      = errors.New("no items to process")
	ErrTooManyItems = fmt.Errorf("too many items: maximum %d per batch", MaxItems)
)

// Item statuses.
const (
	StatusSuccess     = "success"
	StatusNeedsReview = "needs_review"
	StatusError       = "error"
)

type Item struct {
	File string
	Text string
}

type ItemResult struct {
	Index   int               `json:"index" yaml:"index"`
	File    string            `json:"file" yaml:"file"`
	Status  string            `json:"status" yaml:"status"`
	Error   string            `json:"error,omitempty" yaml:"error,omitempty"`
	Outcome *pipeline.Outcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

type Report struct {
	BatchID     string       `json:"batch_id" yaml:"batch_id"`
	Total       int          `json:"total" yaml:"total"`
	Succeeded   int          `json:"succeeded" yaml:"succeeded"`
	NeedsReview int          `json:"needs_review" yaml:"needs_review"`
	Failed      int          `json:"failed" yaml:"failed"`
	Cost        float64      `json:"cost" yaml:"cost"`
	Results     []ItemResult `json:"results" yaml:"results"`
}

// Parser is the part of the orchestrator a batch needs.
type Parser interface {
	Run(ctx context.Context, kind ai.Kind, text string) (*pipeline.Outcome, error)
}

type Runner struct {
	parser      Parser
	concurrency int
	notifier    notify.Notifier
	logger      *zap.Logger
}

func New(parser Parser, concurrency int, notifier notify.Notifier, log *zap.Logger) *Runner {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Runner{
		parser:      parser,
		concurrency: concurrency,
		notifier:    notifier,
		logger:      logger.WithFields(log),
	}
}

// Run parses every item. A failing item never stops the others; results keep
// the input order.
func (r *Runner) Run(ctx context.Context, kind ai.Kind, items []Item) (*Report, error) {
	switch {
	case len(items) == 0:
		return nil, ErrNoItems
	case len(items) > MaxItems:
		return nil, ErrTooManyItems
	}

	rep := &Report{
		BatchID: uuid.NewString(),
		Total:   len(items),
		Results: make([]ItemResult, len(items)),
	}
	log := logger.WithRequest(r.logger, rep.BatchID, string(kind))
	log.Info("batch started", zap.Int("items", len(items)), zap.Int("concurrency", r.concurrency))

	var (
		mu        sync.Mutex
		completed int
	)

	g := new(errgroup.Group)
	g.SetLimit(r.concurrency)
	for i, item := range items {
		g.Go(func() error {
			res := r.process(ctx, kind, i, item)

			mu.Lock()
			rep.Results[i] = res
			completed++
			done := completed
			mu.Unlock()

			ilog := log.With(zap.Int("index", i), zap.String("file", item.File))
			if res.Status == StatusError {
				ilog.Warn("batch item failed", zap.String("error", res.Error))
			} else {
				ilog.Debug("batch item done", zap.String("status", res.Status))
			}

			r.publish(ctx, log, notify.Event{
				BatchID:   rep.BatchID,
				Type:      notify.EventItemDone,
				Index:     i,
				File:      item.File,
				Status:    res.Status,
				Error:     res.Error,
				Completed: done,
				Total:     rep.Total,
				Timestamp: time.Now().UTC(),
			})
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range rep.Results {
		switch res.Status {
		case StatusSuccess:
			rep.Succeeded++
		case StatusNeedsReview:
			rep.NeedsReview++
		default:
			rep.Failed++
		}
		if res.Outcome != nil {
			rep.Cost += res.Outcome.Cost
		}
	}

	r.publish(ctx, log, notify.Event{
		BatchID:   rep.BatchID,
		Type:      notify.EventBatchDone,
		Completed: rep.Total,
		Total:     rep.Total,
		Timestamp: time.Now().UTC(),
	})

	log.Info("batch finished",
		zap.Int("succeeded", rep.Succeeded),
		zap.Int("needs_review", rep.NeedsReview),
		zap.Int("failed", rep.Failed),
		zap.Float64("cost_usd", rep.Cost),
	)
	return rep, nil
}

func (r *Runner) process(ctx context.Context, kind ai.Kind, index int, item Item) (res ItemResult) {
	res = ItemResult{Index: index, File: item.File}
	defer func() {
		if p := recover(); p != nil {
			res.Status = StatusError
			res.Error = fmt.Sprintf("panic: %v", p)
			res.Outcome = nil
		}
	}()

	out, err := r.parser.Run(ctx, kind, item.Text)
	if err != nil {
		res.Status = StatusError
		res.Error = err.Error()
		return res
	}

	res.Outcome = out
	res.Status = StatusSuccess
	if out.Status == pipeline.StatusNeedsReview {
		res.Status = StatusNeedsReview
	}
	return res
}

func (r *Runner) publish(ctx context.Context, log *zap.Logger, ev notify.Event) {
	if err := r.notifier.Publish(ctx, ev); err != nil {
		log.Warn("batch event not delivered", zap.String("type", ev.Type), zap.Error(err))
	}
}
