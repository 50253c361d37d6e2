package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/cv-screener/internal/batch"
	"github.com/spigell/cv-screener/internal/pipeline"
	"github.com/spigell/cv-screener/internal/records"
)

const (
	PromptAccept       = "Accept"
	PromptReject       = "Reject"
	PromptShowDetails  = "Show details"
	PromptBack         = "back"
	PromptSaveAndExit  = "Save and exit"
	PromptExitNoSaving = "Exit without saving"
)

var errNothingToReview = errors.New("no records need review")

var reviewCmd = &cobra.Command{
	Use:   "review <batch-report.json>",
	Short: "Interactively accept or reject records that need manual review",
	Args:  cobra.ExactArgs(1),
	RunE:  runReview,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	l := newLogger()
	defer l.Sync()

	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var rep batch.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	if len(pendingReviews(&rep)) == 0 {
		l.Info("exiting", zap.String("reason", errNothingToReview.Error()))
		return nil
	}

	for {
		pending := pendingReviews(&rep)

		items := make([]string, 0, len(pending)+2)
		for _, idx := range pending {
			items = append(items, reviewLabel(rep.Results[idx]))
		}

		recordPrompt := promptui.Select{
			Label: fmt.Sprintf("Records waiting for review: %d. Choose one and press ENTER", len(pending)),
			Items: append(items, PromptSaveAndExit, PromptExitNoSaving),
			Size:  10,
		}

		pos, selected, err := recordPrompt.Run()
		if err != nil {
			return err
		}

		switch selected {
		case PromptSaveAndExit:
			if err := writeJSONFile(path, &rep); err != nil {
				return err
			}
			l.Info("review saved", zap.String("filename", path), zap.Int("still_pending", len(pending)))
			return nil
		case PromptExitNoSaving:
			l.Info("exiting", zap.String("reason", "changes discarded"))
			return nil
		}

		if err := reviewOne(l, &rep, pending[pos]); err != nil {
			return err
		}
	}
}

func reviewOne(l *zap.Logger, rep *batch.Report, idx int) error {
	for {
		actionPrompt := promptui.Select{
			Label: reviewLabel(rep.Results[idx]),
			Items: []string{PromptAccept, PromptReject, PromptShowDetails, PromptBack},
		}

		_, action, err := actionPrompt.Run()
		if err != nil {
			return err
		}

		switch action {
		case PromptBack:
			return nil
		case PromptShowDetails:
			pretty, _ := json.MarshalIndent(rep.Results[idx].Outcome, "", "  ")
			l.Info(string(pretty), zap.String("file", rep.Results[idx].File))
		case PromptAccept, PromptReject:
			if err := decide(rep, idx, action == PromptAccept); err != nil {
				return err
			}
			l.Info("record reviewed", zap.String("file", rep.Results[idx].File), zap.String("decision", strings.ToLower(action)))
			return nil
		default:
			return fmt.Errorf("invalid action: %s", action)
		}
	}
}

// pendingReviews returns the indexes of results still waiting for a decision.
func pendingReviews(rep *batch.Report) []int {
	var out []int
	for i, res := range rep.Results {
		if res.Status == batch.StatusNeedsReview && res.Outcome != nil {
			out = append(out, i)
		}
	}
	return out
}

// decide records a manual decision on a needs_review result and keeps the
// report totals consistent.
func decide(rep *batch.Report, idx int, accept bool) error {
	if idx < 0 || idx >= len(rep.Results) {
		return fmt.Errorf("no result at index %d", idx)
	}
	res := &rep.Results[idx]
	if res.Status != batch.StatusNeedsReview || res.Outcome == nil {
		return fmt.Errorf("result %d does not need review", idx)
	}

	status, outcomeStatus, recordStatus := batch.StatusSuccess, pipeline.StatusAccepted, records.StatusCompleted
	if !accept {
		status, outcomeStatus, recordStatus = batch.StatusError, pipeline.StatusFailed, records.StatusFailed
		res.Error = "rejected during manual review"
	}

	res.Status = status
	res.Outcome.Status = outcomeStatus
	if c := res.Outcome.Candidate; c != nil {
		c.ParseStatus = recordStatus
	}
	if j := res.Outcome.Job; j != nil {
		j.ParseStatus = recordStatus
	}

	rep.NeedsReview--
	if accept {
		rep.Succeeded++
	} else {
		rep.Failed++
	}
	return nil
}

func reviewLabel(res batch.ItemResult) string {
	name := res.File
	if out := res.Outcome; out != nil {
		switch {
		case out.Candidate != nil && out.Candidate.Name != "":
			name = out.Candidate.Name
		case out.Job != nil && out.Job.Title != "":
			name = out.Job.Title
		}
		return fmt.Sprintf("%d %s / %s / confidence %d", res.Index, name, res.File, out.Confidence)
	}
	return fmt.Sprintf("%d %s", res.Index, name)
}
