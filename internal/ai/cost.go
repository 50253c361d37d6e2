package ai

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"
)

// Pricing is the USD price per thousand tokens.
type Pricing struct {
	InputPer1K  float64 `mapstructure:"input-per-1k" json:"input_per_1k"`
	OutputPer1K float64 `mapstructure:"output-per-1k" json:"output_per_1k"`
}

func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*p.InputPer1K + float64(outputTokens)/1000*p.OutputPer1K
}

// EstimateTokens approximates the token count of s at four characters per token.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}

// Budget caps total spend per calendar day (UTC). It is shared by every
// provider and safe for concurrent use; a nil Budget allows everything.
type Budget struct {
	mu    sync.Mutex
	limit float64
	spent float64
	day   string
	now   func() time.Time
}

func NewBudget(dailyLimit float64) *Budget {
	return &Budget{limit: dailyLimit, now: time.Now}
}

func (b *Budget) roll() {
	day := b.now().UTC().Format(time.DateOnly)
	if day != b.day {
		b.day = day
		b.spent = 0
	}
}

// Allow reports whether an estimated charge still fits into today's budget.
func (b *Budget) Allow(estimate float64) error {
	if b == nil || b.limit <= 0 {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	if b.spent+estimate > b.limit {
		return fmt.Errorf("%w: spent %.4f of daily %.2f USD", ErrBudgetExceeded, b.spent, b.limit)
	}
	return nil
}

// Add records an actual charge.
func (b *Budget) Add(cost float64) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	b.spent += cost
}

func (b *Budget) Spent() float64 {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.roll()
	return b.spent
}
