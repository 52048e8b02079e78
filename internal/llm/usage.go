package llm

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// UsageRecord describes one completed LLM call
type UsageRecord struct {
	Agent        string
	Model        string
	InputTokens  int
	OutputTokens int
	Duration     time.Duration
	At           time.Time
}

// UsageSink persists usage records
type UsageSink interface {
	RecordUsage(UsageRecord) error
}

// UsageTracker accumulates call statistics for the process. It is safe for
// concurrent use.
type UsageTracker struct {
	mu           sync.Mutex
	calls        int
	inputTokens  int
	outputTokens int
	elapsed      time.Duration
	sink         UsageSink
}

// NewUsageTracker creates a tracker; sink may be nil
func NewUsageTracker(sink UsageSink) *UsageTracker {
	return &UsageTracker{sink: sink}
}

// Record adds one call. usage may be nil when the provider reported nothing.
// Sink failures are returned but the totals are always updated.
func (t *UsageTracker) Record(agent, model string, elapsed time.Duration, usage *Usage) error {
	rec := UsageRecord{Agent: agent, Model: model, Duration: elapsed, At: time.Now()}
	if usage != nil {
		rec.InputTokens = usage.Input()
		rec.OutputTokens = usage.Output()
	}

	t.mu.Lock()
	t.calls++
	t.elapsed += elapsed
	t.inputTokens += rec.InputTokens
	t.outputTokens += rec.OutputTokens
	sink := t.sink
	t.mu.Unlock()

	if sink != nil {
		if err := sink.RecordUsage(rec); err != nil {
			return fmt.Errorf("failed to persist usage: %w", err)
		}
	}
	return nil
}

// Reset clears the totals
func (t *UsageTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls, t.inputTokens, t.outputTokens, t.elapsed = 0, 0, 0, 0
}

// UsageTotals is a snapshot of the tracker
type UsageTotals struct {
	Calls        int
	InputTokens  int
	OutputTokens int
	Elapsed      time.Duration
}

// TotalTokens returns input plus output tokens
func (u UsageTotals) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// OutputTPS returns output tokens per second, 0 when no time was recorded
func (u UsageTotals) OutputTPS() float64 {
	if u.Elapsed <= 0 {
		return 0
	}
	return float64(u.OutputTokens) / u.Elapsed.Seconds()
}

// Totals returns a snapshot of the counters
func (t *UsageTracker) Totals() UsageTotals {
	t.mu.Lock()
	defer t.mu.Unlock()
	return UsageTotals{Calls: t.calls, InputTokens: t.inputTokens, OutputTokens: t.outputTokens, Elapsed: t.elapsed}
}

// Summary renders the statistics block, or "" when no call was made
func (t *UsageTracker) Summary() string {
	return FormatSummary(t.Totals())
}

// FormatSummary renders totals in the statistics block format
func FormatSummary(u UsageTotals) string {
	if u.Calls == 0 {
		return ""
	}
	rule := strings.Repeat("=", 40)
	lines := []string{
		"\n" + rule,
		"📊 LLM USAGE STATISTICS",
		rule,
		fmt.Sprintf("Total LLM Calls    : %d", u.Calls),
		fmt.Sprintf("Total Input Tokens : %d", u.InputTokens),
		fmt.Sprintf("Total Output Tokens: %d", u.OutputTokens),
		fmt.Sprintf("Total Tokens       : %d", u.TotalTokens()),
		fmt.Sprintf("Total Time         : %.2fs", u.Elapsed.Seconds()),
		fmt.Sprintf("Output TPS (avg)   : %.2f tokens/s", u.OutputTPS()),
		rule,
	}
	return strings.Join(lines, "\n")
}
