package collect

import (
	"fmt"
	"sync"
)

// Result is the outcome of one pipeline run. It is not persisted; the
// caller owns resumption (pass NextRegionIndex back in as the new start).
type Result struct {
	Kind    string   `json:"kind"`
	Success bool     `json:"success"`
	Fetched int      `json:"fetched"`
	Saved   int      `json:"saved"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
	Summary string   `json:"summary"`

	LastRegionCode  string `json:"last_region_code,omitempty"`
	LastPeriod      string `json:"last_period,omitempty"`
	NextRegionIndex int    `json:"next_region_index"`
	BudgetUsed      int    `json:"budget_used"`
}

// collector accumulates a Result across concurrent region workers. Record
// failures append, bounded; they never abort the run.
type collector struct {
	mu        sync.Mutex
	result    Result
	maxErrors int
	truncated bool
}

func newCollector(kind string, maxErrors int) *collector {
	return &collector{
		result:    Result{Kind: kind, Success: true},
		maxErrors: maxErrors,
	}
}

func (c *collector) addFetched(n int) {
	c.mu.Lock()
	c.result.Fetched += n
	c.mu.Unlock()
}

func (c *collector) addSaved(n int) {
	c.mu.Lock()
	c.result.Saved += n
	c.mu.Unlock()
}

func (c *collector) addSkipped(n int) {
	c.mu.Lock()
	c.result.Skipped += n
	c.mu.Unlock()
}

func (c *collector) addError(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.maxErrors > 0 && len(c.result.Errors) >= c.maxErrors {
		if !c.truncated {
			c.result.Errors = append(c.result.Errors, "further errors omitted")
			c.truncated = true
		}
		return
	}
	c.result.Errors = append(c.result.Errors, fmt.Sprintf(format, args...))
}

func (c *collector) markProgress(regionCode, periodStr string) {
	c.mu.Lock()
	c.result.LastRegionCode = regionCode
	if periodStr != "" {
		c.result.LastPeriod = periodStr
	}
	c.mu.Unlock()
}

// fail marks the whole run failed; used only for setup errors before any
// write happened.
func (c *collector) fail(format string, args ...any) *Result {
	c.mu.Lock()
	c.result.Success = false
	c.result.Errors = append(c.result.Errors, fmt.Sprintf(format, args...))
	c.mu.Unlock()
	return c.finish(0, 0)
}

func (c *collector) finish(nextRegionIndex, budgetUsed int) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.result.NextRegionIndex = nextRegionIndex
	c.result.BudgetUsed = budgetUsed
	c.result.Summary = fmt.Sprintf(
		"%s: fetched=%d saved=%d skipped=%d errors=%d budget_used=%d",
		c.result.Kind, c.result.Fetched, c.result.Saved, c.result.Skipped,
		len(c.result.Errors), budgetUsed,
	)
	out := c.result
	return &out
}
