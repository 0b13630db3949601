package costs

import (
	"strconv"
	"time"
)

// Trend is a month-over-month percentage movement for the KPI cards.
// Dir is "up" (change >= 0), "down", or "neutral" when no comparison exists.
// Val carries the signed percentage with one decimal, or "N/A".
type Trend struct {
	Dir string `json:"dir"`
	Val string `json:"val"`
}

// NeutralTrend is the undefined-comparison result: empty set, or nothing
// billed in the previous month (a division by zero is not an infinite
// increase).
func NeutralTrend() Trend { return Trend{Dir: "neutral", Val: NoResourceID} }

// MonthOverMonth compares the latest billing month against the one before it.
// The current window runs from the start of the latest data month through the
// latest data date only, so a partial month is compared against the full
// previous month. That asymmetry mirrors the dashboard's "latest data date as
// today" convention and is kept on purpose.
//
// keep optionally restricts both windows to a subset (e.g. one provider);
// nil keeps everything. The anchor date is always taken from the full set
// passed in.
func MonthOverMonth(records []CostRecord, keep func(CostRecord) bool) Trend {
	maxDate, ok := MaxDate(records)
	if !ok {
		return NeutralTrend()
	}

	curStart := time.Date(maxDate.Year(), maxDate.Month(), 1, 0, 0, 0, 0, time.UTC)
	prevStart := curStart.AddDate(0, -1, 0)
	prevEnd := curStart.AddDate(0, 0, -1)

	cur := windowSum(records, keep, curStart, maxDate)
	prev := windowSum(records, keep, prevStart, prevEnd)

	if prev == 0 {
		return NeutralTrend()
	}

	pct := (cur - prev) / prev * 100
	dir := "up"
	if pct < 0 {
		dir = "down"
	}
	return Trend{Dir: dir, Val: strconv.FormatFloat(pct, 'f', 1, 64)}
}

// windowSum sums cost over records whose date falls inside [start, end],
// inclusive on both ends. Unparseable dates never land in a window.
func windowSum(records []CostRecord, keep func(CostRecord) bool, start, end time.Time) float64 {
	var sum float64
	for _, r := range records {
		if keep != nil && !keep(r) {
			continue
		}
		d, err := ParseDay(r.Date)
		if err != nil {
			continue
		}
		if d.Before(start) || d.After(end) {
			continue
		}
		sum += r.CostUSD
	}
	return sum
}
