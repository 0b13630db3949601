package costs

import (
	"sort"
	"strings"
	"time"

	lo "github.com/samber/lo"
)

// All is the wildcard sentinel meaning "no restriction on this field".
const All = "All"

// Supported relative date-range selectors, anchored on the latest data date.
const (
	Range30Days  = "30d"
	Range90Days  = "90d"
	Range6Months = "6m"
	Range1Year   = "1y"
)

// Filter is the active filter/search state. The zero value matches everything:
// an empty field is treated like the "All" wildcard, so handlers can map query
// parameters straight onto it.
type Filter struct {
	Provider  string
	Team      string
	Env       string
	Service   string
	DateRange string
	Search    string
}

func wildcard(v string) bool { return v == "" || v == All }

// Apply returns the subset of records matching every active predicate, in the
// original relative order. The date cutoff is computed from the max date of
// the set passed in, which callers give as the entire canonical set.
func (f Filter) Apply(records []CostRecord) []CostRecord {
	if len(records) == 0 {
		return []CostRecord{}
	}

	var cutoff time.Time
	hasCutoff := false
	if !wildcard(f.DateRange) {
		if maxDate, ok := MaxDate(records); ok {
			switch f.DateRange {
			case Range30Days:
				cutoff = maxDate.AddDate(0, 0, -30)
				hasCutoff = true
			case Range90Days:
				cutoff = maxDate.AddDate(0, 0, -90)
				hasCutoff = true
			case Range6Months:
				cutoff = maxDate.AddDate(0, -6, 0)
				hasCutoff = true
			case Range1Year:
				cutoff = maxDate.AddDate(0, -12, 0)
				hasCutoff = true
			}
		}
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))

	return lo.Filter(records, func(r CostRecord, _ int) bool {
		if !wildcard(f.Provider) && r.CloudProvider != f.Provider {
			return false
		}
		if !wildcard(f.Team) && r.Team != f.Team {
			return false
		}
		if !wildcard(f.Env) && r.Env != f.Env {
			return false
		}
		if !wildcard(f.Service) && r.Service != f.Service {
			return false
		}
		if hasCutoff {
			d, err := ParseDay(r.Date)
			// An unparseable date cannot be placed in the window: no match.
			if err != nil || !d.After(cutoff) {
				return false
			}
		}
		if search != "" {
			row := strings.ToLower(r.CloudProvider + " " + r.Service + " " + r.Team + " " + r.Env + " " + r.ResourceID)
			if !strings.Contains(row, search) {
				return false
			}
		}
		return true
	})
}

// Distinct returns the deduplicated, lexicographically sorted values of one
// field with the wildcard sentinel prepended. It is computed over the
// unfiltered set so the dropdowns never lose options as other filters narrow
// the view.
func Distinct(records []CostRecord, field func(CostRecord) string) []string {
	vals := lo.Uniq(lo.Map(records, func(r CostRecord, _ int) string { return field(r) }))
	sort.Strings(vals)
	return append([]string{All}, vals...)
}
