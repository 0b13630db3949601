// Package costs holds the normalization and derivation pipeline behind the
// cloud cost dashboard: vendor exports in, one canonical record set out, and
// pure filtered/aggregated views over that set.
package costs

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CostRecord represents one normalized billing line item, whatever the vendor.
type CostRecord struct {
	Date          string  `json:"date"`     // ISO day, e.g. "2024-01-05"
	Service       string  `json:"service"`  // vendor service name ("EC2", "BigQuery")
	Team          string  `json:"team"`     // cost-attribution label
	Env           string  `json:"env"`      // environment tag ("prod", "staging", ...)
	CostUSD       float64 `json:"cost_usd"`
	CloudProvider string  `json:"cloud_provider"` // "AWS" or "GCP"
	ResourceID    string  `json:"resource_id"`    // account id / project id, "N/A" when absent
}

// Provider tags attached at ingestion. The set is open; these are the two the
// dashboard ships with.
const (
	ProviderAWS = "AWS"
	ProviderGCP = "GCP"
)

// NoResourceID is the sentinel used when a row carries no identifier column.
const NoResourceID = "N/A"

const dayLayout = "2006-01-02"

// ParseDay parses an ISO day string as carried by CostRecord.Date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(dayLayout, strings.TrimSpace(s))
}

// Normalize maps one provider's raw export rows onto CostRecords.
// date, service, team and env are copied verbatim; cost_usd must parse as a
// number or the whole pass fails (a silent zero would poison every sum
// downstream); resource_id is the first non-empty of idColumns, else "N/A".
func Normalize(rows []map[string]string, provider string, idColumns []string) ([]CostRecord, error) {
	records := make([]CostRecord, 0, len(rows))
	for i, row := range rows {
		raw, ok := row["cost_usd"]
		cost, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if !ok || err != nil {
			return nil, fmt.Errorf("%s row %d: cost_usd %q is not a number", provider, i+1, raw)
		}
		id := NoResourceID
		for _, col := range idColumns {
			if v := strings.TrimSpace(row[col]); v != "" {
				id = v
				break
			}
		}
		records = append(records, CostRecord{
			Date:          row["date"],
			Service:       row["service"],
			Team:          row["team"],
			Env:           row["env"],
			CostUSD:       cost,
			CloudProvider: provider,
			ResourceID:    id,
		})
	}
	return records, nil
}

// Merge concatenates the per-provider sets in argument order, then sorts by
// date descending. The sort is stable, so same-day records keep their
// first-provider-first concatenation order. ISO day strings compare
// lexicographically in chronological order.
func Merge(sets ...[]CostRecord) []CostRecord {
	all := []CostRecord{}
	for _, s := range sets {
		all = append(all, s...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Date > all[j].Date })
	return all
}

// MaxDate returns the latest parseable record date. ok is false for an empty
// set (or one with no parseable dates at all).
func MaxDate(records []CostRecord) (time.Time, bool) {
	var max time.Time
	found := false
	for _, r := range records {
		d, err := ParseDay(r.Date)
		if err != nil {
			continue
		}
		if !found || d.After(max) {
			max = d
			found = true
		}
	}
	return max, found
}
