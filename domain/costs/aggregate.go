package costs

import (
	"sort"

	lo "github.com/samber/lo"
)

// DateTotal is one point of the time-series view: summed cost for one day.
type DateTotal struct {
	Date    string  `json:"date"`
	CostUSD float64 `json:"cost_usd"`
}

// ServiceTotal is one bar of the ranked service breakdown.
type ServiceTotal struct {
	Service string  `json:"service"`
	CostUSD float64 `json:"cost_usd"`
}

// TeamTotal is summed cost for one team.
type TeamTotal struct {
	Team    string  `json:"team"`
	CostUSD float64 `json:"cost_usd"`
}

// TotalCost sums cost over the set.
func TotalCost(records []CostRecord) float64 {
	return lo.SumBy(records, func(r CostRecord) float64 { return r.CostUSD })
}

// DailyTotals groups the (already filtered) set by date and sums cost per day,
// ascending by date.
func DailyTotals(records []CostRecord) []DateTotal {
	byDate := lo.GroupBy(records, func(r CostRecord) string { return r.Date })
	out := make([]DateTotal, 0, len(byDate))
	for date, recs := range byDate {
		out = append(out, DateTotal{Date: date, CostUSD: TotalCost(recs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// TopServices groups by service, sums cost, and keeps the n most expensive
// services. Ties break on service name for a deterministic order.
func TopServices(records []CostRecord, n int) []ServiceTotal {
	byService := lo.GroupBy(records, func(r CostRecord) string { return r.Service })
	out := make([]ServiceTotal, 0, len(byService))
	for service, recs := range byService {
		out = append(out, ServiceTotal{Service: service, CostUSD: TotalCost(recs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CostUSD != out[j].CostUSD {
			return out[i].CostUSD > out[j].CostUSD
		}
		return out[i].Service < out[j].Service
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// TeamTotals groups by team and sums cost, descending by cost (name ascending
// on ties).
func TeamTotals(records []CostRecord) []TeamTotal {
	byTeam := lo.GroupBy(records, func(r CostRecord) string { return r.Team })
	out := make([]TeamTotal, 0, len(byTeam))
	for team, recs := range byTeam {
		out = append(out, TeamTotal{Team: team, CostUSD: TotalCost(recs)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CostUSD != out[j].CostUSD {
			return out[i].CostUSD > out[j].CostUSD
		}
		return out[i].Team < out[j].Team
	})
	return out
}

// TopTeam names the costliest team in the set, "N/A" when the set is empty.
func TopTeam(records []CostRecord) string {
	totals := TeamTotals(records)
	if len(totals) == 0 {
		return NoResourceID
	}
	return totals[0].Team
}

// Summary is the KPI block of the dashboard header cards.
type Summary struct {
	TotalUSD   float64 `json:"total_usd"`
	AWSUSD     float64 `json:"aws_usd"`
	GCPUSD     float64 `json:"gcp_usd"`
	Records    int     `json:"records"`
	TopTeam    string  `json:"top_team"`
	TotalTrend Trend   `json:"total_trend"`
	AWSTrend   Trend   `json:"aws_trend"`
	GCPTrend   Trend   `json:"gcp_trend"`
}

// Summarize computes the KPI block over the (filtered) set. Per-provider
// trends restrict the month-over-month windows to that provider's records.
func Summarize(records []CostRecord) Summary {
	aws := lo.Filter(records, func(r CostRecord, _ int) bool { return r.CloudProvider == ProviderAWS })
	gcp := lo.Filter(records, func(r CostRecord, _ int) bool { return r.CloudProvider == ProviderGCP })
	return Summary{
		TotalUSD:   TotalCost(records),
		AWSUSD:     TotalCost(aws),
		GCPUSD:     TotalCost(gcp),
		Records:    len(records),
		TopTeam:    TopTeam(records),
		TotalTrend: MonthOverMonth(records, nil),
		AWSTrend:   MonthOverMonth(records, func(r CostRecord) bool { return r.CloudProvider == ProviderAWS }),
		GCPTrend:   MonthOverMonth(records, func(r CostRecord) bool { return r.CloudProvider == ProviderGCP }),
	}
}
