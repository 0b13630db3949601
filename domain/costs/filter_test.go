package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSet() []CostRecord {
	return []CostRecord{
		{Date: "2024-03-15", Service: "EC2", Team: "infra", Env: "prod", CostUSD: 10, CloudProvider: ProviderAWS, ResourceID: "acc-1"},
		{Date: "2024-03-10", Service: "BigQuery", Team: "data", Env: "prod", CostUSD: 20, CloudProvider: ProviderGCP, ResourceID: "proj-1"},
		{Date: "2024-02-01", Service: "S3", Team: "infra", Env: "staging", CostUSD: 5, CloudProvider: ProviderAWS, ResourceID: "acc-1"},
		{Date: "2023-06-01", Service: "GCS", Team: "ml", Env: "dev", CostUSD: 7, CloudProvider: ProviderGCP, ResourceID: "proj-2"},
	}
}

func TestFilterApply(t *testing.T) {
	set := sampleSet()

	t.Run("zero value matches everything", func(t *testing.T) {
		assert.Equal(t, set, Filter{}.Apply(set))
	})

	t.Run("All wildcards match everything", func(t *testing.T) {
		f := Filter{Provider: All, Team: All, Env: All, Service: All, DateRange: All}
		assert.Equal(t, set, f.Apply(set))
	})

	t.Run("provider filter keeps only that provider", func(t *testing.T) {
		out := Filter{Provider: ProviderAWS}.Apply(set)
		require.Len(t, out, 2)
		for _, r := range out {
			assert.Equal(t, ProviderAWS, r.CloudProvider)
		}
	})

	t.Run("predicates intersect", func(t *testing.T) {
		out := Filter{Provider: ProviderAWS, Env: "prod"}.Apply(set)
		require.Len(t, out, 1)
		assert.Equal(t, "EC2", out[0].Service)
	})

	t.Run("team match is exact and case-sensitive", func(t *testing.T) {
		assert.Empty(t, Filter{Team: "Infra"}.Apply(set))
		assert.Len(t, Filter{Team: "infra"}.Apply(set), 2)
	})

	t.Run("relative order is preserved", func(t *testing.T) {
		out := Filter{Provider: ProviderGCP}.Apply(set)
		require.Len(t, out, 2)
		assert.Equal(t, "BigQuery", out[0].Service)
		assert.Equal(t, "GCS", out[1].Service)
	})

	t.Run("empty set yields empty result", func(t *testing.T) {
		assert.Empty(t, Filter{Provider: ProviderAWS, DateRange: Range30Days}.Apply(nil))
	})
}

func TestFilterDateRange(t *testing.T) {
	set := sampleSet() // max date 2024-03-15

	t.Run("30d cutoff is strictly after max minus 30 days", func(t *testing.T) {
		// cutoff = 2024-02-14: keeps the two March records only.
		out := Filter{DateRange: Range30Days}.Apply(set)
		require.Len(t, out, 2)
		assert.Equal(t, "2024-03-15", out[0].Date)
		assert.Equal(t, "2024-03-10", out[1].Date)
	})

	t.Run("record exactly on the cutoff is excluded", func(t *testing.T) {
		recs := []CostRecord{
			{Date: "2024-03-31", CostUSD: 1},
			{Date: "2024-03-02", CostUSD: 1},
			{Date: "2024-03-01", CostUSD: 1}, // == maxDate - 30d
		}
		out := Filter{DateRange: Range30Days}.Apply(recs)
		require.Len(t, out, 2)
		assert.Equal(t, "2024-03-02", out[1].Date)
	})

	t.Run("90d window", func(t *testing.T) {
		out := Filter{DateRange: Range90Days}.Apply(set)
		assert.Len(t, out, 3) // everything but 2023-06-01
	})

	t.Run("6m and 1y windows", func(t *testing.T) {
		assert.Len(t, Filter{DateRange: Range6Months}.Apply(set), 3)
		assert.Len(t, Filter{DateRange: Range1Year}.Apply(set), 4)
	})

	t.Run("cutoff is anchored on the whole set, not the filtered subset", func(t *testing.T) {
		// The GCP-only subset has max 2024-03-10, but the anchor stays
		// 2024-03-15 from the full set.
		out := Filter{Provider: ProviderGCP, DateRange: Range30Days}.Apply(set)
		require.Len(t, out, 1)
		assert.Equal(t, "BigQuery", out[0].Service)
	})

	t.Run("unparseable record date never matches an active range", func(t *testing.T) {
		recs := append(sampleSet(), CostRecord{Date: "garbage", CostUSD: 1, CloudProvider: ProviderAWS})
		out := Filter{DateRange: Range1Year}.Apply(recs)
		for _, r := range out {
			assert.NotEqual(t, "garbage", r.Date)
		}
	})
}

func TestFilterSearch(t *testing.T) {
	set := sampleSet()

	t.Run("case-insensitive substring over provider service team env resource id", func(t *testing.T) {
		out := Filter{Search: "ec2"}.Apply(set)
		require.Len(t, out, 1)
		assert.Equal(t, "EC2", out[0].Service)

		out = Filter{Search: "PROJ-2"}.Apply(set)
		require.Len(t, out, 1)
		assert.Equal(t, "GCS", out[0].Service)
	})

	t.Run("whitespace-only search matches everything", func(t *testing.T) {
		assert.Len(t, Filter{Search: "   "}.Apply(set), len(set))
	})
}

// Removing one active filter can only grow or preserve the result set.
func TestFilterMonotonicity(t *testing.T) {
	set := sampleSet()
	full := Filter{Provider: ProviderAWS, Team: "infra", Env: "prod", DateRange: Range90Days, Search: "acc"}
	base := len(full.Apply(set))

	relaxed := []Filter{
		{Team: "infra", Env: "prod", DateRange: Range90Days, Search: "acc"},
		{Provider: ProviderAWS, Env: "prod", DateRange: Range90Days, Search: "acc"},
		{Provider: ProviderAWS, Team: "infra", DateRange: Range90Days, Search: "acc"},
		{Provider: ProviderAWS, Team: "infra", Env: "prod", Search: "acc"},
		{Provider: ProviderAWS, Team: "infra", Env: "prod", DateRange: Range90Days},
	}
	for _, f := range relaxed {
		assert.GreaterOrEqual(t, len(f.Apply(set)), base)
	}
}

func TestDistinct(t *testing.T) {
	set := sampleSet()

	t.Run("sorted with All first, no duplicates", func(t *testing.T) {
		teams := Distinct(set, func(r CostRecord) string { return r.Team })
		assert.Equal(t, []string{All, "data", "infra", "ml"}, teams)
	})

	t.Run("reflects the unfiltered set", func(t *testing.T) {
		services := Distinct(set, func(r CostRecord) string { return r.Service })
		assert.Equal(t, []string{All, "BigQuery", "EC2", "GCS", "S3"}, services)
	})

	t.Run("empty set yields just the wildcard", func(t *testing.T) {
		assert.Equal(t, []string{All}, Distinct(nil, func(r CostRecord) string { return r.Team }))
	})
}
