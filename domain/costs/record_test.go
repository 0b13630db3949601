package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Run("maps raw rows onto canonical records", func(t *testing.T) {
		rows := []map[string]string{
			{"date": "2024-01-05", "service": "EC2", "team": "infra", "env": "prod", "cost_usd": "12.50", "account_id": "acc-1"},
		}
		records, err := Normalize(rows, ProviderAWS, []string{"account_id", "project_id"})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, CostRecord{
			Date:          "2024-01-05",
			Service:       "EC2",
			Team:          "infra",
			Env:           "prod",
			CostUSD:       12.50,
			CloudProvider: "AWS",
			ResourceID:    "acc-1",
		}, records[0])
	})

	t.Run("falls back through identifier columns", func(t *testing.T) {
		rows := []map[string]string{
			{"date": "2024-01-05", "service": "EC2", "team": "infra", "env": "prod", "cost_usd": "1", "project_id": "proj-9"},
		}
		records, err := Normalize(rows, ProviderAWS, []string{"account_id", "project_id"})
		require.NoError(t, err)
		assert.Equal(t, "proj-9", records[0].ResourceID)
	})

	t.Run("uses N/A sentinel when no identifier is present", func(t *testing.T) {
		rows := []map[string]string{
			{"date": "2024-01-05", "service": "EC2", "team": "infra", "env": "prod", "cost_usd": "1"},
		}
		records, err := Normalize(rows, ProviderGCP, []string{"project_id"})
		require.NoError(t, err)
		assert.Equal(t, NoResourceID, records[0].ResourceID)
		assert.Equal(t, "GCP", records[0].CloudProvider)
	})

	t.Run("rejects a non-numeric cost instead of coercing to zero", func(t *testing.T) {
		rows := []map[string]string{
			{"date": "2024-01-05", "service": "EC2", "team": "infra", "env": "prod", "cost_usd": "12.50"},
			{"date": "2024-01-06", "service": "S3", "team": "infra", "env": "prod", "cost_usd": "oops"},
		}
		_, err := Normalize(rows, ProviderAWS, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "row 2")
		assert.Contains(t, err.Error(), "oops")
	})

	t.Run("rejects a missing cost column", func(t *testing.T) {
		rows := []map[string]string{
			{"date": "2024-01-05", "service": "EC2", "team": "infra", "env": "prod"},
		}
		_, err := Normalize(rows, ProviderAWS, nil)
		require.Error(t, err)
	})

	t.Run("empty input yields empty output, not an error", func(t *testing.T) {
		records, err := Normalize(nil, ProviderAWS, nil)
		require.NoError(t, err)
		assert.Empty(t, records)
	})
}

func TestMerge(t *testing.T) {
	aws := []CostRecord{
		{Date: "2024-01-05", Service: "EC2", CloudProvider: ProviderAWS},
		{Date: "2024-01-06", Service: "S3", CloudProvider: ProviderAWS},
	}
	gcp := []CostRecord{
		{Date: "2024-01-06", Service: "BigQuery", CloudProvider: ProviderGCP},
		{Date: "2024-01-04", Service: "GCS", CloudProvider: ProviderGCP},
	}

	merged := Merge(aws, gcp)
	require.Len(t, merged, 4)

	t.Run("sorts by date descending", func(t *testing.T) {
		assert.Equal(t, "2024-01-06", merged[0].Date)
		assert.Equal(t, "2024-01-06", merged[1].Date)
		assert.Equal(t, "2024-01-05", merged[2].Date)
		assert.Equal(t, "2024-01-04", merged[3].Date)
	})

	t.Run("same-day ties keep first-provider-first order", func(t *testing.T) {
		assert.Equal(t, "S3", merged[0].Service)
		assert.Equal(t, "BigQuery", merged[1].Service)
	})
}

// The two-provider scenario from the dashboard's reference data.
func TestNormalizeMergeScenario(t *testing.T) {
	awsRows := []map[string]string{
		{"date": "2024-01-05", "service": "EC2", "team": "infra", "env": "prod", "cost_usd": "12.50", "account_id": "acc-1"},
	}
	gcpRows := []map[string]string{
		{"date": "2024-01-06", "service": "BigQuery", "team": "data", "env": "prod", "cost_usd": "7.25", "project_id": "proj-1"},
	}

	aws, err := Normalize(awsRows, ProviderAWS, []string{"account_id"})
	require.NoError(t, err)
	gcp, err := Normalize(gcpRows, ProviderGCP, []string{"project_id"})
	require.NoError(t, err)

	set := Merge(aws, gcp)
	require.Len(t, set, 2)
	assert.Equal(t, "GCP", set[0].CloudProvider)
	assert.Equal(t, "proj-1", set[0].ResourceID)
	assert.Equal(t, "AWS", set[1].CloudProvider)
	assert.Equal(t, "acc-1", set[1].ResourceID)

	for _, r := range set {
		assert.NotEmpty(t, r.CloudProvider)
		assert.NotEmpty(t, r.ResourceID)
	}
}

func TestMaxDate(t *testing.T) {
	t.Run("empty set has no max date", func(t *testing.T) {
		_, ok := MaxDate(nil)
		assert.False(t, ok)
	})

	t.Run("skips unparseable dates", func(t *testing.T) {
		max, ok := MaxDate([]CostRecord{
			{Date: "not-a-date"},
			{Date: "2024-02-10"},
			{Date: "2024-01-05"},
		})
		require.True(t, ok)
		assert.Equal(t, "2024-02-10", max.Format("2006-01-02"))
	})
}
