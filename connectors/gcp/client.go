package gcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	ccsv "cloudspend/connectors/csv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Client queries the GCP billing export in BigQuery.
type Client struct {
	projectID  string
	dataset    string
	httpClient *http.Client
}

const bigQueryScope = "https://www.googleapis.com/auth/bigquery.readonly"

// NewClient creates a BigQuery billing client authenticated with a service
// account JSON key (the standard billing-export read setup).
func NewClient(ctx context.Context, projectID, dataset string, credentialsJSON []byte) (*Client, error) {
	conf, err := google.JWTConfigFromJSON(credentialsJSON, bigQueryScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse service account JSON: %w", err)
	}
	return &Client{
		projectID:  projectID,
		dataset:    dataset,
		httpClient: oauth2.NewClient(ctx, conf.TokenSource(ctx)),
	}, nil
}

// bigQueryRequest represents a BigQuery query request
type bigQueryRequest struct {
	Query        string `json:"query"`
	UseLegacySQL bool   `json:"useLegacySQL"`
	MaxResults   int    `json:"maxResults,omitempty"`
	TimeoutMs    int    `json:"timeoutMs,omitempty"`
}

// bigQueryResponse represents a BigQuery query response
type bigQueryResponse struct {
	Schema struct {
		Fields []struct {
			Name string `json:"name"`
			Type string `json:"type"`
		} `json:"fields"`
	} `json:"schema"`
	Rows []struct {
		F []struct {
			V interface{} `json:"v"`
		} `json:"f"`
	} `json:"rows"`
	TotalRows string `json:"totalRows"`
}

// FetchDailyCosts retrieves per-day cost for the last N months from the
// billing export, grouped by service, team/env labels and project.
// Table format: PROJECT_ID.DATASET.gcp_billing_export_v1_BILLING_ACCOUNT_ID
func (c *Client) FetchDailyCosts(ctx context.Context, months int) ([]ccsv.BillingRow, error) {
	from := time.Now().UTC().AddDate(0, -months, 0)

	query := fmt.Sprintf(`
		SELECT
			FORMAT_DATE('%%Y-%%m-%%d', DATE(usage_start_time)) AS day,
			service.description AS service_name,
			IFNULL((SELECT l.value FROM UNNEST(labels) l WHERE l.key = 'team'), 'unallocated') AS team,
			IFNULL((SELECT l.value FROM UNNEST(labels) l WHERE l.key = 'env'), 'prod') AS env,
			project.id AS project_id,
			SUM(cost) AS total_cost
		FROM
			%s.%s.gcp_billing_export_v1_*
		WHERE
			usage_start_time >= TIMESTAMP('%s')
		GROUP BY
			day, service_name, team, env, project_id
		ORDER BY
			day, service_name
	`, c.projectID, c.dataset, from.Format("2006-01-02"))

	reqBody := bigQueryRequest{
		Query:        query,
		UseLegacySQL: false,
		MaxResults:   10000,
		TimeoutMs:    30000,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("https://bigquery.googleapis.com/bigquery/v2/projects/%s/queries", c.projectID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch costs: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed: %d %s", resp.StatusCode, string(body))
	}

	var queryResp bigQueryResponse
	if err := json.Unmarshal(body, &queryResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return parseResponse(&queryResp)
}

// parseResponse converts a BigQuery response into raw billing rows.
func parseResponse(resp *bigQueryResponse) ([]ccsv.BillingRow, error) {
	idx := map[string]int{}
	for i, field := range resp.Schema.Fields {
		idx[field.Name] = i
	}
	for _, col := range []string{"day", "service_name", "team", "env", "project_id", "total_cost"} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("missing required column %s in response", col)
		}
	}

	cell := func(f []struct {
		V interface{} `json:"v"`
	}, col string) (string, bool) {
		i := idx[col]
		if i >= len(f) {
			return "", false
		}
		s, ok := f[i].V.(string)
		return s, ok
	}

	var rows []ccsv.BillingRow
	for _, row := range resp.Rows {
		day, ok := cell(row.F, "day")
		if !ok {
			continue
		}
		service, ok := cell(row.F, "service_name")
		if !ok {
			continue
		}
		team, _ := cell(row.F, "team")
		env, _ := cell(row.F, "env")
		projectID, _ := cell(row.F, "project_id")

		// Cost can come back as a string or a number.
		var cost float64
		i := idx["total_cost"]
		if i >= len(row.F) {
			continue
		}
		switch v := row.F[i].V.(type) {
		case float64:
			cost = v
		case string:
			parsed, err := strconv.ParseFloat(v, 64)
			if err != nil {
				continue
			}
			cost = parsed
		default:
			continue
		}

		rows = append(rows, ccsv.BillingRow{
			Date:    day,
			Service: service,
			Team:    team,
			Env:     env,
			CostUSD: cost,
			ID:      projectID,
		})
	}
	return rows, nil
}
