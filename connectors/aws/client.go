package aws

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	ccsv "cloudspend/connectors/csv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	cetypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

// Client fetches daily spend from the AWS Cost Explorer API.
type Client struct {
	ce         *costexplorer.Client
	sts        *sts.Client
	teamTag    string
	defaultEnv string
}

// NewClient builds a client from the ambient AWS credential chain
// (environment, shared config, instance role).
func NewClient(ctx context.Context, teamTag, defaultEnv string) (*Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &Client{
		ce:         costexplorer.NewFromConfig(cfg),
		sts:        sts.NewFromConfig(cfg),
		teamTag:    teamTag,
		defaultEnv: defaultEnv,
	}, nil
}

// AccountID resolves the caller's account id, used as the resource_id column
// of the AWS export.
func (c *Client) AccountID(ctx context.Context) (string, error) {
	out, err := c.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("failed to resolve AWS account: %w", err)
	}
	return aws.ToString(out.Account), nil
}

// FetchDailyCosts retrieves per-day unblended cost for the last N months,
// grouped by service and the configured team tag. Cost Explorer allows at
// most two group-by dimensions, so env is filled from config rather than a
// tag.
func (c *Client) FetchDailyCosts(ctx context.Context, months int) ([]ccsv.BillingRow, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, -months, 0)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &cetypes.DateInterval{
			Start: aws.String(from.Format("2006-01-02")),
			End:   aws.String(to.Format("2006-01-02")),
		},
		Granularity: cetypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []cetypes.GroupDefinition{
			{Type: cetypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
			{Type: cetypes.GroupDefinitionTypeTag, Key: aws.String(c.teamTag)},
		},
	}

	var rows []ccsv.BillingRow
	for {
		out, err := c.ce.GetCostAndUsage(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch costs: %w", err)
		}
		for _, day := range out.ResultsByTime {
			date := aws.ToString(day.TimePeriod.Start)
			for _, group := range day.Groups {
				if len(group.Keys) < 2 {
					continue
				}
				metric, ok := group.Metrics["UnblendedCost"]
				if !ok || metric.Amount == nil {
					continue
				}
				cost, err := strconv.ParseFloat(aws.ToString(metric.Amount), 64)
				if err != nil || cost == 0 {
					continue
				}
				rows = append(rows, ccsv.BillingRow{
					Date:    date,
					Service: group.Keys[0],
					Team:    tagValue(group.Keys[1]),
					Env:     c.defaultEnv,
					CostUSD: cost,
				})
			}
		}
		if out.NextPageToken == nil {
			break
		}
		input.NextPageToken = out.NextPageToken
	}
	return rows, nil
}

// tagValue extracts the value from Cost Explorer's "key$value" tag group key.
func tagValue(key string) string {
	if i := strings.Index(key, "$"); i >= 0 && i+1 < len(key) {
		return key[i+1:]
	}
	return "unallocated"
}
