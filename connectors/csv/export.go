package csv

import (
	"cloudspend/domain/costs"
	"encoding/csv"
	"fmt"
	"io"
)

// Header of the user-facing spend report download.
var reportHeader = []string{"Date", "Cloud Provider", "Service", "Team", "Environment", "Cost (USD)", "Resource ID"}

// WriteSpendReport emits the currently filtered set as the downloadable
// report: one row per record, cost formatted to two decimal places.
func WriteSpendReport(w io.Writer, records []costs.CostRecord) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.Date,
			r.CloudProvider,
			r.Service,
			r.Team,
			r.Env,
			fmt.Sprintf("%.2f", r.CostUSD),
			r.ResourceID,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
