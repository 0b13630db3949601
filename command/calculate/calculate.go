package calculate

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"cloudspend/connectors/config"
	ccsv "cloudspend/connectors/csv"
	"cloudspend/domain/costs"
)

// Run executes the calculate command: read the provider exports, run the
// normalization pipeline once, and write the derived report CSVs into the
// data directory (no extra args expected).
func Run(args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("calculate: no arguments expected")
	}

	cfg := config.LoadOrDefault()
	records, err := ccsv.LoadSpend(cfg.Server.DataDir, cfg.Providers)
	if err != nil {
		slog.Error("calculate.load.error", "error", err)
		return err
	}

	dir := cfg.Server.DataDir
	daily := costs.DailyTotals(records)
	if err := writeTotals(filepath.Join(dir, "spend_daily.csv"), "date", dailyRows(daily)); err != nil {
		return err
	}
	services := costs.TopServices(records, 0) // all services, ranked
	if err := writeTotals(filepath.Join(dir, "spend_by_service.csv"), "service", serviceRows(services)); err != nil {
		return err
	}
	teams := costs.TeamTotals(records)
	if err := writeTotals(filepath.Join(dir, "spend_by_team.csv"), "team", teamRows(teams)); err != nil {
		return err
	}
	if err := writeSummary(filepath.Join(dir, "spend_summary.csv"), costs.Summarize(records)); err != nil {
		return err
	}

	slog.Info("calculate.done", "records", len(records))
	return nil
}

type totalRow struct {
	key  string
	cost float64
}

func dailyRows(in []costs.DateTotal) []totalRow {
	out := make([]totalRow, len(in))
	for i, t := range in {
		out[i] = totalRow{t.Date, t.CostUSD}
	}
	return out
}

func serviceRows(in []costs.ServiceTotal) []totalRow {
	out := make([]totalRow, len(in))
	for i, t := range in {
		out[i] = totalRow{t.Service, t.CostUSD}
	}
	return out
}

func teamRows(in []costs.TeamTotal) []totalRow {
	out := make([]totalRow, len(in))
	for i, t := range in {
		out[i] = totalRow{t.Team, t.CostUSD}
	}
	return out
}

func writeTotals(path, keyHeader string, rows []totalRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{keyHeader, "cost_usd"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := w.Write([]string{r.key, formatCost(r.cost)}); err != nil {
			return err
		}
	}
	return w.Error()
}

func writeSummary(path string, s costs.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	if err := w.Write([]string{"total_usd", "aws_usd", "gcp_usd", "records", "top_team", "trend_dir", "trend_val"}); err != nil {
		return err
	}
	row := []string{
		formatCost(s.TotalUSD),
		formatCost(s.AWSUSD),
		formatCost(s.GCPUSD),
		strconv.Itoa(s.Records),
		s.TopTeam,
		s.TotalTrend.Dir,
		s.TotalTrend.Val,
	}
	if err := w.Write(row); err != nil {
		return err
	}
	return w.Error()
}

func formatCost(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
