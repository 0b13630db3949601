package csv

import (
	"cloudspend/connectors/config"
	"cloudspend/domain/costs"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Columns every billing export must carry besides the provider identifier.
var requiredColumns = []string{"date", "service", "team", "env", "cost_usd"}

// ReadRows loads a billing export CSV and returns its rows keyed by the
// (lowercased, trimmed) header names. Values stay strings; typing happens in
// normalization. A missing file or missing required column fails the whole
// read, never a partial dataset.
func ReadRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%s: missing header row", path)
	}

	idx := indexMap(records[0])
	for _, col := range requiredColumns {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("%s missing column %s", filepath.Base(path), col)
		}
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		rec := records[i]
		if len(rec) == 0 {
			continue
		}
		row := make(map[string]string, len(idx))
		for name, j := range idx {
			if j < len(rec) {
				row[name] = rec[j]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// LoadSpend reads every configured provider export under dataDir, normalizes
// each with its provider tag, and merges them into the canonical
// date-descending set. Built fresh on every call; there is no caching across
// fetches.
func LoadSpend(dataDir string, providers []config.Provider) ([]costs.CostRecord, error) {
	sets := make([][]costs.CostRecord, 0, len(providers))
	for _, p := range providers {
		rows, err := ReadRows(filepath.Join(dataDir, p.File))
		if err != nil {
			return nil, err
		}
		records, err := costs.Normalize(rows, p.Name, p.IDColumns)
		if err != nil {
			return nil, err
		}
		sets = append(sets, records)
	}
	return costs.Merge(sets...), nil
}

// BillingRow is one raw provider export line as produced by the importer,
// before normalization.
type BillingRow struct {
	Date    string
	Service string
	Team    string
	Env     string
	CostUSD float64
	ID      string // value for the provider's identifier column
}

// WriteBillingCSV writes importer output in the exact shape ReadRows expects:
// the canonical columns plus one provider-specific identifier column.
func WriteBillingCSV(path string, idColumn string, rows []BillingRow) error {
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
	if err := w.Write([]string{"date", "service", "team", "env", "cost_usd", idColumn}); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{r.Date, r.Service, r.Team, r.Env, strconv.FormatFloat(r.CostUSD, 'f', -1, 64), r.ID}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return w.Error()
}

func indexMap(headers []string) map[string]int {
	m := map[string]int{}
	for i, h := range headers {
		m[strings.TrimSpace(strings.ToLower(h))] = i
	}
	return m
}
