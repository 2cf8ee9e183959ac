// Package export renders batch extraction results for downstream consumers:
// CSV for spreadsheets, a JSON summary for machines.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/bobmatnyc/edgar-sub001/pkg/batch"
	"github.com/bobmatnyc/edgar-sub001/pkg/edgar"
	"github.com/bobmatnyc/edgar-sub001/pkg/extractor"
)

type extractionRow = batch.ExtractionResult[edgar.Company, *extractor.Financials]

var csvHeader = []string{
	"ticker", "cik", "name", "status", "period",
	"revenue", "net_income", "operating_income",
	"total_assets", "total_liabilities", "stockholders_equity", "eps",
	"attempts", "elapsed_ms", "error",
}

// CSV writes one row per processed company: successes first, then failures,
// each group ordered by label so repeat runs diff cleanly.
func CSV(w io.Writer, result *batch.Result[edgar.Company, *extractor.Financials]) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range sortedRows(result.Successful) {
		if err := cw.Write(record(row)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", row.Label(), err)
		}
	}
	for _, row := range sortedRows(result.Failed) {
		if err := cw.Write(record(row)); err != nil {
			return fmt.Errorf("write csv row for %s: %w", row.Label(), err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func sortedRows(rows []extractionRow) []extractionRow {
	sorted := append([]extractionRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Label() < sorted[j].Label()
	})
	return sorted
}

func record(row extractionRow) []string {
	status := "ok"
	errMsg := ""
	if !row.Success() {
		status = "failed"
		if row.Err != nil {
			errMsg = row.Err.Error()
		}
	}

	period := ""
	metrics := make([]string, 7)
	if fin := row.Payload; fin != nil {
		period = fin.Period
		metrics = []string{
			formatMetric(fin.Revenue),
			formatMetric(fin.NetIncome),
			formatMetric(fin.OperatingIncome),
			formatMetric(fin.TotalAssets),
			formatMetric(fin.TotalLiabilities),
			formatMetric(fin.StockholdersEquity),
			formatMetric(fin.EPS),
		}
	}

	rec := []string{
		row.Item.Ticker,
		strconv.FormatInt(row.Item.CIK, 10),
		row.Item.Name,
		status,
		period,
	}
	rec = append(rec, metrics...)
	rec = append(rec,
		strconv.Itoa(row.Attempts),
		strconv.FormatInt(row.Elapsed.Milliseconds(), 10),
		errMsg,
	)
	return rec
}

func formatMetric(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
