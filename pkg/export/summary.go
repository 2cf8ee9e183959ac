package export

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/bobmatnyc/edgar-sub001/pkg/batch"
)

// Summary is the machine-readable report of one batch run.
type Summary struct {
	GeneratedAt  time.Time     `json:"generated_at"`
	Total        int           `json:"total"`
	Succeeded    int           `json:"succeeded"`
	Failed       int           `json:"failed"`
	SuccessRate  float64       `json:"success_rate"`
	RequestsMade int64         `json:"requests_made"`
	DurationMS   int64         `json:"duration_ms"`
	Items        []SummaryItem `json:"items"`
}

// SummaryItem reports one processed item.
type SummaryItem struct {
	Label     string `json:"label"`
	Status    string `json:"status"`
	Attempts  int    `json:"attempts"`
	ElapsedMS int64  `json:"elapsed_ms"`
	Error     string `json:"error,omitempty"`
}

// JSONSummary writes the run report for any item/payload pair. Items are
// ordered by label within each status group, successes first.
func JSONSummary[I, R any](w io.Writer, result *batch.Result[I, R]) error {
	summary := Summary{
		GeneratedAt:  time.Now().UTC(),
		Total:        result.Total(),
		Succeeded:    result.SuccessCount(),
		Failed:       result.FailureCount(),
		SuccessRate:  result.SuccessRate(),
		RequestsMade: result.RequestsMade,
		DurationMS:   result.TotalDuration.Milliseconds(),
		Items:        make([]SummaryItem, 0, result.Total()),
	}

	summary.Items = append(summary.Items, summaryItems(result.Successful, "ok")...)
	summary.Items = append(summary.Items, summaryItems(result.Failed, "failed")...)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode json summary: %w", err)
	}
	return nil
}

func summaryItems[I, R any](rows []batch.ExtractionResult[I, R], status string) []SummaryItem {
	items := make([]SummaryItem, 0, len(rows))
	for _, row := range rows {
		item := SummaryItem{
			Label:     row.Label(),
			Status:    status,
			Attempts:  row.Attempts,
			ElapsedMS: row.Elapsed.Milliseconds(),
		}
		if row.Err != nil {
			item.Error = row.Err.Error()
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Label < items[j].Label })
	return items
}
