package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/bobmatnyc/edgar-sub001/pkg/batch"
	"github.com/bobmatnyc/edgar-sub001/pkg/edgar"
	"github.com/bobmatnyc/edgar-sub001/pkg/extractor"
)

func sampleResult() *batch.Result[edgar.Company, *extractor.Financials] {
	aaplRevenue := 391035e6
	aaplEPS := 6.11
	msftRevenue := 245122e6

	// Successes deliberately out of label order; exporters sort.
	return &batch.Result[edgar.Company, *extractor.Financials]{
		Successful: []extractionRow{
			{
				Item:     edgar.Company{CIK: 789019, Ticker: "MSFT", Name: "Microsoft Corporation"},
				Payload:  &extractor.Financials{Revenue: &msftRevenue, Period: extractor.PeriodAnnual, Scale: 1e6},
				Attempts: 1,
				Elapsed:  150 * time.Millisecond,
			},
			{
				Item:     edgar.Company{CIK: 320193, Ticker: "AAPL", Name: "Apple Inc."},
				Payload:  &extractor.Financials{Revenue: &aaplRevenue, EPS: &aaplEPS, Period: extractor.PeriodAnnual, Scale: 1e6},
				Attempts: 2,
				Elapsed:  300 * time.Millisecond,
			},
		},
		Failed: []extractionRow{
			{
				Item:     edgar.Company{CIK: 1018724, Ticker: "AMZN", Name: "Amazon.com, Inc."},
				Err:      errors.New("attempts exhausted after 3 attempts: EDGAR server error (status 500)"),
				Attempts: 3,
				Elapsed:  2 * time.Second,
			},
		},
		TotalDuration: 3 * time.Second,
		RequestsMade:  6,
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := CSV(&buf, sampleResult()); err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}

	if len(records) != 4 {
		t.Fatalf("got %d records, want header + 3 rows", len(records))
	}

	header := records[0]
	if len(header) != len(csvHeader) {
		t.Fatalf("header has %d columns, want %d", len(header), len(csvHeader))
	}
	for i, want := range csvHeader {
		if header[i] != want {
			t.Errorf("header[%d] = %q, want %q", i, header[i], want)
		}
	}

	// Successes sorted by label, failures after.
	aapl, msft, amzn := records[1], records[2], records[3]

	if aapl[0] != "AAPL" || msft[0] != "MSFT" || amzn[0] != "AMZN" {
		t.Fatalf("row order = %q, %q, %q", aapl[0], msft[0], amzn[0])
	}

	if aapl[1] != "320193" {
		t.Errorf("AAPL cik = %q", aapl[1])
	}
	if aapl[3] != "ok" {
		t.Errorf("AAPL status = %q", aapl[3])
	}
	if aapl[4] != "annual" {
		t.Errorf("AAPL period = %q", aapl[4])
	}
	if aapl[5] != "391035000000" {
		t.Errorf("AAPL revenue = %q", aapl[5])
	}
	if aapl[11] != "6.11" {
		t.Errorf("AAPL eps = %q", aapl[11])
	}
	if aapl[6] != "" {
		t.Errorf("AAPL net_income = %q, want empty for nil metric", aapl[6])
	}
	if aapl[12] != "2" || aapl[13] != "300" {
		t.Errorf("AAPL attempts/elapsed = %q/%q", aapl[12], aapl[13])
	}
	if aapl[14] != "" {
		t.Errorf("AAPL error = %q, want empty", aapl[14])
	}

	if amzn[3] != "failed" {
		t.Errorf("AMZN status = %q", amzn[3])
	}
	if amzn[5] != "" {
		t.Errorf("AMZN revenue = %q, want empty", amzn[5])
	}
	if amzn[14] == "" {
		t.Error("AMZN error column is empty")
	}
}

func TestJSONSummary(t *testing.T) {
	var buf bytes.Buffer
	if err := JSONSummary(&buf, sampleResult()); err != nil {
		t.Fatalf("JSONSummary() error = %v", err)
	}

	var summary Summary
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("parse output: %v", err)
	}

	if summary.Total != 3 || summary.Succeeded != 2 || summary.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1", summary.Total, summary.Succeeded, summary.Failed)
	}
	if summary.SuccessRate != 2.0/3.0 {
		t.Errorf("SuccessRate = %v", summary.SuccessRate)
	}
	if summary.RequestsMade != 6 {
		t.Errorf("RequestsMade = %d, want 6", summary.RequestsMade)
	}
	if summary.DurationMS != 3000 {
		t.Errorf("DurationMS = %d, want 3000", summary.DurationMS)
	}
	if summary.GeneratedAt.IsZero() {
		t.Error("GeneratedAt is zero")
	}

	if len(summary.Items) != 3 {
		t.Fatalf("got %d items, want 3", len(summary.Items))
	}
	if summary.Items[0].Label != "AAPL" || summary.Items[1].Label != "MSFT" || summary.Items[2].Label != "AMZN" {
		t.Errorf("item order = %q, %q, %q",
			summary.Items[0].Label, summary.Items[1].Label, summary.Items[2].Label)
	}

	if summary.Items[0].Status != "ok" || summary.Items[0].Error != "" {
		t.Errorf("AAPL item = %+v", summary.Items[0])
	}
	if summary.Items[0].Attempts != 2 || summary.Items[0].ElapsedMS != 300 {
		t.Errorf("AAPL attempts/elapsed = %d/%d", summary.Items[0].Attempts, summary.Items[0].ElapsedMS)
	}
	if summary.Items[2].Status != "failed" || summary.Items[2].Error == "" {
		t.Errorf("AMZN item = %+v", summary.Items[2])
	}
}

func TestJSONSummary_GenericItems(t *testing.T) {
	// The summary works for any item type via the label convention.
	result := &batch.Result[string, int]{
		Successful: []batch.ExtractionResult[string, int]{
			{Item: "beta", Payload: 2, Attempts: 1},
			{Item: "alpha", Payload: 1, Attempts: 1},
		},
	}

	var buf bytes.Buffer
	if err := JSONSummary(&buf, result); err != nil {
		t.Fatalf("JSONSummary() error = %v", err)
	}

	var summary Summary
	if err := json.Unmarshal(buf.Bytes(), &summary); err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if summary.Items[0].Label != "alpha" || summary.Items[1].Label != "beta" {
		t.Errorf("item order = %q, %q", summary.Items[0].Label, summary.Items[1].Label)
	}
	if summary.SuccessRate != 1.0 {
		t.Errorf("SuccessRate = %v, want 1", summary.SuccessRate)
	}
}
