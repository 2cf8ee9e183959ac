// Package extractor turns raw filing documents into structured financial
// metrics.
//
// The batch engine stays domain-blind; composing code picks an Extractor per
// form type and wires it into the per-item operation. HTML is the one
// implementation: goquery heuristics over the financial statement tables of
// 10-K and 10-Q filings.
package extractor

import "strings"

// Period labels for extracted figures.
const (
	PeriodAnnual    = "annual"
	PeriodQuarterly = "quarterly"
)

// Extractor pulls structured financial metrics from a raw filing document.
type Extractor interface {
	Extract(raw []byte) (*Financials, error)
}

// Financials holds the metrics extracted from one filing. Pointer fields are
// nil when the statement did not yield the metric; populated aggregate values
// are absolute dollars, already multiplied by the detected scale.
type Financials struct {
	Revenue            *float64
	NetIncome          *float64
	OperatingIncome    *float64
	TotalAssets        *float64
	TotalLiabilities   *float64
	StockholdersEquity *float64

	// EPS is per-share and never scaled by the statement heading.
	EPS *float64

	// Period labels the reporting period ("annual", "quarterly").
	Period string

	// Scale is the multiplier implied by the statement heading, 1 when no
	// "in thousands/millions/billions" context was found.
	Scale float64
}

// Fields returns the number of populated metrics.
func (f *Financials) Fields() int {
	count := 0
	for _, v := range []*float64{
		f.Revenue,
		f.NetIncome,
		f.OperatingIncome,
		f.TotalAssets,
		f.TotalLiabilities,
		f.StockholdersEquity,
		f.EPS,
	} {
		if v != nil {
			count++
		}
	}
	return count
}

// ForForm returns the extractor for a form family. 10-K filings (including
// amendments) yield annual figures, 10-Q quarterly; other forms extract with
// no period label.
func ForForm(form string) Extractor {
	switch {
	case strings.HasPrefix(strings.ToUpper(form), "10-K"):
		return &HTML{Period: PeriodAnnual}
	case strings.HasPrefix(strings.ToUpper(form), "10-Q"):
		return &HTML{Period: PeriodQuarterly}
	default:
		return &HTML{}
	}
}
