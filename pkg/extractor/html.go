package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for extraction outcomes.
var (
	extractionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "edgar_extractions_total",
		Help: "Total extraction attempts by outcome",
	}, []string{"outcome"})

	extractionFields = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "edgar_extraction_fields",
		Help:    "Number of financial metrics populated per successful extraction",
		Buckets: []float64{1, 2, 3, 4, 5, 6, 7},
	})
)

// ErrNoFinancialData is returned when a document yields no recognizable
// financial metric. Retrying the same bytes cannot help.
var ErrNoFinancialData = errors.New("no financial data found in document")

// HTML extracts financial metrics from filing HTML. The zero value is
// usable; Period labels the extracted figures.
type HTML struct {
	Period string
}

// metricDef binds a Financials field to the statement row labels that
// identify it. Labels match exactly after normalization, so "total
// liabilities" never swallows "total liabilities and stockholders' equity".
type metricDef struct {
	key      string
	perShare bool
	field    func(*Financials) **float64
	aliases  []string
}

var metricDefs = []metricDef{
	{
		key:   "revenue",
		field: func(f *Financials) **float64 { return &f.Revenue },
		aliases: []string{
			"revenue", "revenues", "total revenue", "total revenues",
			"net revenue", "net revenues", "total net revenue", "total net revenues",
			"net sales", "total net sales",
		},
	},
	{
		key:   "operating_income",
		field: func(f *Financials) **float64 { return &f.OperatingIncome },
		aliases: []string{
			"operating income", "total operating income", "operating profit",
			"income from operations",
		},
	},
	{
		key:   "net_income",
		field: func(f *Financials) **float64 { return &f.NetIncome },
		aliases: []string{
			"net income", "net earnings",
		},
	},
	{
		key:   "total_assets",
		field: func(f *Financials) **float64 { return &f.TotalAssets },
		aliases: []string{
			"total assets",
		},
	},
	{
		key:   "total_liabilities",
		field: func(f *Financials) **float64 { return &f.TotalLiabilities },
		aliases: []string{
			"total liabilities",
		},
	},
	{
		key:   "stockholders_equity",
		field: func(f *Financials) **float64 { return &f.StockholdersEquity },
		aliases: []string{
			"total stockholders' equity", "total stockholders equity",
			"total shareholders' equity", "total shareholders equity",
			"stockholders' equity", "shareholders' equity", "total equity",
		},
	},
	{
		key:      "eps",
		perShare: true,
		field:    func(f *Financials) **float64 { return &f.EPS },
		aliases: []string{
			"earnings per share", "basic earnings per share", "diluted earnings per share",
			"earnings per share, basic", "earnings per share, diluted",
			"net income per share", "basic net income per share",
			"net income per common share", "basic net income per common share",
		},
	},
}

var aliasIndex = buildAliasIndex()

func buildAliasIndex() map[string]*metricDef {
	index := make(map[string]*metricDef)
	for i := range metricDefs {
		for _, alias := range metricDefs[i].aliases {
			index[alias] = &metricDefs[i]
		}
	}
	return index
}

// Extract parses the document and walks every table row, assigning the first
// matching value to each metric. Row order follows the document, so the
// topmost statement wins on duplicate labels.
func (h *HTML) Extract(raw []byte) (*Financials, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		extractionsTotal.WithLabelValues("parse_error").Inc()
		return nil, fmt.Errorf("parse filing html: %w", err)
	}

	fin := &Financials{Period: h.Period, Scale: 1}
	docScale := detectScale(doc.Text())

	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		scale := detectScale(table.Text())
		if scale == 0 {
			scale = docScale
		}
		if scale == 0 {
			scale = 1
		}

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td, th")
			if cells.Length() < 2 {
				return
			}

			metric, ok := matchMetric(normalizeLabel(cells.First().Text()))
			if !ok {
				return
			}
			slot := metric.field(fin)
			if *slot != nil {
				return
			}

			value, ok := firstMoney(cells)
			if !ok {
				return
			}
			if !metric.perShare && scale != 1 {
				value *= scale
				if fin.Scale == 1 {
					fin.Scale = scale
				}
			}
			*slot = &value
		})
	})

	if fin.Fields() == 0 {
		extractionsTotal.WithLabelValues("no_data").Inc()
		return nil, ErrNoFinancialData
	}

	extractionsTotal.WithLabelValues("ok").Inc()
	extractionFields.Observe(float64(fin.Fields()))
	return fin, nil
}

var parenthetical = regexp.MustCompile(`\([^)]*\)`)

// matchMetric looks a normalized row label up in the alias index, retrying
// with parenthesized qualifiers removed so "net income (loss)" still reads
// as net income.
func matchMetric(label string) (*metricDef, bool) {
	if label == "" {
		return nil, false
	}
	if m, ok := aliasIndex[label]; ok {
		return m, true
	}

	stripped := normalizeLabel(parenthetical.ReplaceAllString(label, " "))
	if m, ok := aliasIndex[stripped]; ok {
		return m, true
	}
	return nil, false
}

// normalizeLabel lowercases, collapses whitespace (including &nbsp;),
// straightens curly apostrophes and trims footnote punctuation.
func normalizeLabel(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "’", "'")
	s = strings.Join(strings.Fields(s), " ")
	return strings.Trim(s, " :*,")
}

// firstMoney scans the row's value cells left to right and returns the first
// parsable amount, preferring the most recent period column. Filings often
// split "$" and "(" into their own cells; a lone "(" marks the next number
// negative. Dash placeholders are skipped.
func firstMoney(cells *goquery.Selection) (float64, bool) {
	negative := false
	for i := 1; i < cells.Length(); i++ {
		text := strings.TrimSpace(cells.Eq(i).Text())
		switch text {
		case "", "$", ")", "-", "—", "–":
			continue
		case "(", "$(":
			negative = true
			continue
		}

		value, ok := parseMoney(text)
		if !ok {
			continue
		}
		if negative && value > 0 {
			value = -value
		}
		return value, true
	}
	return 0, false
}

// parseMoney reads one US-formatted statement amount: dollar signs and
// thousands separators are dropped, parenthesized values are negative.
func parseMoney(s string) (float64, bool) {
	negative := strings.HasPrefix(s, "(")
	s = strings.Trim(s, "()")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	value, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if negative {
		value = -value
	}
	return value, true
}

// detectScale reads the "in thousands/millions/billions" context from
// statement headings. Millions is checked before thousands; filing headers
// often qualify share counts in thousands within the same sentence.
func detectScale(text string) float64 {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "in billions"):
		return 1e9
	case strings.Contains(lower, "in millions"):
		return 1e6
	case strings.Contains(lower, "in thousands"):
		return 1e3
	}
	return 0
}
