package edgar

import (
	"fmt"
	"strings"
	"time"
)

// Company identifies one SEC registrant in a batch run.
type Company struct {
	// CIK is the SEC Central Index Key.
	CIK int64

	// Ticker is the exchange symbol, used as the display label.
	Ticker string

	// Name is the registrant name.
	Name string
}

// Label returns the company's display label for progress reporting.
func (c Company) Label() string {
	if c.Ticker != "" {
		return c.Ticker
	}
	return fmt.Sprintf("CIK%010d", c.CIK)
}

// Filing is one entry from a company's submissions feed.
type Filing struct {
	CIK             int64
	AccessionNumber string
	Form            string
	FilingDate      time.Time
	ReportDate      time.Time
	PrimaryDocument string
}

// accessionDir is the accession number without dashes, as used in Archives
// directory paths.
func (f Filing) accessionDir() string {
	return strings.ReplaceAll(f.AccessionNumber, "-", "")
}

// ArchivePath returns the site-relative path of the filing's primary
// document.
func (f Filing) ArchivePath() string {
	return fmt.Sprintf("/Archives/edgar/data/%d/%s/%s", f.CIK, f.accessionDir(), f.PrimaryDocument)
}

// IndexPath returns the site-relative path of the filing's archive directory
// listing.
func (f Filing) IndexPath() string {
	return fmt.Sprintf("/Archives/edgar/data/%d/%s/", f.CIK, f.accessionDir())
}

// DocumentURL returns the absolute production URL of the primary document.
func (f Filing) DocumentURL() string {
	return defaultArchivesBaseURL + f.ArchivePath()
}

// IndexEntry is one document listed in a filing's archive directory.
type IndexEntry struct {
	Name string
	Href string
	Size string
}

// submissionsDocument mirrors the column-oriented layout of the EDGAR
// submissions feed (data.sec.gov/submissions/CIK##########.json).
type submissionsDocument struct {
	CIK     string   `json:"cik"`
	Name    string   `json:"name"`
	Tickers []string `json:"tickers"`
	Filings struct {
		Recent recentFilings `json:"recent"`
	} `json:"filings"`
}

type recentFilings struct {
	AccessionNumber []string `json:"accessionNumber"`
	FilingDate      []string `json:"filingDate"`
	ReportDate      []string `json:"reportDate"`
	Form            []string `json:"form"`
	PrimaryDocument []string `json:"primaryDocument"`
}

// filings flattens the column arrays into Filing rows, preserving the feed's
// reverse-chronological order. Rows beyond the shortest column are dropped.
func (d *submissionsDocument) filings(cik int64) []Filing {
	recent := d.Filings.Recent
	n := len(recent.AccessionNumber)
	if len(recent.Form) < n {
		n = len(recent.Form)
	}
	if len(recent.FilingDate) < n {
		n = len(recent.FilingDate)
	}

	result := make([]Filing, 0, n)
	for i := 0; i < n; i++ {
		filing := Filing{
			CIK:             cik,
			AccessionNumber: recent.AccessionNumber[i],
			Form:            recent.Form[i],
			FilingDate:      parseDate(recent.FilingDate[i]),
		}
		if i < len(recent.ReportDate) {
			filing.ReportDate = parseDate(recent.ReportDate[i])
		}
		if i < len(recent.PrimaryDocument) {
			filing.PrimaryDocument = recent.PrimaryDocument[i]
		}
		result = append(result, filing)
	}
	return result
}

// parseDate reads EDGAR's YYYY-MM-DD dates, returning the zero time for
// blank or malformed values.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
