package main

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/bobmatnyc/edgar-sub001/pkg/edgar"
)

// Manifest is the YAML input listing the companies of one batch run.
//
//	form: 10-K
//	companies:
//	  - cik: 320193
//	    ticker: AAPL
//	    name: Apple Inc.
type Manifest struct {
	Form      string            `yaml:"form"`
	Companies []ManifestCompany `yaml:"companies"`
}

// ManifestCompany is one registrant entry.
type ManifestCompany struct {
	CIK    int64  `yaml:"cik"`
	Ticker string `yaml:"ticker"`
	Name   string `yaml:"name"`
}

func loadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	if len(m.Companies) == 0 {
		return nil, errors.New("manifest lists no companies")
	}
	for i, c := range m.Companies {
		if c.CIK <= 0 {
			return nil, fmt.Errorf("company %d (%s): cik is required", i+1, c.Ticker)
		}
	}
	if m.Form == "" {
		m.Form = "10-K"
	}
	return &m, nil
}

func (m *Manifest) companies() []edgar.Company {
	companies := make([]edgar.Company, len(m.Companies))
	for i, c := range m.Companies {
		companies[i] = edgar.Company{CIK: c.CIK, Ticker: c.Ticker, Name: c.Name}
	}
	return companies
}
