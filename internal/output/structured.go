package output

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"strings"

	"github.com/rgehrsitz/ofmcalc/internal/domain"
	"gopkg.in/yaml.v3"
)

// JSONFormatter renders the report as indented JSON
type JSONFormatter struct{}

func (j JSONFormatter) Name() string { return "json" }

func (j JSONFormatter) Format(result *domain.FundingResult) ([]byte, error) {
	data, err := json.MarshalIndent(NewReport(result), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// YAMLFormatter renders the report as YAML
type YAMLFormatter struct{}

func (y YAMLFormatter) Name() string { return "yaml" }

func (y YAMLFormatter) Format(result *domain.FundingResult) ([]byte, error) {
	return yaml.Marshal(NewReport(result))
}

// CSVFormatter renders one row per envelope. Invalid results produce a single
// row carrying the joined errors.
type CSVFormatter struct{}

func (c CSVFormatter) Name() string { return "csv" }

func (c CSVFormatter) Format(result *domain.FundingResult) ([]byte, error) {
	report := NewReport(result)
	buf := &bytes.Buffer{}
	w := csv.NewWriter(buf)
	header := []string{"FundingID", "RunID", "Decision", "Envelope", "Projected", "ParentFee", "Base", "Errors"}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	errs := strings.Join(report.Errors, "; ")
	if len(report.Envelopes) == 0 {
		if err := w.Write([]string{report.FundingID, report.RunID, report.Decision, "", "", "", "", errs}); err != nil {
			return nil, err
		}
	}
	for _, line := range report.Envelopes {
		row := []string{report.FundingID, report.RunID, report.Decision, line.Envelope, line.Projected, line.ParentFee, line.Base, errs}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	if report.GrandTotal != "" {
		if err := w.Write([]string{report.FundingID, report.RunID, report.Decision, "grand_total", report.GrandTotal, report.TotalParentFees, "", errs}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
