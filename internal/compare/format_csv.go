package compare

import (
	"encoding/csv"
	"strings"
)

// CSVFormatter formats comparison results as CSV, one row per schedule and envelope
type CSVFormatter struct{}

// Format generates CSV output for comparison results
func (cf *CSVFormatter) Format(compSet *ComparisonSet) (string, error) {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	header := []string{
		"Funding",
		"Schedule",
		"Type",
		"Envelope",
		"Projected",
		"Diff from Base",
		"% Change",
	}
	if err := writer.Write(header); err != nil {
		return "", err
	}

	base := compSet.BaseResult
	for _, e := range comparedEnvelopes {
		row := []string{compSet.FundingID, base.ScheduleID, "base", string(e), base.Amounts.Projected(e).StringFixed(2), "", ""}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}
	if err := writer.Write([]string{compSet.FundingID, base.ScheduleID, "base", "grand_total", base.GrandTotal.StringFixed(2), "", ""}); err != nil {
		return "", err
	}

	for _, alt := range compSet.AlternativeResults {
		for _, d := range alt.Envelopes {
			row := []string{compSet.FundingID, alt.ScheduleID, "alternative", string(d.Envelope),
				d.Projected.StringFixed(2), d.Diff.StringFixed(2), d.Pct.StringFixed(2)}
			if err := writer.Write(row); err != nil {
				return "", err
			}
		}
		row := []string{compSet.FundingID, alt.ScheduleID, "alternative", "grand_total",
			alt.GrandTotal.StringFixed(2), alt.TotalDiffFromBase.StringFixed(2), alt.TotalPctFromBase.StringFixed(2)}
		if err := writer.Write(row); err != nil {
			return "", err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", err
	}

	return sb.String(), nil
}
