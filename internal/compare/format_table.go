package compare

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TableFormatter formats comparison results as a console table
type TableFormatter struct{}

// Format generates a table of envelope amounts, one column per schedule
func (tf *TableFormatter) Format(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString("RATE SCHEDULE COMPARISON\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")
	sb.WriteString(fmt.Sprintf("Funding: %s\n", compSet.FundingID))
	sb.WriteString(fmt.Sprintf("Base Schedule: %s\n", compSet.BaseScheduleID))
	sb.WriteString("\n")

	nameWidth := 28
	numWidth := 14

	sb.WriteString(fmt.Sprintf("%-*s", nameWidth, "Envelope"))
	sb.WriteString(fmt.Sprintf(" %*s", numWidth, tf.truncate(compSet.BaseScheduleID+" (base)", numWidth)))
	for _, alt := range compSet.AlternativeResults {
		sb.WriteString(fmt.Sprintf(" %*s", numWidth, tf.truncate(alt.ScheduleID, numWidth)))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 80) + "\n")

	base := compSet.BaseResult
	for i, e := range comparedEnvelopes {
		sb.WriteString(fmt.Sprintf("%-*s %*s", nameWidth, string(e), numWidth, "$"+base.Amounts.Projected(e).StringFixed(2)))
		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf(" %*s", numWidth, "$"+alt.Envelopes[i].Projected.StringFixed(2)))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(strings.Repeat("-", 80) + "\n")
	sb.WriteString(fmt.Sprintf("%-*s %*s", nameWidth, "Grand Total", numWidth, "$"+base.GrandTotal.StringFixed(2)))
	for _, alt := range compSet.AlternativeResults {
		sb.WriteString(fmt.Sprintf(" %*s", numWidth, "$"+alt.GrandTotal.StringFixed(2)))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 80) + "\n")

	if len(compSet.AlternativeResults) > 0 {
		sb.WriteString("\nCOMPARISON TO BASE\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")

		for _, alt := range compSet.AlternativeResults {
			sb.WriteString(fmt.Sprintf("\n%s:\n", alt.ScheduleID))
			sb.WriteString(fmt.Sprintf("  Grand Total:      %s$%s (%s%%)\n",
				tf.deltaSymbol(alt.TotalDiffFromBase),
				alt.TotalDiffFromBase.Abs().StringFixed(2),
				alt.TotalPctFromBase.StringFixed(2)))
			if !alt.EHTRate.Equal(base.EHTRate) {
				sb.WriteString(fmt.Sprintf("  EHT Rate:         %s -> %s\n",
					base.EHTRate.String(), alt.EHTRate.String()))
			}
			sb.WriteString(fmt.Sprintf("  Per Space:        $%s\n", alt.PerSpaceFunding.StringFixed(2)))
		}
		sb.WriteString("\n")
	}

	if len(compSet.Notes) > 0 {
		sb.WriteString("\nNOTES\n")
		sb.WriteString(strings.Repeat("-", 80) + "\n")
		for _, note := range compSet.Notes {
			sb.WriteString(fmt.Sprintf("- %s\n", note))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// deltaSymbol returns + for increases and - for decreases
func (tf *TableFormatter) deltaSymbol(delta decimal.Decimal) string {
	if delta.IsPositive() {
		return "+"
	} else if delta.IsNegative() {
		return "-"
	}
	return " "
}

// truncate truncates a string to maxLen
func (tf *TableFormatter) truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// FormatCompact creates a compact single-line summary for each alternative
func (tf *TableFormatter) FormatCompact(compSet *ComparisonSet) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Base: %s | ", compSet.BaseScheduleID))

	for i, alt := range compSet.AlternativeResults {
		if i > 0 {
			sb.WriteString(" | ")
		}
		change := "="
		if alt.TotalDiffFromBase.IsPositive() {
			change = fmt.Sprintf("+$%s", alt.TotalDiffFromBase.StringFixed(2))
		} else if alt.TotalDiffFromBase.IsNegative() {
			change = fmt.Sprintf("-$%s", alt.TotalDiffFromBase.Abs().StringFixed(2))
		}

		sb.WriteString(fmt.Sprintf("%s: %s", alt.ScheduleID, change))
	}

	return sb.String()
}
