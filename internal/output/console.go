package output

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/ofmcalc/internal/calculation"
	"github.com/rgehrsitz/ofmcalc/internal/domain"
)

var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorWarning = lipgloss.Color("#F2C94C")
	ColorDanger  = lipgloss.Color("#FF5F87")
	ColorMuted   = lipgloss.Color("#767676")

	TitleStyle       = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SectionStyle     = lipgloss.NewStyle().Bold(true).Underline(true)
	MutedStyle       = lipgloss.NewStyle().Foreground(ColorMuted)
	LabelStyle       = lipgloss.NewStyle().Width(32)
	AmountStyle      = lipgloss.NewStyle().Width(16).Align(lipgloss.Right)
	TotalLabelStyle  = LabelStyle.Bold(true)
	TotalAmountStyle = AmountStyle.Bold(true)
)

// DecisionStyle colours a decision tag
func DecisionStyle(d domain.Decision) lipgloss.Style {
	switch d {
	case domain.DecisionAuto:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	case domain.DecisionManual:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
	default:
		return lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
	}
}

// ConsoleFormatter renders a funding result as an aligned terminal table
type ConsoleFormatter struct{}

func (c ConsoleFormatter) Name() string { return "console" }

func (c ConsoleFormatter) Format(result *domain.FundingResult) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, TitleStyle.Render("FUNDING ENVELOPE CALCULATION"))
	fmt.Fprintln(&buf, strings.Repeat("=", 80))
	fmt.Fprintf(&buf, "Funding:    %s\n", result.FundingID())
	fmt.Fprintf(&buf, "Run:        %s\n", MutedStyle.Render(result.RunID()))
	fmt.Fprintf(&buf, "Calculated: %s\n", result.CalculatedAt().Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(&buf, "Decision:   %s\n", DecisionStyle(result.Decision()).Render(strings.ToUpper(string(result.Decision()))))
	fmt.Fprintln(&buf)

	if errs := result.Errors(); len(errs) > 0 {
		fmt.Fprintln(&buf, SectionStyle.Render("ERRORS"))
		for _, e := range errs {
			fmt.Fprintf(&buf, "• %s\n", e)
		}
		fmt.Fprintln(&buf)
	}

	amounts := result.Amounts()
	if amounts == nil {
		return buf.Bytes(), nil
	}

	fmt.Fprintln(&buf, SectionStyle.Render("ENVELOPES"))
	fmt.Fprintln(&buf, lipgloss.JoinHorizontal(lipgloss.Top,
		LabelStyle.Render("Envelope"),
		AmountStyle.Render("Projected"),
		AmountStyle.Render("Parent Fees"),
		AmountStyle.Render("Base"),
	))
	fmt.Fprintln(&buf, strings.Repeat("-", 80))
	for _, e := range ReportEnvelopes {
		label, amount := LabelStyle, AmountStyle
		if e == domain.EnvelopeHRTotal {
			label, amount = TotalLabelStyle, TotalAmountStyle
		}
		fmt.Fprintln(&buf, lipgloss.JoinHorizontal(lipgloss.Top,
			label.Render(EnvelopeLabel(e)),
			amount.Render(FormatCurrency(amounts.Projected(e))),
			amount.Render(FormatCurrency(amounts.ParentFee(e))),
			amount.Render(FormatCurrency(amounts.Base(e))),
		))
	}
	fmt.Fprintln(&buf, strings.Repeat("-", 80))
	grandBase := amounts.GrandTotal().Sub(amounts.TotalParentFees())
	fmt.Fprintln(&buf, lipgloss.JoinHorizontal(lipgloss.Top,
		TotalLabelStyle.Render("Grand Total"),
		TotalAmountStyle.Render(FormatCurrency(amounts.GrandTotal())),
		TotalAmountStyle.Render(FormatCurrency(amounts.TotalParentFees())),
		TotalAmountStyle.Render(FormatCurrency(grandBase)),
	))

	return buf.Bytes(), nil
}

// FormatBreakdown renders the intermediate staffing and wage figures behind a calculation
func FormatBreakdown(b *calculation.Breakdown) []byte {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, SectionStyle.Render("CORE SERVICES"))
	for _, req := range b.Services {
		cs := req.Service
		fmt.Fprintf(&buf, "%s (%s): %d spaces, %s h/day x %d days x %d weeks = %s h/yr\n",
			cs.LicenceType, cs.ID, cs.OperationalSpaces,
			cs.HoursPerDay().String(), cs.DaysPerWeek(), cs.WeeksInOperation, cs.AnnualStandardHours().String())
		for _, g := range req.Groups {
			fmt.Fprintf(&buf, "  group %-10s %3d spaces\n", g.Tier.ID, g.Spaces)
		}
		fmt.Fprintf(&buf, "  hours ratio %s\n", req.HoursRatio.StringFixed(4))
		for _, role := range domain.Roles {
			fmt.Fprintf(&buf, "  %-5s raw %8s  adjusted %8s\n", role,
				req.RawFTE[role].StringFixed(4), req.AdjustedFTE[role].StringFixed(4))
		}
	}
	fmt.Fprintf(&buf, "Total spaces: %d   Max annual standard hours: %s\n", b.TotalSpaces, b.MaxStandardHours.String())
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, SectionStyle.Render("HUMAN RESOURCES"))
	lines := []struct {
		label string
		value string
	}{
		{"Adjusted FTE", b.Wages.AdjustedFTE.StringFixed(4)},
		{"Required supervisors", b.Wages.RequiredSupervisors.StringFixed(4)},
		{"Staffing cost", FormatCurrency(b.Wages.StaffingCost)},
		{"Quality enhancement", FormatCurrency(b.Wages.QualityEnhancement)},
		{"Benefits", FormatCurrency(b.Wages.Benefits)},
		{"Total remuneration", FormatCurrency(b.Wages.Remuneration())},
		{"EHT rate", FormatPercentage(b.EHTRate)},
		{"Employer health tax", FormatCurrency(b.EHT)},
		{"PD allowances", FormatCurrency(b.Wages.ProfessionalDevelopment)},
		{"Professional dues", FormatCurrency(b.Wages.ProfessionalDues)},
	}
	for _, l := range lines {
		fmt.Fprintln(&buf, lipgloss.JoinHorizontal(lipgloss.Top, LabelStyle.Render(l.label), AmountStyle.Render(l.value)))
	}
	fmt.Fprintln(&buf)

	fmt.Fprintln(&buf, SectionStyle.Render("NON-HR (before rounding)"))
	for _, e := range domain.NonHREnvelopes {
		fmt.Fprintln(&buf, lipgloss.JoinHorizontal(lipgloss.Top,
			LabelStyle.Render(EnvelopeLabel(e)), AmountStyle.Render(FormatCurrency(b.NonHR[e]))))
	}

	return buf.Bytes()
}
