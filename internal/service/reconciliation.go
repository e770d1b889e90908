package service

// reconciliation.go
// Pure computation layer over the shift ledger: expected totals, variance and
// its classification, report assembly. No state, no writes — everything here
// faithfully reflects the ledger's numbers so it can be unit-tested without a
// database and reused by the close flow, the report endpoint, and the e-mail
// summary.

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"caribepos/internal/dto"
	"caribepos/internal/model"
	"caribepos/internal/repository"

	"github.com/shopspring/decimal"
)

// Variance classifications (arqueo policy): normal ≤1%, advertencia ≤5%,
// critico above that.
const (
	VarianceNormal   = "normal"
	VarianceWarning  = "advertencia"
	VarianceCritical = "critico"
)

// ExpectedTotals computes, per currency:
//
//	expected = opening_counted + Σ in − Σ (out where reason ≠ "change")
//
// Change handed back during a cash sale is excluded from the outflow: the
// corresponding sale payment's cash-in already nets it out, so counting it
// again would double-subtract. This is business policy carried over from the
// drawer-accounting rules, not an arithmetic choice.
func ExpectedTotals(opening map[string]decimal.Decimal, sums []repository.MovementSum) map[string]decimal.Decimal {
	expected := make(map[string]decimal.Decimal, len(opening))
	for cur, total := range opening {
		expected[cur] = total
	}
	for _, s := range sums {
		cur := s.CurrencyCode
		base, ok := expected[cur]
		if !ok {
			base = decimal.Zero
		}
		switch {
		case s.Direction == model.MovementIn:
			expected[cur] = base.Add(s.Total)
		case s.Direction == model.MovementOut && s.Reason != model.ReasonChange:
			expected[cur] = base.Sub(s.Total)
		default:
			expected[cur] = base
		}
	}
	for cur := range expected {
		expected[cur] = expected[cur].Round(2)
	}
	return expected
}

// ClassifyVariance buckets a variance percentage.
func ClassifyVariance(pct decimal.Decimal) string {
	abs := pct.Abs()
	switch {
	case abs.LessThanOrEqual(decimal.NewFromInt(1)):
		return VarianceNormal
	case abs.LessThanOrEqual(decimal.NewFromInt(5)):
		return VarianceWarning
	default:
		return VarianceCritical
	}
}

// CurrencyVariances joins opening, expected and counted totals into per-currency
// report lines. Currencies present in any of the three maps appear; missing
// values default to zero. Output is sorted by currency code for stable display.
func CurrencyVariances(opening, expected, counted map[string]decimal.Decimal) []dto.CurrencyVariance {
	currencies := make(map[string]struct{})
	for cur := range opening {
		currencies[cur] = struct{}{}
	}
	for cur := range expected {
		currencies[cur] = struct{}{}
	}
	for cur := range counted {
		currencies[cur] = struct{}{}
	}

	codes := make([]string, 0, len(currencies))
	for cur := range currencies {
		codes = append(codes, cur)
	}
	sort.Strings(codes)

	rows := make([]dto.CurrencyVariance, 0, len(codes))
	for _, cur := range codes {
		exp := expected[cur]
		cnt := counted[cur]
		variance := cnt.Sub(exp).Round(2)
		var pct decimal.Decimal
		if !exp.IsZero() {
			pct = variance.Div(exp).Mul(decimal.NewFromInt(100)).Round(2)
		}
		rows = append(rows, dto.CurrencyVariance{
			CurrencyCode:   cur,
			Opening:        opening[cur].Round(2),
			Expected:       exp,
			Counted:        cnt.Round(2),
			Variance:       variance,
			VariancePct:    pct,
			Classification: ClassifyVariance(pct),
		})
	}
	return rows
}

// BuildShiftReport assembles the full reconciliation report for a shift.
func BuildShiftReport(shift *model.CashShift, opening, expected, counted map[string]decimal.Decimal, payments []repository.PaymentSummaryRow) *dto.ShiftReportResponse {
	report := &dto.ShiftReportResponse{
		ShiftID:    shift.ID.String(),
		RegisterID: shift.RegisterID.String(),
		Status:     shift.Status,
		OpenedAt:   shift.OpenedAt.Format(time.RFC3339),
		Currencies: CurrencyVariances(opening, expected, counted),
	}
	if shift.ClosedAt != nil {
		t := shift.ClosedAt.Format(time.RFC3339)
		report.ClosedAt = &t
	}
	report.PaymentSummary = make([]dto.PaymentSummaryRowResponse, 0, len(payments))
	for _, p := range payments {
		report.PaymentSummary = append(report.PaymentSummary, dto.PaymentSummaryRowResponse{
			Method:                p.Method,
			CurrencyCode:          p.CurrencyCode,
			Count:                 p.Count,
			Amount:                p.Amount.Round(2),
			AmountInShiftCurrency: p.AmountInShiftCurrency.Round(2),
		})
	}
	return report
}

// RenderReportText renders the report as plain text for the close-of-shift
// e-mail summary.
func RenderReportText(report *dto.ShiftReportResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Cierre de turno %s\n\n", report.ShiftID)
	for _, c := range report.Currencies {
		fmt.Fprintf(&b, "%s  esperado=%s  contado=%s  diferencia=%s (%s%%) [%s]\n",
			c.CurrencyCode, c.Expected.StringFixed(2), c.Counted.StringFixed(2),
			c.Variance.StringFixed(2), c.VariancePct.StringFixed(2), c.Classification)
	}
	if len(report.PaymentSummary) > 0 {
		b.WriteString("\nPagos del turno:\n")
		for _, p := range report.PaymentSummary {
			fmt.Fprintf(&b, "%-10s %s  x%d  %s\n",
				p.Method, p.CurrencyCode, p.Count, p.Amount.StringFixed(2))
		}
	}
	return b.String()
}
