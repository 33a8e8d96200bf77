// Package anomaly flags statistical and contextual oddities in candidate
// classifications. Flags never correct anything; they feed the pipeline's
// review derivation.
package anomaly

import (
	"fmt"

	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/money"
	"github.com/steuerflow/steuerflow/internal/service"
)

// Thresholds for the historical amount check. An amount is suspicious when
// it falls outside [min/2, max*2] of the vendor's history, or exceeds 5x the
// historical mean; both require at least minSamples data points.
const (
	minSamples     = 3
	rangeShrink    = 2
	rangeStretch   = 2
	meanMultiplier = 5
)

// Input carries the candidate values under inspection.
type Input struct {
	Category       string
	VendorProduct  string
	SenderDomain   string
	Account        string
	AmountCents    int64
	VATRecoverable bool
}

// Detect runs all anomaly checks. stats may be nil when the vendor has no
// history; jur supplies the category's default VAT treatment.
func Detect(in Input, stats *service.VendorStats, jur service.JurisdictionModule, sit model.Situation) []model.AnomalyFlag {
	var flags []model.AnomalyFlag

	flags = append(flags, checkAmount(in, stats)...)
	flags = append(flags, checkVAT(in, jur, sit)...)
	flags = append(flags, checkPriorCategory(in, stats)...)

	return flags
}

func checkAmount(in Input, stats *service.VendorStats) []model.AnomalyFlag {
	if stats == nil || len(stats.Amounts) < minSamples {
		return nil
	}

	minAmount, maxAmount := stats.Amounts[0], stats.Amounts[0]
	var sum int64
	for _, a := range stats.Amounts {
		if a < minAmount {
			minAmount = a
		}
		if a > maxAmount {
			maxAmount = a
		}
		sum += a
	}
	mean := sum / int64(len(stats.Amounts))

	if in.AmountCents < minAmount/rangeShrink || in.AmountCents > maxAmount*rangeStretch {
		return []model.AnomalyFlag{{
			Check: "amount_range",
			Message: fmt.Sprintf("amount %s outside historical range %s to %s for %s",
				money.FormatEUR(in.AmountCents), money.FormatEUR(minAmount), money.FormatEUR(maxAmount), in.SenderDomain),
			Severity: model.AnomalyReviewRequired,
		}}
	}

	if mean > 0 && in.AmountCents > mean*meanMultiplier {
		return []model.AnomalyFlag{{
			Check: "amount_mean",
			Message: fmt.Sprintf("amount %s exceeds %dx the historical mean %s for %s",
				money.FormatEUR(in.AmountCents), meanMultiplier, money.FormatEUR(mean), in.SenderDomain),
			Severity: model.AnomalyReviewRequired,
		}}
	}

	return nil
}

func checkVAT(in Input, jur service.JurisdictionModule, sit model.Situation) []model.AnomalyFlag {
	if jur == nil {
		return nil
	}
	expected := jur.VATRecovery(in.Category, sit)
	if in.VATRecoverable == expected {
		return nil
	}
	return []model.AnomalyFlag{{
		Check: "vat_default",
		Message: fmt.Sprintf("VAT recoverable %t differs from the %s default %t for category %s",
			in.VATRecoverable, jur.Code(), expected, in.Category),
		Severity: model.AnomalyInfo,
	}}
}

func checkPriorCategory(in Input, stats *service.VendorStats) []model.AnomalyFlag {
	if stats == nil || stats.LastCategory == "" || stats.LastCategory == in.Category {
		return nil
	}
	return []model.AnomalyFlag{{
		Check: "vendor_history",
		Message: fmt.Sprintf("%s was previously classified as %s for this account, now %s",
			in.SenderDomain, stats.LastCategory, in.Category),
		Severity: model.AnomalyReviewRequired,
	}}
}
