package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steuerflow/steuerflow/internal/legal"
	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
)

func testSituation() model.Situation {
	return model.Situation{
		ID:                      1,
		Jurisdiction:            "DE",
		VATStatus:               model.VATStandard,
		TelecomBusinessPercent:  50,
		InternetBusinessPercent: 50,
		HomeOfficeMode:          model.HomeOfficeFlatRate,
	}
}

func findCheck(flags []model.AnomalyFlag, check string) *model.AnomalyFlag {
	for i := range flags {
		if flags[i].Check == check {
			return &flags[i]
		}
	}
	return nil
}

func TestDetectAmountRange(t *testing.T) {
	de := legal.NewGermany()
	// History for this vendor: 9.99 to 12.99.
	stats := &service.VendorStats{
		Amounts:      []int64{999, 1099, 1299},
		LastCategory: model.CategoryFull,
		SampleCount:  3,
	}

	tests := []struct {
		name        string
		amountCents int64
		wantFlag    bool
	}{
		{name: "within historical range", amountCents: 1199, wantFlag: false},
		{name: "inside stretched bounds", amountCents: 2500, wantFlag: false},
		{name: "far above range", amountCents: 9900, wantFlag: true},
		{name: "far below range", amountCents: 300, wantFlag: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := Detect(Input{
				Category:       model.CategoryFull,
				AmountCents:    tt.amountCents,
				SenderDomain:   "hetzner.com",
				VATRecoverable: true,
			}, stats, de, testSituation())

			flag := findCheck(flags, "amount_range")
			if tt.wantFlag {
				require.NotNil(t, flag)
				assert.Equal(t, model.AnomalyReviewRequired, flag.Severity)
			} else {
				assert.Nil(t, flag)
			}
		})
	}
}

func TestDetectAmountNeedsHistory(t *testing.T) {
	de := legal.NewGermany()
	stats := &service.VendorStats{Amounts: []int64{999, 1099}, SampleCount: 2}

	flags := Detect(Input{
		Category:       model.CategoryFull,
		AmountCents:    99999,
		SenderDomain:   "hetzner.com",
		VATRecoverable: true,
	}, stats, de, testSituation())

	assert.Nil(t, findCheck(flags, "amount_range"))
	assert.Nil(t, findCheck(flags, "amount_mean"))
}

func TestDetectVATInconsistency(t *testing.T) {
	de := legal.NewGermany()

	// Small-business-exempt situations never recover VAT, so a recoverable
	// candidate is worth noting.
	sit := testSituation()
	sit.VATStatus = model.VATSmallBusinessExempt

	flags := Detect(Input{
		Category:       model.CategoryFull,
		AmountCents:    1000,
		SenderDomain:   "hetzner.com",
		VATRecoverable: true,
	}, nil, de, sit)

	flag := findCheck(flags, "vat_default")
	require.NotNil(t, flag)
	assert.Equal(t, model.AnomalyInfo, flag.Severity)
}

func TestDetectPriorCategoryContradiction(t *testing.T) {
	de := legal.NewGermany()
	stats := &service.VendorStats{
		Amounts:      []int64{1000},
		LastCategory: model.CategoryTelecom,
		SampleCount:  1,
	}

	flags := Detect(Input{
		Category:       model.CategoryFull,
		AmountCents:    1000,
		SenderDomain:   "telekom.de",
		Account:        "acct",
		VATRecoverable: true,
	}, stats, de, testSituation())

	flag := findCheck(flags, "vendor_history")
	require.NotNil(t, flag)
	assert.Equal(t, model.AnomalyReviewRequired, flag.Severity)
	assert.Contains(t, flag.Message, model.CategoryTelecom)
}

func TestDetectCleanExpense(t *testing.T) {
	de := legal.NewGermany()
	stats := &service.VendorStats{
		Amounts:      []int64{999, 1099, 1299},
		LastCategory: model.CategoryFull,
		SampleCount:  3,
	}

	flags := Detect(Input{
		Category:       model.CategoryFull,
		AmountCents:    1100,
		SenderDomain:   "hetzner.com",
		VATRecoverable: true,
	}, stats, de, testSituation())

	assert.Empty(t, flags)
}

func TestDetectNoHistory(t *testing.T) {
	de := legal.NewGermany()

	flags := Detect(Input{
		Category:       model.CategoryFull,
		AmountCents:    1100,
		SenderDomain:   "new-vendor.example",
		VATRecoverable: true,
	}, nil, de, testSituation())

	assert.Empty(t, flags)
}
