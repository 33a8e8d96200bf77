package situation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steuerflow/steuerflow/internal/model"
)

func TestDetectReclassification(t *testing.T) {
	snap, err := NewSnapshot(testSituations(), testSources())
	require.NoError(t, err)

	currentHash, ok := FingerprintForDate(snap, date(2024, 3, 1))
	require.True(t, ok)

	tests := []struct {
		name       string
		expense    model.Expense
		wantReason ReclassifyReason
		wantFlag   bool
	}{
		{
			name: "up to date",
			expense: model.Expense{
				EmailID: "e1", Account: "acct", InvoiceDate: date(2024, 3, 1),
				SituationHash: currentHash,
			},
			wantFlag: false,
		},
		{
			name: "never classified",
			expense: model.Expense{
				EmailID: "e2", Account: "acct", InvoiceDate: date(2024, 3, 1),
			},
			wantFlag:   true,
			wantReason: ReasonNeverClassified,
		},
		{
			name: "situation changed",
			expense: model.Expense{
				EmailID: "e3", Account: "acct", InvoiceDate: date(2024, 3, 1),
				SituationHash: "0000000000000000",
			},
			wantFlag:   true,
			wantReason: ReasonSituationChanged,
		},
		{
			name: "coverage removed",
			expense: model.Expense{
				EmailID: "e4", Account: "acct", InvoiceDate: date(2020, 1, 1),
				SituationHash: "0000000000000000",
			},
			wantFlag:   true,
			wantReason: ReasonNoCoverage,
		},
		{
			name: "never covered and never classified",
			expense: model.Expense{
				EmailID: "e5", Account: "acct", InvoiceDate: date(2020, 1, 1),
			},
			wantFlag: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags := DetectReclassification([]model.Expense{tt.expense}, snap)
			if !tt.wantFlag {
				assert.Empty(t, flags)
				return
			}
			require.Len(t, flags, 1)
			assert.Equal(t, tt.wantReason, flags[0].Reason)
			assert.Equal(t, tt.expense.EmailID, flags[0].EmailID)
		})
	}
}

func TestDetectReclassificationRoundTrip(t *testing.T) {
	snap, err := NewSnapshot(testSituations(), testSources())
	require.NoError(t, err)

	hash, ok := FingerprintForDate(snap, date(2024, 3, 1))
	require.True(t, ok)

	expense := model.Expense{
		EmailID: "e1", Account: "acct", InvoiceDate: date(2024, 3, 1),
		SituationHash: hash,
	}

	// Up to date: no flag.
	assert.Empty(t, DetectReclassification([]model.Expense{expense}, snap))

	// Marking clears the fingerprint; the next run sees never_classified.
	expense.SituationHash = ""
	flags := DetectReclassification([]model.Expense{expense}, snap)
	require.Len(t, flags, 1)
	assert.Equal(t, ReasonNeverClassified, flags[0].Reason)

	// Re-classifying restores the same hash against an unchanged snapshot.
	expense.SituationHash = flags[0].NewFingerprint
	assert.Empty(t, DetectReclassification([]model.Expense{expense}, snap))
}

func TestSummarize(t *testing.T) {
	flags := []ReclassifyFlag{
		{EmailID: "e1", InvoiceDate: date(2024, 3, 1), Reason: ReasonSituationChanged},
		{EmailID: "e2", InvoiceDate: date(2023, 5, 1), Reason: ReasonNeverClassified},
		{EmailID: "e3", InvoiceDate: date(2024, 8, 1), Reason: ReasonSituationChanged},
	}

	summary := Summarize(flags)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 2, summary.ByReason[ReasonSituationChanged])
	assert.Equal(t, 1, summary.ByReason[ReasonNeverClassified])
	assert.Equal(t, date(2023, 5, 1), summary.From)
	assert.Equal(t, date(2024, 8, 1), summary.To)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.Total)
	assert.Empty(t, summary.ByReason)
}
