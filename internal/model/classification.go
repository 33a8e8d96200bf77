package model

// ViolationSeverity distinguishes hard legal corrections from advisory notes.
type ViolationSeverity string

// Violation severity constants.
const (
	SeverityError   ViolationSeverity = "error"
	SeverityWarning ViolationSeverity = "warning"
)

// Violation records a legal-constraint correction or note applied by a
// jurisdiction module.
type Violation struct {
	Rule     string
	Message  string
	Severity ViolationSeverity
}

// CrossValidationVerdict is the outcome of comparing the candidate category
// against the vendor knowledge base.
type CrossValidationVerdict string

// Cross-validation verdict constants.
const (
	VerdictAgree         CrossValidationVerdict = "agree"
	VerdictDisagree      CrossValidationVerdict = "disagree"
	VerdictUnknownVendor CrossValidationVerdict = "unknown_vendor"
)

// CrossValidation is the cross-validator's full result.
type CrossValidation struct {
	Verdict          CrossValidationVerdict
	Category         string
	VendorDBCategory string
	VendorName       string
	Confidence       ConfidenceTier
	SuggestedAction  string
}

// AnomalySeverity tags an anomaly flag as informational or review-blocking.
type AnomalySeverity string

// Anomaly severity constants.
const (
	AnomalyInfo           AnomalySeverity = "info"
	AnomalyReviewRequired AnomalySeverity = "review_required"
)

// AnomalyFlag records one statistical or contextual oddity.
type AnomalyFlag struct {
	Check    string
	Message  string
	Severity AnomalySeverity
}

// ConfidenceTier expresses how much the pipeline trusts the final category.
type ConfidenceTier string

// Confidence tier constants.
const (
	ConfidenceHigh   ConfidenceTier = "high"
	ConfidenceMedium ConfidenceTier = "medium"
	ConfidenceLow    ConfidenceTier = "low"
)

var confidenceRank = map[ConfidenceTier]int{
	ConfidenceLow:    0,
	ConfidenceMedium: 1,
	ConfidenceHigh:   2,
}

// Below reports whether c ranks strictly below other.
func (c ConfidenceTier) Below(other ConfidenceTier) bool {
	return confidenceRank[c] < confidenceRank[other]
}

// Min returns the lower of c and other.
func (c ConfidenceTier) Min(other ConfidenceTier) ConfidenceTier {
	if c.Below(other) {
		return c
	}
	return other
}

// ValidatedClassification is the immutable output of one validation pipeline
// run. A rerun that produces a different result is a new entity logged to
// history, never an edit of this one.
type ValidatedClassification struct {
	RunID              string
	Category           string
	Reason             string
	OriginalCategory   string
	ReviewReasons      []string
	Violations         []Violation
	Anomalies          []AnomalyFlag
	CrossValidation    CrossValidation
	Confidence         ConfidenceTier
	IncomeTaxPercent   int
	OriginalTaxPercent int
	VATRecoverable     bool
	OriginalVAT        bool
	WasModified        bool
	NeedsReview        bool
}
