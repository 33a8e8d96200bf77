package model

import "time"

// AssignmentStatus tracks how far an expense has progressed through
// income-source assignment.
type AssignmentStatus string

// Assignment status constants.
const (
	AssignmentUnassigned AssignmentStatus = "UNASSIGNED"
	AssignmentSuggested  AssignmentStatus = "SUGGESTED"
	AssignmentConfirmed  AssignmentStatus = "CONFIRMED"
)

// Expense is a financial expense record derived from an email invoice.
// Retrieval and parsing happen upstream; this application only classifies
// and allocates.
type Expense struct {
	InvoiceDate      time.Time
	LastClassifiedAt *time.Time
	EmailID          string
	Account          string
	SenderDomain     string
	Subject          string
	Snippet          string
	Category         string
	SituationHash    string
	IncomeSourceID   string
	AssignmentStatus AssignmentStatus
	Allocations      []Allocation
	AmountCents      int64
	IncomeTaxPercent int
	VATRecoverable   bool
}

// Suggestion is the category suggestion produced by the external classifier.
// It is consumed as an opaque input; the validation pipeline verifies and
// corrects it but never produces one.
type Suggestion struct {
	Category          string
	Reason            string
	VendorProduct     string
	SuggestedSourceID string
	IncomeTaxPercent  int
	VATRecoverable    bool
	IsSplitCandidate  bool
}

// Deductibility categories. CategoryUnclear is the sentinel the classifier
// emits when it cannot decide; it always forces manual review.
const (
	CategoryFull       = "full"
	CategoryTelecom    = "telecom"
	CategoryInternet   = "internet"
	CategoryVehicle    = "vehicle"
	CategoryHomeOffice = "home_office"
	CategoryTravel     = "travel"
	CategoryEducation  = "education"
	CategoryNone       = "none"
	CategoryUnclear    = "unclear"
)

// Categories lists every deductibility category in its canonical order.
func Categories() []string {
	return []string{
		CategoryFull,
		CategoryTelecom,
		CategoryInternet,
		CategoryVehicle,
		CategoryHomeOffice,
		CategoryTravel,
		CategoryEducation,
		CategoryNone,
		CategoryUnclear,
	}
}

// IsValidCategory reports whether name is a known deductibility category.
func IsValidCategory(name string) bool {
	for _, c := range Categories() {
		if c == name {
			return true
		}
	}
	return false
}
