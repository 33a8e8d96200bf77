package legal

import (
	"fmt"
	"strings"

	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
)

// Germany implements the German (DE) constraint set: Kleinunternehmer VAT
// exemption, the §15 UStG company-vehicle recovery rules, and business-use
// caps for telecom, internet and home-office deductions.
type Germany struct{}

// NewGermany creates the DE jurisdiction module.
func NewGermany() *Germany {
	return &Germany{}
}

// Code returns the ISO jurisdiction code.
func (g *Germany) Code() string {
	return "DE"
}

// EnforceConstraints applies the DE rules to a candidate classification.
// Corrections are recorded as violations, never thrown: auto-correction is
// the intended behavior.
func (g *Germany) EnforceConstraints(candidate service.Candidate, sit model.Situation) service.EnforcementResult {
	result := service.EnforcementResult{Candidate: candidate}
	c := &result.Candidate

	clampPercent := func(limit int, rule, msg string, severity model.ViolationSeverity) {
		if c.IncomeTaxPercent > limit {
			result.Violations = append(result.Violations, model.Violation{
				Rule:     rule,
				Message:  fmt.Sprintf("%s: %d%% reduced to %d%%", msg, c.IncomeTaxPercent, limit),
				Severity: severity,
			})
			c.IncomeTaxPercent = limit
			result.WasModified = true
		}
	}
	denyVAT := func(rule, msg string) {
		if c.VATRecoverable {
			result.Violations = append(result.Violations, model.Violation{
				Rule:     rule,
				Message:  msg,
				Severity: model.SeverityError,
			})
			c.VATRecoverable = false
			result.WasModified = true
		}
	}

	if c.IncomeTaxPercent < 0 {
		result.Violations = append(result.Violations, model.Violation{
			Rule:     "percent_bounds",
			Message:  fmt.Sprintf("income tax percent %d raised to 0", c.IncomeTaxPercent),
			Severity: model.SeverityError,
		})
		c.IncomeTaxPercent = 0
		result.WasModified = true
	}
	clampPercent(100, "percent_bounds", "income tax percent above 100", model.SeverityError)

	switch c.Category {
	case model.CategoryNone:
		clampPercent(0, "personal_no_deduction", "personal expenses are not deductible", model.SeverityError)
		denyVAT("personal_no_vat", "personal expenses carry no recoverable VAT")

	case model.CategoryVehicle:
		if !sit.CompanyVehicle {
			clampPercent(0, "vehicle_not_configured", "no company vehicle in this situation", model.SeverityError)
			denyVAT("vehicle_not_configured_vat", "no company vehicle in this situation")
		} else {
			clampPercent(sit.VehicleBusinessPercent, "vehicle_business_use_cap",
				"vehicle deduction capped at configured business use", model.SeverityWarning)
			// Only a fully electric company vehicle qualifies for input VAT
			// recovery; combustion and hybrid drivetrains do not.
			if sit.VehicleType != model.VehicleEV {
				denyVAT("vehicle_ice_no_vat", "VAT recovery requires a fully electric company vehicle")
			}
		}

	case model.CategoryTelecom:
		clampPercent(sit.TelecomBusinessPercent, "telecom_business_use_cap",
			"telecom deduction capped at configured business use", model.SeverityWarning)

	case model.CategoryInternet:
		clampPercent(sit.InternetBusinessPercent, "internet_business_use_cap",
			"internet deduction capped at configured business use", model.SeverityWarning)

	case model.CategoryHomeOffice:
		if sit.HomeOfficeMode == model.HomeOfficeNone {
			clampPercent(0, "home_office_not_configured", "no home office deduction in this situation", model.SeverityError)
			denyVAT("home_office_not_configured_vat", "no home office deduction in this situation")
		}
	}

	// Kleinunternehmer: no input VAT recovery for any category.
	if sit.VATStatus == model.VATSmallBusinessExempt {
		denyVAT("small_business_no_vat", "small-business-exempt status recovers no input VAT")
	}

	return result
}

// VATRecovery reports whether VAT is recoverable for a category under the
// situation; it agrees with EnforceConstraints by construction.
func (g *Germany) VATRecovery(category string, sit model.Situation) bool {
	if sit.VATStatus == model.VATSmallBusinessExempt {
		return false
	}
	switch category {
	case model.CategoryNone, model.CategoryUnclear:
		return false
	case model.CategoryVehicle:
		return sit.CompanyVehicle && sit.VehicleType == model.VehicleEV
	case model.CategoryHomeOffice:
		return sit.HomeOfficeMode != model.HomeOfficeNone
	default:
		return true
	}
}

// IncomeTaxPercent returns the default deductible percent for a category
// under the situation.
func (g *Germany) IncomeTaxPercent(category string, sit model.Situation) int {
	switch category {
	case model.CategoryFull, model.CategoryTravel, model.CategoryEducation:
		return 100
	case model.CategoryTelecom:
		return sit.TelecomBusinessPercent
	case model.CategoryInternet:
		return sit.InternetBusinessPercent
	case model.CategoryVehicle:
		if sit.CompanyVehicle {
			return sit.VehicleBusinessPercent
		}
		return 0
	case model.CategoryHomeOffice:
		if sit.HomeOfficeMode != model.HomeOfficeNone {
			return 100
		}
		return 0
	default:
		return 0
	}
}

// PromptInstructions returns guidance for the external classifier, derived
// from the situation's configuration.
func (g *Germany) PromptInstructions(sit model.Situation) string {
	var b strings.Builder
	b.WriteString("German tax rules apply. ")
	if sit.VATStatus == model.VATSmallBusinessExempt {
		b.WriteString("The business is small-business-exempt (Kleinunternehmer); never mark VAT as recoverable. ")
	}
	if sit.CompanyVehicle {
		fmt.Fprintf(&b, "A company vehicle (%s) exists with %d%% business use. ", sit.VehicleType, sit.VehicleBusinessPercent)
	} else {
		b.WriteString("There is no company vehicle; vehicle expenses are not deductible. ")
	}
	fmt.Fprintf(&b, "Telecom is deductible at %d%%, internet at %d%%. ", sit.TelecomBusinessPercent, sit.InternetBusinessPercent)
	if sit.HomeOfficeMode == model.HomeOfficeNone {
		b.WriteString("Home office costs are not deductible.")
	} else {
		fmt.Fprintf(&b, "Home office deduction mode: %s.", sit.HomeOfficeMode)
	}
	return b.String()
}

// ValidateAllocations checks a proposed allocation set: percentages must be
// positive, sum to at most 100, and reference each source at most once.
func (g *Germany) ValidateAllocations(allocs []model.Allocation) error {
	seen := make(map[string]bool, len(allocs))
	total := 0
	for _, a := range allocs {
		if a.SourceID == "" {
			return fmt.Errorf("allocation with empty source id")
		}
		if a.Percent <= 0 || a.Percent > 100 {
			return fmt.Errorf("allocation for %q has percent %d outside (0,100]", a.SourceID, a.Percent)
		}
		if seen[a.SourceID] {
			return fmt.Errorf("duplicate allocation for source %q", a.SourceID)
		}
		seen[a.SourceID] = true
		total += a.Percent
	}
	if total > 100 {
		return fmt.Errorf("allocations sum to %d%%, exceeding 100%%", total)
	}
	return nil
}
