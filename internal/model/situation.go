// Package model defines the core domain models used throughout the application.
package model

import "time"

// VATStatus describes how a business is registered for VAT.
type VATStatus string

// VAT status constants.
const (
	VATStandard            VATStatus = "standard"
	VATSmallBusinessExempt VATStatus = "small_business_exempt"
)

// VehicleType describes the drivetrain of a company vehicle.
type VehicleType string

// Vehicle type constants.
const (
	VehicleNone   VehicleType = ""
	VehicleEV     VehicleType = "ev"
	VehicleHybrid VehicleType = "hybrid"
	VehicleICE    VehicleType = "ice"
)

// HomeOfficeMode describes how home-office costs are deducted.
type HomeOfficeMode string

// Home office mode constants.
const (
	HomeOfficeNone          HomeOfficeMode = "none"
	HomeOfficeFlatRate      HomeOfficeMode = "flat_rate"
	HomeOfficeDedicatedRoom HomeOfficeMode = "dedicated_room"
)

// Situation is a time-bound tax configuration. Situations are maintained
// externally and read-only to this application; From is inclusive, To is
// exclusive, a nil To means the situation is ongoing.
type Situation struct {
	From                    time.Time
	To                      *time.Time
	Jurisdiction            string
	VATStatus               VATStatus
	VehicleType             VehicleType
	HomeOfficeMode          HomeOfficeMode
	ID                      int
	VehicleBusinessPercent  int
	TelecomBusinessPercent  int
	InternetBusinessPercent int
	CompanyVehicle          bool
}

// Covers reports whether date falls inside the situation's [From, To) interval.
func (s *Situation) Covers(date time.Time) bool {
	if date.Before(s.From) {
		return false
	}
	if s.To == nil {
		return true
	}
	return date.Before(*s.To)
}

// IncomeSource is a named income-generating activity that expenses can be
// attributed to. The optional percent overrides supersede the situation
// defaults for expenses routed to this source.
type IncomeSource struct {
	ValidFrom       time.Time
	ValidTo         *time.Time
	TelecomPercent  *int
	InternetPercent *int
	VehiclePercent  *int
	ID              string
	Name            string
	Category        string
}

// PercentOverride returns the source's deductible percent for a category,
// when the source configures one. Only the category-percent categories can
// be overridden per source.
func (s *IncomeSource) PercentOverride(category string) (int, bool) {
	switch category {
	case CategoryTelecom:
		if s.TelecomPercent != nil {
			return *s.TelecomPercent, true
		}
	case CategoryInternet:
		if s.InternetPercent != nil {
			return *s.InternetPercent, true
		}
	case CategoryVehicle:
		if s.VehiclePercent != nil {
			return *s.VehiclePercent, true
		}
	}
	return 0, false
}

// ActiveOn reports whether the source's validity interval contains date.
func (s *IncomeSource) ActiveOn(date time.Time) bool {
	if date.Before(s.ValidFrom) {
		return false
	}
	if s.ValidTo == nil {
		return true
	}
	return date.Before(*s.ValidTo)
}

// SituationContext is the resolved situation for a date plus the income
// sources active on that date. It is computed on demand and never persisted.
type SituationContext struct {
	Date      time.Time
	Situation Situation
	Sources   []IncomeSource
}
