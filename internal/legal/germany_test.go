package legal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
)

func standardSituation() model.Situation {
	return model.Situation{
		ID:                      1,
		Jurisdiction:            "DE",
		VATStatus:               model.VATStandard,
		TelecomBusinessPercent:  50,
		InternetBusinessPercent: 50,
		HomeOfficeMode:          model.HomeOfficeFlatRate,
	}
}

func TestEnforceConstraints(t *testing.T) {
	de := NewGermany()

	tests := []struct {
		name           string
		candidate      service.Candidate
		situation      model.Situation
		want           service.Candidate
		wantModified   bool
		wantSeverities []model.ViolationSeverity
	}{
		{
			name:      "clean full deduction passes untouched",
			candidate: service.Candidate{Category: model.CategoryFull, IncomeTaxPercent: 100, VATRecoverable: true},
			situation: standardSituation(),
			want:      service.Candidate{Category: model.CategoryFull, IncomeTaxPercent: 100, VATRecoverable: true},
		},
		{
			name:      "ice vehicle loses vat recovery",
			candidate: service.Candidate{Category: model.CategoryVehicle, IncomeTaxPercent: 80, VATRecoverable: true},
			situation: func() model.Situation {
				s := standardSituation()
				s.CompanyVehicle = true
				s.VehicleType = model.VehicleICE
				s.VehicleBusinessPercent = 80
				return s
			}(),
			want:           service.Candidate{Category: model.CategoryVehicle, IncomeTaxPercent: 80, VATRecoverable: false},
			wantModified:   true,
			wantSeverities: []model.ViolationSeverity{model.SeverityError},
		},
		{
			name:      "ev vehicle keeps vat recovery",
			candidate: service.Candidate{Category: model.CategoryVehicle, IncomeTaxPercent: 80, VATRecoverable: true},
			situation: func() model.Situation {
				s := standardSituation()
				s.CompanyVehicle = true
				s.VehicleType = model.VehicleEV
				s.VehicleBusinessPercent = 80
				return s
			}(),
			want: service.Candidate{Category: model.CategoryVehicle, IncomeTaxPercent: 80, VATRecoverable: true},
		},
		{
			name:           "vehicle without company vehicle zeroed",
			candidate:      service.Candidate{Category: model.CategoryVehicle, IncomeTaxPercent: 80, VATRecoverable: true},
			situation:      standardSituation(),
			want:           service.Candidate{Category: model.CategoryVehicle, IncomeTaxPercent: 0, VATRecoverable: false},
			wantModified:   true,
			wantSeverities: []model.ViolationSeverity{model.SeverityError, model.SeverityError},
		},
		{
			name:           "telecom clamped to configured percent",
			candidate:      service.Candidate{Category: model.CategoryTelecom, IncomeTaxPercent: 100, VATRecoverable: true},
			situation:      standardSituation(),
			want:           service.Candidate{Category: model.CategoryTelecom, IncomeTaxPercent: 50, VATRecoverable: true},
			wantModified:   true,
			wantSeverities: []model.ViolationSeverity{model.SeverityWarning},
		},
		{
			name:      "telecom below cap untouched",
			candidate: service.Candidate{Category: model.CategoryTelecom, IncomeTaxPercent: 40, VATRecoverable: true},
			situation: standardSituation(),
			want:      service.Candidate{Category: model.CategoryTelecom, IncomeTaxPercent: 40, VATRecoverable: true},
		},
		{
			name:      "small business exempt recovers no vat",
			candidate: service.Candidate{Category: model.CategoryFull, IncomeTaxPercent: 100, VATRecoverable: true},
			situation: func() model.Situation {
				s := standardSituation()
				s.VATStatus = model.VATSmallBusinessExempt
				return s
			}(),
			want:           service.Candidate{Category: model.CategoryFull, IncomeTaxPercent: 100, VATRecoverable: false},
			wantModified:   true,
			wantSeverities: []model.ViolationSeverity{model.SeverityError},
		},
		{
			name:           "personal expense zeroed",
			candidate:      service.Candidate{Category: model.CategoryNone, IncomeTaxPercent: 30, VATRecoverable: true},
			situation:      standardSituation(),
			want:           service.Candidate{Category: model.CategoryNone, IncomeTaxPercent: 0, VATRecoverable: false},
			wantModified:   true,
			wantSeverities: []model.ViolationSeverity{model.SeverityError, model.SeverityError},
		},
		{
			name:      "home office without configuration zeroed",
			candidate: service.Candidate{Category: model.CategoryHomeOffice, IncomeTaxPercent: 100, VATRecoverable: false},
			situation: func() model.Situation {
				s := standardSituation()
				s.HomeOfficeMode = model.HomeOfficeNone
				return s
			}(),
			want:           service.Candidate{Category: model.CategoryHomeOffice, IncomeTaxPercent: 0, VATRecoverable: false},
			wantModified:   true,
			wantSeverities: []model.ViolationSeverity{model.SeverityError},
		},
		{
			name:           "percent above 100 clamped",
			candidate:      service.Candidate{Category: model.CategoryFull, IncomeTaxPercent: 150, VATRecoverable: true},
			situation:      standardSituation(),
			want:           service.Candidate{Category: model.CategoryFull, IncomeTaxPercent: 100, VATRecoverable: true},
			wantModified:   true,
			wantSeverities: []model.ViolationSeverity{model.SeverityError},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := de.EnforceConstraints(tt.candidate, tt.situation)
			assert.Equal(t, tt.want, result.Candidate)
			assert.Equal(t, tt.wantModified, result.WasModified)

			severities := make([]model.ViolationSeverity, len(result.Violations))
			for i, v := range result.Violations {
				severities[i] = v.Severity
			}
			if tt.wantSeverities == nil {
				assert.Empty(t, severities)
			} else {
				assert.ElementsMatch(t, tt.wantSeverities, severities)
			}
		})
	}
}

func TestEnforceConstraintsIdempotent(t *testing.T) {
	de := NewGermany()

	situations := []model.Situation{
		standardSituation(),
		func() model.Situation {
			s := standardSituation()
			s.VATStatus = model.VATSmallBusinessExempt
			return s
		}(),
		func() model.Situation {
			s := standardSituation()
			s.CompanyVehicle = true
			s.VehicleType = model.VehicleICE
			s.VehicleBusinessPercent = 70
			return s
		}(),
	}
	candidates := []service.Candidate{
		{Category: model.CategoryVehicle, IncomeTaxPercent: 100, VATRecoverable: true},
		{Category: model.CategoryTelecom, IncomeTaxPercent: 100, VATRecoverable: true},
		{Category: model.CategoryNone, IncomeTaxPercent: 50, VATRecoverable: true},
		{Category: model.CategoryHomeOffice, IncomeTaxPercent: 100, VATRecoverable: true},
		{Category: model.CategoryFull, IncomeTaxPercent: 120, VATRecoverable: true},
	}

	for _, sit := range situations {
		for _, candidate := range candidates {
			first := de.EnforceConstraints(candidate, sit)
			second := de.EnforceConstraints(first.Candidate, sit)
			assert.Empty(t, second.Violations,
				"re-applying to %+v under situation %d produced new violations", candidate, sit.ID)
			assert.False(t, second.WasModified)
			assert.Equal(t, first.Candidate, second.Candidate)
		}
	}
}

func TestVATRecoveryAgreesWithEnforcement(t *testing.T) {
	de := NewGermany()
	sit := standardSituation()
	sit.CompanyVehicle = true
	sit.VehicleType = model.VehicleHybrid
	sit.VehicleBusinessPercent = 60

	for _, category := range model.Categories() {
		expected := de.VATRecovery(category, sit)
		result := de.EnforceConstraints(service.Candidate{
			Category:         category,
			IncomeTaxPercent: de.IncomeTaxPercent(category, sit),
			VATRecoverable:   expected,
		}, sit)
		assert.Equal(t, expected, result.Candidate.VATRecoverable, "category %s", category)
		assert.Empty(t, result.Violations, "category %s", category)
	}
}

func TestValidateAllocations(t *testing.T) {
	de := NewGermany()

	tests := []struct {
		name    string
		allocs  []model.Allocation
		wantErr bool
	}{
		{name: "empty set valid", allocs: nil},
		{name: "full allocation", allocs: []model.Allocation{{SourceID: "a", Percent: 100}}},
		{name: "partial split", allocs: []model.Allocation{{SourceID: "a", Percent: 60}, {SourceID: "b", Percent: 30}}},
		{name: "sum above 100", allocs: []model.Allocation{{SourceID: "a", Percent: 70}, {SourceID: "b", Percent: 40}}, wantErr: true},
		{name: "zero percent", allocs: []model.Allocation{{SourceID: "a", Percent: 0}}, wantErr: true},
		{name: "duplicate source", allocs: []model.Allocation{{SourceID: "a", Percent: 40}, {SourceID: "a", Percent: 40}}, wantErr: true},
		{name: "empty source id", allocs: []model.Allocation{{Percent: 50}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := de.ValidateAllocations(tt.allocs)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRegistryLookup(t *testing.T) {
	registry := DefaultRegistry()

	de, err := registry.Lookup("DE")
	require.NoError(t, err)
	assert.Equal(t, "DE", de.Code())

	_, err = registry.Lookup("XX")
	assert.Error(t, err)
	assert.Equal(t, []string{"DE"}, registry.Codes())
}

func TestPromptInstructions(t *testing.T) {
	de := NewGermany()

	sit := standardSituation()
	sit.VATStatus = model.VATSmallBusinessExempt
	text := de.PromptInstructions(sit)
	assert.Contains(t, text, "Kleinunternehmer")
	assert.Contains(t, text, "50%")
}
