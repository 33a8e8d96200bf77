package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPercentOverride(t *testing.T) {
	telecom, internet, vehicle := 80, 90, 40
	src := IncomeSource{
		ID:              "consulting",
		TelecomPercent:  &telecom,
		InternetPercent: &internet,
		VehiclePercent:  &vehicle,
	}

	tests := []struct {
		category string
		wantPct  int
		wantOK   bool
	}{
		{category: CategoryTelecom, wantPct: 80, wantOK: true},
		{category: CategoryInternet, wantPct: 90, wantOK: true},
		{category: CategoryVehicle, wantPct: 40, wantOK: true},
		{category: CategoryFull, wantOK: false},
		{category: CategoryNone, wantOK: false},
		{category: CategoryHomeOffice, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			pct, ok := src.PercentOverride(tt.category)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantPct, pct)
			}
		})
	}
}

func TestPercentOverrideUnset(t *testing.T) {
	src := IncomeSource{ID: "consulting", ValidFrom: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	for _, category := range Categories() {
		_, ok := src.PercentOverride(category)
		assert.False(t, ok, category)
	}
}
