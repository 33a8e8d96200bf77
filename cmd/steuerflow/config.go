package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/steuerflow/steuerflow/internal/allocation"
	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/situation"
)

// situationEntry mirrors one situation in the config file. Dates are
// "2006-01-02" strings; an empty "to" means ongoing.
type situationEntry struct {
	From                    string `mapstructure:"from"`
	To                      string `mapstructure:"to"`
	Jurisdiction            string `mapstructure:"jurisdiction"`
	VATStatus               string `mapstructure:"vat_status"`
	VehicleType             string `mapstructure:"vehicle_type"`
	HomeOfficeMode          string `mapstructure:"home_office_mode"`
	ID                      int    `mapstructure:"id"`
	VehicleBusinessPercent  int    `mapstructure:"vehicle_business_percent"`
	TelecomBusinessPercent  int    `mapstructure:"telecom_business_percent"`
	InternetBusinessPercent int    `mapstructure:"internet_business_percent"`
	CompanyVehicle          bool   `mapstructure:"company_vehicle"`
}

// sourceEntry mirrors one income source in the config file.
type sourceEntry struct {
	ID              string `mapstructure:"id"`
	Name            string `mapstructure:"name"`
	Category        string `mapstructure:"category"`
	ValidFrom       string `mapstructure:"valid_from"`
	ValidTo         string `mapstructure:"valid_to"`
	TelecomPercent  *int   `mapstructure:"telecom_percent"`
	InternetPercent *int   `mapstructure:"internet_percent"`
	VehiclePercent  *int   `mapstructure:"vehicle_percent"`
}

func parseDate(value, field string) (time.Time, error) {
	ts, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q for %s: %w", value, field, err)
	}
	return ts, nil
}

func parseOptionalDate(value, field string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := parseDate(value, field)
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// loadSnapshot builds the situation snapshot from the loaded config file.
func loadSnapshot() (*situation.Snapshot, error) {
	var sitEntries []situationEntry
	if err := viper.UnmarshalKey("situations", &sitEntries); err != nil {
		return nil, fmt.Errorf("failed to parse situations: %w", err)
	}
	var srcEntries []sourceEntry
	if err := viper.UnmarshalKey("income_sources", &srcEntries); err != nil {
		return nil, fmt.Errorf("failed to parse income sources: %w", err)
	}

	situations := make([]model.Situation, 0, len(sitEntries))
	for _, e := range sitEntries {
		from, err := parseDate(e.From, fmt.Sprintf("situation %d from", e.ID))
		if err != nil {
			return nil, err
		}
		to, err := parseOptionalDate(e.To, fmt.Sprintf("situation %d to", e.ID))
		if err != nil {
			return nil, err
		}
		situations = append(situations, model.Situation{
			ID:                      e.ID,
			From:                    from,
			To:                      to,
			Jurisdiction:            e.Jurisdiction,
			VATStatus:               model.VATStatus(e.VATStatus),
			CompanyVehicle:          e.CompanyVehicle,
			VehicleType:             model.VehicleType(e.VehicleType),
			VehicleBusinessPercent:  e.VehicleBusinessPercent,
			TelecomBusinessPercent:  e.TelecomBusinessPercent,
			InternetBusinessPercent: e.InternetBusinessPercent,
			HomeOfficeMode:          model.HomeOfficeMode(e.HomeOfficeMode),
		})
	}

	sources := make([]model.IncomeSource, 0, len(srcEntries))
	for _, e := range srcEntries {
		validFrom, err := parseDate(e.ValidFrom, fmt.Sprintf("source %s valid_from", e.ID))
		if err != nil {
			return nil, err
		}
		validTo, err := parseOptionalDate(e.ValidTo, fmt.Sprintf("source %s valid_to", e.ID))
		if err != nil {
			return nil, err
		}
		sources = append(sources, model.IncomeSource{
			ID:              e.ID,
			Name:            e.Name,
			Category:        e.Category,
			ValidFrom:       validFrom,
			ValidTo:         validTo,
			TelecomPercent:  e.TelecomPercent,
			InternetPercent: e.InternetPercent,
			VehiclePercent:  e.VehiclePercent,
		})
	}

	return situation.NewSnapshot(situations, sources)
}

// ruleEntry mirrors one allocation rule in the config file.
type ruleEntry struct {
	VendorDomain   string       `mapstructure:"vendor_domain"`
	VendorPattern  string       `mapstructure:"vendor_pattern"`
	Category       string       `mapstructure:"category"`
	Allocations    []allocEntry `mapstructure:"allocations"`
	ID             int          `mapstructure:"id"`
	MinAmountCents int64        `mapstructure:"min_amount_cents"`
}

type allocEntry struct {
	SourceID string `mapstructure:"source_id"`
	Percent  int    `mapstructure:"percent"`
}

// loadAllocationConfig builds the allocation config from the loaded config
// file: user rules under "allocation_rules", per-category default sources
// under "category_defaults".
func loadAllocationConfig(snap *situation.Snapshot) (allocation.Config, error) {
	var ruleEntries []ruleEntry
	if err := viper.UnmarshalKey("allocation_rules", &ruleEntries); err != nil {
		return allocation.Config{}, fmt.Errorf("failed to parse allocation rules: %w", err)
	}

	rules := make([]model.AllocationRule, 0, len(ruleEntries))
	for _, e := range ruleEntries {
		allocs := make([]model.Allocation, 0, len(e.Allocations))
		for _, a := range e.Allocations {
			allocs = append(allocs, model.Allocation{SourceID: a.SourceID, Percent: a.Percent})
		}
		rules = append(rules, model.AllocationRule{
			ID:             e.ID,
			VendorDomain:   e.VendorDomain,
			VendorPattern:  e.VendorPattern,
			Category:       e.Category,
			MinAmountCents: e.MinAmountCents,
			Allocations:    allocs,
		})
	}

	return allocation.NewConfig(snap, rules, viper.GetStringMapString("category_defaults"))
}

// databasePath resolves the database location from config or the default.
func databasePath() (string, error) {
	if path := viper.GetString("database.path"); path != "" {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "steuerflow", "steuerflow.db"), nil
}
