// Package situation implements point-in-time resolution of tax situations,
// configuration fingerprinting, and reclassification drift detection.
package situation

import (
	"fmt"
	"sort"
	"time"

	"github.com/steuerflow/steuerflow/internal/common"
	"github.com/steuerflow/steuerflow/internal/model"
)

// Snapshot is an immutable view of the externally maintained tax
// configuration: all situations and income sources. Resolution is a pure
// function of (snapshot, date); there is no ambient global state.
type Snapshot struct {
	sourceByID map[string]model.IncomeSource
	situations []model.Situation
	sources    []model.IncomeSource
}

// NewSnapshot validates the configuration and builds a snapshot. Overlapping
// situation intervals within one jurisdiction are rejected: an ambiguous
// snapshot cannot be built, so resolution never has to break a tie.
func NewSnapshot(situations []model.Situation, sources []model.IncomeSource) (*Snapshot, error) {
	seenIDs := make(map[int]bool, len(situations))
	for i := range situations {
		s := &situations[i]
		if s.ID <= 0 {
			return nil, fmt.Errorf("%w: situation with non-positive id %d", common.ErrInvalidConfig, s.ID)
		}
		if seenIDs[s.ID] {
			return nil, fmt.Errorf("%w: duplicate situation id %d", common.ErrInvalidConfig, s.ID)
		}
		seenIDs[s.ID] = true
		if s.From.IsZero() {
			return nil, fmt.Errorf("%w: situation %d has no start date", common.ErrInvalidConfig, s.ID)
		}
		if s.To != nil && !s.From.Before(*s.To) {
			return nil, fmt.Errorf("%w: situation %d has from >= to", common.ErrInvalidConfig, s.ID)
		}
	}

	byJurisdiction := make(map[string][]model.Situation)
	for _, s := range situations {
		byJurisdiction[s.Jurisdiction] = append(byJurisdiction[s.Jurisdiction], s)
	}
	for jur, group := range byJurisdiction {
		sort.Slice(group, func(i, j int) bool { return group[i].From.Before(group[j].From) })
		for i := 1; i < len(group); i++ {
			prev, cur := group[i-1], group[i]
			if prev.To == nil || cur.From.Before(*prev.To) {
				return nil, fmt.Errorf("%w: situations %d and %d in %s",
					common.ErrOverlappingSituation, prev.ID, cur.ID, jur)
			}
		}
	}

	byID := make(map[string]model.IncomeSource, len(sources))
	for _, src := range sources {
		if src.ID == "" {
			return nil, fmt.Errorf("%w: income source with empty id", common.ErrInvalidConfig)
		}
		if _, exists := byID[src.ID]; exists {
			return nil, fmt.Errorf("%w: duplicate income source %q", common.ErrInvalidConfig, src.ID)
		}
		if src.ValidTo != nil && !src.ValidFrom.Before(*src.ValidTo) {
			return nil, fmt.Errorf("%w: income source %q has validFrom >= validTo", common.ErrInvalidConfig, src.ID)
		}
		byID[src.ID] = src
	}

	return &Snapshot{
		situations: situations,
		sources:    sources,
		sourceByID: byID,
	}, nil
}

// ResolveSituation returns the situation whose [from, to) interval contains
// date. A false second return means no coverage; that is a valid terminal
// state, not an error.
func (s *Snapshot) ResolveSituation(date time.Time) (model.Situation, bool) {
	for _, sit := range s.situations {
		if sit.Covers(date) {
			return sit, true
		}
	}
	return model.Situation{}, false
}

// ActiveIncomeSources returns all sources whose validity interval contains
// date, ordered by id for deterministic output.
func (s *Snapshot) ActiveIncomeSources(date time.Time) []model.IncomeSource {
	var active []model.IncomeSource
	for _, src := range s.sources {
		if src.ActiveOn(date) {
			active = append(active, src)
		}
	}
	sort.Slice(active, func(i, j int) bool { return active[i].ID < active[j].ID })
	return active
}

// Source looks up an income source by id regardless of validity.
func (s *Snapshot) Source(id string) (model.IncomeSource, bool) {
	src, ok := s.sourceByID[id]
	return src, ok
}

// ContextForDate resolves the full classification context for a date.
func (s *Snapshot) ContextForDate(date time.Time) (model.SituationContext, bool) {
	sit, ok := s.ResolveSituation(date)
	if !ok {
		return model.SituationContext{}, false
	}
	return model.SituationContext{
		Date:      date,
		Situation: sit,
		Sources:   s.ActiveIncomeSources(date),
	}, true
}
