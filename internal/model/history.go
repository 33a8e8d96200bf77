package model

import "time"

// ClassificationTrigger records why a classification run happened.
type ClassificationTrigger string

// Classification trigger constants.
const (
	TriggerInitial         ClassificationTrigger = "initial"
	TriggerSituationChange ClassificationTrigger = "situation_change"
	TriggerManual          ClassificationTrigger = "manual"
	TriggerFromStage       ClassificationTrigger = "from_stage"
	TriggerForce           ClassificationTrigger = "force"
)

// HistoryEntry is one row of the append-only classification history log.
// Entries are never updated or deleted.
type HistoryEntry struct {
	ClassifiedAt     time.Time
	EmailID          string
	Account          string
	SituationHash    string
	Category         string
	SourceID         string
	Trigger          ClassificationTrigger
	RunID            string
	ID               int64
	SituationID      int
	IncomeTaxPercent int
	VATRecoverable   bool
}
