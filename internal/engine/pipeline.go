// Package engine implements the classification validation pipeline and the
// expense classification orchestration around it.
package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/steuerflow/steuerflow/internal/anomaly"
	"github.com/steuerflow/steuerflow/internal/model"
	"github.com/steuerflow/steuerflow/internal/service"
	"github.com/steuerflow/steuerflow/internal/vendor"
)

// Options configures optional pipeline stages.
type Options struct {
	AnomalyDetection bool
}

// ValidateClassification runs the fixed validation stages over an external
// category suggestion: force override, legal constraints, cross-validation,
// anomaly detection. Stages only tighten; no stage undoes a prior stage's
// correction. The result is immutable once returned.
func ValidateClassification(
	expense model.Expense,
	sugg model.Suggestion,
	sitCtx model.SituationContext,
	jur service.JurisdictionModule,
	kb *vendor.KnowledgeBase,
	stats *service.VendorStats,
	opts Options,
) model.ValidatedClassification {
	vc := model.ValidatedClassification{
		RunID:              uuid.NewString(),
		Category:           sugg.Category,
		IncomeTaxPercent:   sugg.IncomeTaxPercent,
		VATRecoverable:     sugg.VATRecoverable,
		Reason:             sugg.Reason,
		OriginalCategory:   sugg.Category,
		OriginalTaxPercent: sugg.IncomeTaxPercent,
		OriginalVAT:        sugg.VATRecoverable,
	}

	// Stage 1: force override. Authoritative vendor pins; never a review
	// trigger.
	if rule, ok := findForceOverride(expense.SenderDomain, expense.Subject, expense.Snippet); ok && rule.Category != vc.Category {
		vc.Category = rule.Category
		if rule.Category == model.CategoryNone {
			vc.IncomeTaxPercent = 0
			vc.VATRecoverable = false
		} else {
			vc.IncomeTaxPercent = jur.IncomeTaxPercent(rule.Category, sitCtx.Situation)
			vc.VATRecoverable = jur.VATRecovery(rule.Category, sitCtx.Situation)
		}
		vc.Reason = fmt.Sprintf("forced to %s: %s is always %s", rule.Category, rule.Name, rule.Category)
		vc.WasModified = true
	}

	// Stage 2: legal constraints.
	enforced := jur.EnforceConstraints(service.Candidate{
		Category:         vc.Category,
		IncomeTaxPercent: vc.IncomeTaxPercent,
		VATRecoverable:   vc.VATRecoverable,
	}, sitCtx.Situation)
	vc.Category = enforced.Candidate.Category
	vc.IncomeTaxPercent = enforced.Candidate.IncomeTaxPercent
	vc.VATRecoverable = enforced.Candidate.VATRecoverable
	vc.Violations = enforced.Violations
	if enforced.WasModified {
		vc.WasModified = true
	}

	// Stage 3: cross-validation. Never overwrites.
	vc.CrossValidation = vendor.CrossValidate(kb, vc.Category, expense.SenderDomain, expense.Subject, expense.Snippet)
	if vc.CrossValidation.Verdict == model.VerdictDisagree && vc.CrossValidation.Confidence == model.ConfidenceLow {
		vc.ReviewReasons = append(vc.ReviewReasons, fmt.Sprintf(
			"vendor knowledge base expects %s, not %s", vc.CrossValidation.VendorDBCategory, vc.Category))
	}

	// Stage 4: anomaly detection (optional). Never overwrites.
	if opts.AnomalyDetection {
		vc.Anomalies = anomaly.Detect(anomaly.Input{
			Category:       vc.Category,
			AmountCents:    expense.AmountCents,
			VendorProduct:  sugg.VendorProduct,
			SenderDomain:   expense.SenderDomain,
			Account:        expense.Account,
			VATRecoverable: vc.VATRecoverable,
		}, stats, jur, sitCtx.Situation)
		for _, flag := range vc.Anomalies {
			if flag.Severity == model.AnomalyReviewRequired {
				vc.ReviewReasons = append(vc.ReviewReasons, flag.Message)
			}
		}
	}

	vc.Confidence = deriveConfidence(&vc)
	vc.NeedsReview = len(vc.ReviewReasons) > 0 || vc.Category == model.CategoryUnclear

	return vc
}

// deriveConfidence applies the fixed confidence ladder. Every step may only
// lower or hold the tier, except the final legal-correction bonus which may
// lift low back to medium.
func deriveConfidence(vc *model.ValidatedClassification) model.ConfidenceTier {
	confidence := model.ConfidenceHigh

	switch vc.CrossValidation.Verdict {
	case model.VerdictUnknownVendor:
		confidence = confidence.Min(model.ConfidenceMedium)
	case model.VerdictDisagree:
		confidence = vc.CrossValidation.Confidence
	case model.VerdictAgree:
	}

	reviewRequired := false
	for _, flag := range vc.Anomalies {
		if flag.Severity == model.AnomalyReviewRequired {
			reviewRequired = true
			break
		}
	}
	if reviewRequired {
		confidence = model.ConfidenceLow
	} else if len(vc.Anomalies) > 0 {
		confidence = confidence.Min(model.ConfidenceMedium)
	}

	// Correcting a known legal rule increases trust in the corrected result,
	// but only from low to medium.
	if confidence == model.ConfidenceLow {
		for _, v := range vc.Violations {
			if v.Severity == model.SeverityError {
				confidence = model.ConfidenceMedium
				break
			}
		}
	}

	return confidence
}
