// Package service holds the dashboard use cases. Mutating operations return
// an Outcome that the HTTP layer renders as a redirect or a form re-display.
package service

import (
	"inkwell/internal/validation"
)

// Redirect targets.
const (
	SitesLocation   = "/dashboard/sites"
	PricingLocation = "/dashboard/pricing"
)

// SiteLocation is the dashboard page of one site.
func SiteLocation(siteID string) string {
	return SitesLocation + "/" + siteID
}

// OutcomeKind discriminates Outcome.
type OutcomeKind int

const (
	// OutcomeSuccess: the write happened; follow Location.
	OutcomeSuccess OutcomeKind = iota
	// OutcomeValidationFailed: nothing was written; show Errors next to Submitted.
	OutcomeValidationFailed
	// OutcomeDenied: the caller may not do this; nothing was written; follow Location.
	OutcomeDenied
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeValidationFailed:
		return "validation_failed"
	case OutcomeDenied:
		return "denied"
	}
	return "unknown"
}

// Outcome is the result of a dashboard mutation.
type Outcome struct {
	Kind      OutcomeKind
	Location  string
	Errors    validation.FieldErrors
	Submitted validation.Form
}

func Success(location string) Outcome {
	return Outcome{Kind: OutcomeSuccess, Location: location}
}

func ValidationFailed(errs validation.FieldErrors, submitted validation.Form) Outcome {
	return Outcome{Kind: OutcomeValidationFailed, Errors: errs, Submitted: submitted}
}

func Denied(location string) Outcome {
	return Outcome{Kind: OutcomeDenied, Location: location}
}
