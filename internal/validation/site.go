package validation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Site form limits.
const (
	MaxSiteNameLength        = 35
	MaxSiteDescriptionLength = 150
	MaxSubdirectoryLength    = 40
)

// SitePredicates are the store lookups the site schema depends on.
type SitePredicates struct {
	IsSubdirectoryUnique func(ctx context.Context, subdirectory string) (bool, error)
}

// SiteCreation is a validated site form.
type SiteCreation struct {
	Name         string
	Description  string
	Subdirectory string
}

// ValidateSiteCreation validates the site form. The returned error is reserved
// for a failing predicate; field problems come back as FieldErrors.
func ValidateSiteCreation(ctx context.Context, form Form, preds SitePredicates) (SiteCreation, FieldErrors, error) {
	errs := FieldErrors{}
	out := SiteCreation{
		Name:         plainText(form.Get("name")),
		Description:  plainText(form.Get("description")),
		Subdirectory: strings.ToLower(strings.TrimSpace(form.Get("subdirectory"))),
	}

	checkLength(errs, "name", out.Name, 1, MaxSiteNameLength)
	checkLength(errs, "description", out.Description, 1, MaxSiteDescriptionLength)

	if checkSubdirectory(errs, out.Subdirectory) {
		if preds.IsSubdirectoryUnique == nil {
			return out, errs, errors.New("subdirectory uniqueness predicate is not configured")
		}
		unique, err := preds.IsSubdirectoryUnique(ctx, out.Subdirectory)
		if err != nil {
			return out, errs, fmt.Errorf("check subdirectory uniqueness: %w", err)
		}
		if !unique {
			errs.Add("subdirectory", "Subdirectory is already taken")
		}
	}

	return out, errs, nil
}

func checkSubdirectory(errs FieldErrors, sub string) bool {
	if !checkLength(errs, "subdirectory", sub, 1, MaxSubdirectoryLength) {
		return false
	}
	if !IsSlug(sub) {
		errs.Add("subdirectory", "may only contain lowercase letters, numbers and single hyphens")
		return false
	}
	if IsReservedSubdirectory(sub) {
		errs.Add("subdirectory", "is reserved")
		return false
	}
	return true
}
