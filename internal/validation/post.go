package validation

import (
	"errors"

	"inkwell/internal/models"

	"gorm.io/datatypes"
)

// Post form limits.
const (
	MaxTitleLength            = 100
	MaxSmallDescriptionLength = 190
)

// PostContent is a validated article form.
type PostContent struct {
	Title            string
	SmallDescription string
	Slug             string
	ArticleContent   datatypes.JSON
	CoverImage       string
}

// ValidatePost validates the article form shared by create and edit.
func ValidatePost(form Form) (PostContent, FieldErrors) {
	errs := FieldErrors{}
	out := PostContent{
		Title:            plainText(form.Get("title")),
		SmallDescription: plainText(form.Get("smallDescription")),
		Slug:             form.Get("slug"),
		CoverImage:       form.Get("coverImage"),
	}

	checkLength(errs, "title", out.Title, 1, MaxTitleLength)
	checkLength(errs, "smallDescription", out.SmallDescription, 1, MaxSmallDescriptionLength)
	if checkLength(errs, "slug", out.Slug, 1, MaxSlugLength) && !IsSlug(out.Slug) {
		errs.Add("slug", "may only contain lowercase letters, numbers and single hyphens")
	}
	checkHTTPURL(errs, "coverImage", out.CoverImage)

	if raw := form.Get("articleContent"); raw == "" {
		errs.Add("articleContent", "is required")
	} else if content, err := models.CompactDocument([]byte(raw)); err != nil {
		if errors.Is(err, models.ErrEmptyDocument) {
			errs.Add("articleContent", "is required")
		} else {
			errs.Add("articleContent", "is not a valid document")
		}
	} else {
		out.ArticleContent = content
	}

	return out, errs
}
