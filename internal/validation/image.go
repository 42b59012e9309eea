package validation

// ValidateImageUpdate validates the site image form.
func ValidateImageUpdate(form Form) (string, FieldErrors) {
	errs := FieldErrors{}
	imageURL := form.Get("imageUrl")
	checkHTTPURL(errs, "imageUrl", imageURL)
	return imageURL, errs
}
