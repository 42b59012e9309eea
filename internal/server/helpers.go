package server

import (
	"context"
	"errors"
	"strings"

	"inkwell/internal/models"
	"inkwell/internal/service"
	"inkwell/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// validationResponse is the 422 body for a rejected form.
type validationResponse struct {
	Status       string                 `json:"status"`
	Error        validation.FieldErrors `json:"error"`
	InitialValue validation.Form        `json:"initialValue"`
}

// readForm collects the submitted fields of a url-encoded or multipart form.
// Repeated keys keep their first value.
func readForm(c *fiber.Ctx) (validation.Form, error) {
	form := validation.Form{}
	if strings.HasPrefix(string(c.Request().Header.ContentType()), fiber.MIMEMultipartForm) {
		mf, err := c.MultipartForm()
		if err != nil {
			return nil, models.NewValidationError("Invalid multipart form")
		}
		for key, values := range mf.Value {
			if len(values) > 0 {
				form[key] = values[0]
			}
		}
		return form, nil
	}

	c.Request().PostArgs().VisitAll(func(key, value []byte) {
		k := string(key)
		if _, seen := form[k]; !seen {
			form[k] = string(value)
		}
	})
	return form, nil
}

// respondOutcome renders a mutation result: field errors as 422, everything
// else as a 303 redirect to the follow-up location.
func respondOutcome(c *fiber.Ctx, out service.Outcome) error {
	if out.Kind == service.OutcomeValidationFailed {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(validationResponse{
			Status:       "error",
			Error:        out.Errors,
			InitialValue: out.Submitted,
		})
	}
	return c.Redirect(out.Location, fiber.StatusSeeOther)
}

// mutation is the signature shared by every form-backed service operation.
type mutation func(ctx context.Context, userID string, form validation.Form) (service.Outcome, error)

// handleForm reads the form and runs a service mutation for the current user.
func handleForm(c *fiber.Ctx, run mutation) error {
	form, err := readForm(c)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	out, err := run(c.UserContext(), currentUserID(c), form)
	if err != nil {
		return err
	}
	return respondOutcome(c, out)
}

// parseUUID extracts a route parameter as a UUID.
// On failure it writes a 404 JSON response and returns errResponseWritten;
// an id that cannot exist is reported like one the caller does not own.
func parseUUID(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		_ = models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError(param, c.Params(param)))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}
