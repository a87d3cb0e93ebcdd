package web

import (
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
	"github.com/norbye/interesse/pkg/hubspot"
	"github.com/norbye/interesse/pkg/interest"
)

// Webhook error responses use the envelope the site's form integration
// expects; the admin endpoints use RFC 7807 problem documents.

func badRequestEnvelope(c fiber.Ctx, detail string) error {
	return c.Status(fiber.StatusBadRequest).JSON(WebhookResponse{
		Success: false,
		Error:   detail,
	})
}

// handleWorkflowError maps a workflow failure onto the response contract:
// validation errors are 400s, upstream failures reuse the upstream status
// when one is available, anything else is a 500.
func handleWorkflowError(c fiber.Ctx, err error) error {
	if interest.IsValidationError(err) {
		return badRequestEnvelope(c, err.Error())
	}

	status := fiber.StatusInternalServerError

	if reqErr, ok := hubspot.AsRequestError(err); ok && reqErr.Status > 0 {
		status = reqErr.Status
	}

	return c.Status(status).JSON(WebhookResponse{
		Success: false,
		Error:   "Failed to finish the request successfully",
		Message: err.Error(),
	})
}

func badRequest(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusBadRequest).
		WithInstance(c.Path()).
		WithType("validation_error").
		WithDetail(detail)

	return c.Status(fiber.StatusBadRequest).JSON(problem)
}

func notFound(c fiber.Ctx, detail string) error {
	problem := problems.NewStatusProblem(fiber.StatusNotFound).
		WithInstance(c.Path()).
		WithType("not_found").
		WithDetail(detail)

	return c.Status(fiber.StatusNotFound).JSON(problem)
}

func internalError(c fiber.Ctx, err error) error {
	problem := problems.NewStatusProblem(fiber.StatusInternalServerError).
		WithInstance(c.Path()).
		WithType("internal_error").
		WithError(err)

	return c.Status(fiber.StatusInternalServerError).JSON(problem)
}

// handleStoreError maps HubDB failures for the admin endpoints.
func handleStoreError(c fiber.Ctx, err error) error {
	reqErr, ok := hubspot.AsRequestError(err)
	if !ok {
		return internalError(c, err)
	}

	if reqErr.Status == fiber.StatusNotFound {
		return notFound(c, "record not found")
	}

	problem := problems.NewStatusProblem(fiber.StatusBadGateway).
		WithInstance(c.Path()).
		WithType("upstream_error").
		WithDetail(reqErr.Error())

	return c.Status(fiber.StatusBadGateway).JSON(problem)
}
