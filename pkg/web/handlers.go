package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/norbye/interesse/pkg/hubdb"
	"github.com/norbye/interesse/pkg/interest"
)

// InterestService runs one interest-toggle transition.
type InterestService interface {
	Execute(ctx context.Context, intent interest.Intent) (*interest.Result, error)
}

// APIHandlers holds the webhook and admin endpoint handlers.
type APIHandlers struct {
	interestService InterestService
	records         *hubdb.Store
	validator       *validator.Validate
	logger          *slog.Logger
}

// NewAPIHandlers creates the handler set.
func NewAPIHandlers(
	interestService InterestService,
	records *hubdb.Store,
	validate *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	if logger == nil {
		logger = slog.Default()
	}

	return &APIHandlers{
		interestService: interestService,
		records:         records,
		validator:       validate,
		logger:          logger.With("module", "web"),
	}
}

// InterestWebhook handles one interest-toggle request. Validation failures
// return 400 before any remote call is made; only row-path failures reach
// the caller as errors.
func (h *APIHandlers) InterestWebhook(c fiber.Ctx) error {
	body := c.Body()

	err := validateIntentDocument(body)
	if err != nil {
		return badRequestEnvelope(c, err.Error())
	}

	var intent interest.Intent

	err = json.Unmarshal(body, &intent)
	if err != nil {
		return badRequestEnvelope(c, "Invalid JSON format")
	}

	err = h.validator.Struct(intent)
	if err != nil {
		return badRequestEnvelope(c, "Missing required fields: deal_id, user_email, flag")
	}

	h.logger.InfoContext(c.Context(), "Received interest webhook",
		"deal_id", string(intent.DealID),
		"action", intent.ActionTaken,
	)

	result, err := h.interestService.Execute(c.Context(), intent)
	if err != nil {
		return handleWorkflowError(c, err)
	}

	return c.JSON(WebhookResponse{
		Success: true,
		Data:    result,
	})
}

// GetRecords lists every row of the interest table.
func (h *APIHandlers) GetRecords(c fiber.Ctx) error {
	rows, err := h.records.FetchAllRows(c.Context())
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(fiber.Map{
		"table_id": h.records.TableID(),
		"total":    len(rows),
		"rows":     rows,
	})
}

// GetRecord returns one row by id.
func (h *APIHandlers) GetRecord(c fiber.Ctx) error {
	rowID := c.Params("rowId")
	if rowID == "" {
		return badRequest(c, "Row ID is required")
	}

	row, err := h.records.FetchRow(c.Context(), rowID)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.JSON(row)
}

// DeleteRecord removes one row by id.
func (h *APIHandlers) DeleteRecord(c fiber.Ctx) error {
	rowID := c.Params("rowId")
	if rowID == "" {
		return badRequest(c, "Row ID is required")
	}

	err := h.records.DeleteRow(c.Context(), rowID)
	if err != nil {
		return handleStoreError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// HealthCheck reports whether the interest table is reachable.
func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	status := "healthy"
	message := "interesse API is healthy"
	httpStatus := http.StatusOK

	tableCheck := "Interest table is reachable"

	_, err := h.records.FetchSchema(c.Context())
	if err != nil {
		status = "unhealthy"
		message = "interesse API is unhealthy"
		httpStatus = http.StatusInternalServerError
		tableCheck = "Interest table is unreachable: " + err.Error()
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"hubdb": tableCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
