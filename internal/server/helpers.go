package server

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"chronicle/internal/models"
	"chronicle/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// statusForCode maps AppError codes to HTTP statuses.
var statusForCode = map[string]int{
	models.CodeInvalidInput:       fiber.StatusBadRequest,
	models.CodeNotFound:           fiber.StatusNotFound,
	models.CodeConflict:           fiber.StatusConflict,
	models.CodeInvalidTransition:  fiber.StatusUnprocessableEntity,
	models.CodeStorageUnavailable: fiber.StatusInternalServerError,
	models.CodeUnauthorized:       fiber.StatusUnauthorized,
}

// respondWithError writes err as a JSON ErrorResponse. Server-side failures
// are logged and reported without their cause.
func respondWithError(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		appErr = &models.AppError{Message: "Internal server error", Err: err}
	}

	status, ok := statusForCode[appErr.Code]
	if !ok {
		status = fiber.StatusInternalServerError
	}
	if status >= fiber.StatusInternalServerError {
		observability.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}

	return c.Status(status).JSON(models.ErrorResponse{
		Error: appErr.Message,
		Code:  appErr.Code,
		Field: appErr.Field,
	})
}

// Pagination holds parsed page/limit query parameters. Bounds are applied by
// the service.
type Pagination struct {
	Page  int
	Limit int
}

func parsePagination(c *fiber.Ctx) Pagination {
	return Pagination{
		Page:  c.QueryInt("page", 0),
		Limit: c.QueryInt("limit", 0),
	}
}

// parseUUIDParam extracts a uuid route parameter.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseUUIDParam(c *fiber.Ctx, param string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params(param))
	if err != nil {
		_ = respondWithError(c, models.NewInvalidInputError(param, "Invalid "+param))
		return uuid.Nil, errResponseWritten
	}
	return id, nil
}

// parseOptionalBool reads a tri-state boolean query parameter.
func parseOptionalBool(c *fiber.Ctx, key string) (*bool, error) {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		_ = respondWithError(c, models.NewInvalidInputError(key, "Invalid boolean for "+key))
		return nil, errResponseWritten
	}
	return &v, nil
}

// parseCategories accepts ?category=a&category=b as well as ?category=a,b.
func parseCategories(c *fiber.Ctx) []string {
	var out []string
	for _, raw := range c.Context().QueryArgs().PeekMulti("category") {
		for _, part := range strings.Split(string(raw), ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
