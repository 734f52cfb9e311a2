package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"

	"agora/internal/middleware"
	"agora/internal/models"
	"agora/internal/service"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten reports that a helper already committed the response.
// Handlers return nil when they see it.
var errResponseWritten = errors.New("response already written")

// respondError writes err with the status its code maps to. Internal causes
// are logged, never sent.
func respondError(c *fiber.Ctx, err error) error {
	status := models.StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		middleware.Logger.ErrorContext(c.UserContext(), "request error",
			slog.String("path", c.Path()),
			slog.String("error", err.Error()),
		)
	}
	return models.RespondWithError(c, status, err)
}

// parseID extracts a positive integer route parameter. On failure it writes
// a 404, since no entity can have that id.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Resource", c.Params(param)))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseQueryID reads an optional positive integer query parameter.
func parseQueryID(c *fiber.Ctx, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	id := c.QueryInt(key, -1)
	if id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest, models.NewFieldValidationError(
			map[string][]string{key: {"A valid integer is required."}}))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

func parsePagination(c *fiber.Ctx) service.ListParams {
	return service.NewListParams(c.QueryInt("limit", 0), c.QueryInt("offset", 0))
}

// bindJSON decodes the request body into dst, writing a 400 on failure.
// A value of the wrong JSON type is reported against its field; a body that
// does not parse at all gets a generic message.
func bindJSON(c *fiber.Ctx, dst any) error {
	err := c.BodyParser(dst)
	if err == nil {
		return nil
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "non_field_errors"
		}
		msg := fmt.Sprintf("Incorrect type. Expected %s, received %s.", jsonTypeName(typeErr.Type), typeErr.Value)
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewFieldValidationError(map[string][]string{field: {msg}}))
		return errResponseWritten
	}

	_ = models.RespondWithError(c, fiber.StatusBadRequest,
		models.NewValidationError("Invalid request body"))
	return errResponseWritten
}

// jsonTypeName names the JSON type a Go destination expects.
func jsonTypeName(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Slice, reflect.Array:
		return "list"
	case reflect.Map, reflect.Struct:
		return "object"
	}
	return "value"
}

// isPartial reports whether the request is a PATCH, which validates only
// the fields present.
func isPartial(c *fiber.Ctx) bool {
	return c.Method() == fiber.MethodPatch
}

func currentUserID(c *fiber.Ctx) uint {
	uid, _ := c.Locals(middleware.LocalUserID).(uint)
	return uid
}
