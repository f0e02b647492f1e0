package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.FieldErrors("query parameter must be numeric", map[string]string{key: "must be numeric"})
	}
	if value < min || value > max {
		return 0, pkgerrors.FieldErrors("query parameter out of range", map[string]string{
			key: "must be between " + strconv.Itoa(min) + " and " + strconv.Itoa(max),
		})
	}
	return value, nil
}

// ParseQueryUUID returns nil when the parameter is absent.
func ParseQueryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, pkgerrors.FieldErrors("invalid query parameter", map[string]string{key: "must be a valid id"})
	}
	return &id, nil
}

// ParseURLUUID reads a chi path parameter.
func ParseURLUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(chi.URLParam(r, key)))
	if err != nil {
		return uuid.Nil, pkgerrors.FieldErrors("invalid path parameter", map[string]string{key: "must be a valid id"})
	}
	return id, nil
}
