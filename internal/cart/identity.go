package cart

import (
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// Identity names the owner of a cart. It is resolved once from the request
// (bearer token or X-Session-ID) and passed explicitly everywhere after that.
type Identity struct {
	CustomerID *uuid.UUID
	SessionID  string
}

func (i Identity) IsGuest() bool {
	return i.CustomerID == nil
}

func (i Identity) Validate() error {
	if i.CustomerID != nil && *i.CustomerID != uuid.Nil {
		return nil
	}
	if strings.TrimSpace(i.SessionID) != "" {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "customer token or session id required")
}

// Key is a stable string form used for rate limit and idempotency scopes.
func (i Identity) Key() string {
	if i.CustomerID != nil {
		return "customer:" + i.CustomerID.String()
	}
	return "session:" + strings.TrimSpace(i.SessionID)
}

func (i Identity) sessionPtr() *string {
	if i.CustomerID != nil {
		return nil
	}
	sid := strings.TrimSpace(i.SessionID)
	return &sid
}
