package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dcortes/shopline-backend/api/responses"
	"github.com/dcortes/shopline-backend/internal/cart"
	pkgerrors "github.com/dcortes/shopline-backend/pkg/errors"
	"github.com/dcortes/shopline-backend/pkg/logger"
)

const (
	accountIDHeader    = "X-Account-Id"
	sessionTokenHeader = "X-Session-Token"
)

type ownerCtxKey struct{}

// Owner resolves the cart owner from the identity headers set by the edge
// gateway. A request must carry exactly one of the two headers.
func Owner(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			owner, err := ownerFromHeaders(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithOwner(r.Context(), owner)
			if logg != nil {
				ctx = logg.WithOwner(ctx, owner.Key())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithOwner returns a context carrying the given owner.
func WithOwner(ctx context.Context, owner cart.Owner) context.Context {
	return context.WithValue(ctx, ownerCtxKey{}, owner)
}

// OwnerFromContext returns the owner resolved by the Owner middleware.
func OwnerFromContext(ctx context.Context) (cart.Owner, bool) {
	owner, ok := ctx.Value(ownerCtxKey{}).(cart.Owner)
	return owner, ok
}

func ownerFromHeaders(r *http.Request) (cart.Owner, error) {
	accountValue := strings.TrimSpace(r.Header.Get(accountIDHeader))
	token := strings.TrimSpace(r.Header.Get(sessionTokenHeader))

	switch {
	case accountValue != "" && token != "":
		return cart.Owner{}, pkgerrors.New(pkgerrors.CodeValidation, "request carries both account and session identity")
	case accountValue != "":
		accountID, err := uuid.Parse(accountValue)
		if err != nil {
			return cart.Owner{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account id")
		}
		return cart.AccountOwner(accountID), nil
	case token != "":
		return cart.SessionOwner(token), nil
	default:
		return cart.Owner{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing cart owner identity")
	}
}
