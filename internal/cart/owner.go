package cart

import (
	"fmt"

	"github.com/google/uuid"

	pkgerrors "github.com/dcortes/shopline-backend/pkg/errors"
)

// Owner is the discriminated identity a cart is keyed by: an account id for
// signed-in shoppers or a session token for anonymous ones. Exactly one side
// must be set.
type Owner struct {
	AccountID    *uuid.UUID
	SessionToken *string
}

// AccountOwner keys a cart by account id.
func AccountOwner(id uuid.UUID) Owner {
	return Owner{AccountID: &id}
}

// SessionOwner keys a cart by anonymous session token.
func SessionOwner(token string) Owner {
	return Owner{SessionToken: &token}
}

// Validate rejects owners with neither or both identities set.
func (o Owner) Validate() error {
	hasAccount := o.AccountID != nil && *o.AccountID != uuid.Nil
	hasSession := o.SessionToken != nil && *o.SessionToken != ""
	if hasAccount == hasSession {
		return pkgerrors.New(pkgerrors.CodeValidation, "cart owner must be exactly one of account id or session token")
	}
	return nil
}

// IsAnonymous reports whether the owner is a session token.
func (o Owner) IsAnonymous() bool {
	return o.SessionToken != nil && *o.SessionToken != ""
}

// Key returns a stable string identity used for lock scoping and logging.
func (o Owner) Key() string {
	if o.AccountID != nil && *o.AccountID != uuid.Nil {
		return fmt.Sprintf("account:%s", o.AccountID)
	}
	if o.SessionToken != nil && *o.SessionToken != "" {
		return fmt.Sprintf("session:%s", *o.SessionToken)
	}
	return "unowned"
}
