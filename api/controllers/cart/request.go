package cart

import "github.com/google/uuid"

type UpsertItemRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"required,min=1"`
}

type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// MergeRequest is sent by the auth service when a shopper logs in.
type MergeRequest struct {
	AccountID    uuid.UUID `json:"account_id" validate:"required"`
	SessionToken string    `json:"session_token" validate:"required"`
}
