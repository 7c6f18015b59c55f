package models

import "time"

// PurchaseIntent mirrors the intent record owned by the Django API. It is
// created before the user is redirected to the payment gateway and consumed
// once by the callback handler to decide whether to auto-purchase.
type PurchaseIntent struct {
	TrackID          string    `json:"track_id"`
	AssetType        string    `json:"asset_type"`
	AssetID          string    `json:"asset_id"`
	TokenAmount      string    `json:"token_amount"`
	TokenSymbol      string    `json:"token_symbol"`
	RialAmount       string    `json:"rial_amount"`
	Slippage         float64   `json:"slippage"`
	AuthToken        string    `json:"auth_token"`
	PaymentCompleted bool      `json:"payment_completed"`
	TokensPurchased  bool      `json:"tokens_purchased"`
	ErrorMessage     string    `json:"error_message,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// IntentUpdate is the PATCH body for update-payment-intent. Only non-nil
// fields are sent.
type IntentUpdate struct {
	PaymentCompleted *bool   `json:"payment_completed,omitempty"`
	TokensPurchased  *bool   `json:"tokens_purchased,omitempty"`
	ErrorMessage     *string `json:"error_message,omitempty"`
}

// PurchaseRequest executes a token purchase against the user's fiat wallet
// balance. TrackID makes the backend operation idempotent against duplicate
// gateway callbacks.
type PurchaseRequest struct {
	TrackID     string  `json:"track_id"`
	AssetType   string  `json:"asset_type"`
	AssetID     string  `json:"asset_id"`
	TokenAmount string  `json:"token_amount"`
	Slippage    float64 `json:"slippage"`
}

// PurchaseResult is the successful purchase-token response.
type PurchaseResult struct {
	TokenAmount string `json:"token_amount"`
	TokenSymbol string `json:"token_symbol"`
	TxHash      string `json:"tx_hash,omitempty"`
}

// InitiateRequest creates a purchase intent and returns the gateway URL the
// browser should be sent to.
type InitiateRequest struct {
	AssetType   string  `json:"asset_type" binding:"required"`
	AssetID     string  `json:"asset_id" binding:"required"`
	TokenAmount string  `json:"token_amount" binding:"required"`
	RialAmount  string  `json:"rial_amount" binding:"required"`
	Slippage    float64 `json:"slippage"`
}

type InitiateResponse struct {
	TrackID    string `json:"track_id"`
	PaymentURL string `json:"payment_url"`
}

// CallbackRedirect is the decision the callback handler resolves to. Exactly
// one redirect is produced per callback, whatever happens upstream.
type CallbackRedirect struct {
	Page   string            // "success", "failed", "error" or "home"
	Params map[string]string // query parameters appended to the target page
}

const (
	PageSuccess = "success"
	PageFailed  = "failed"
	PageError   = "error"
	PageHome    = "home"
)

const (
	AutoPurchaseTrue   = "true"
	AutoPurchaseFalse  = "false"
	AutoPurchaseFailed = "failed"
)
