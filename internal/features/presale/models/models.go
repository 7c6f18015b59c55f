package models

import (
	"errors"
	"time"
)

// Presale is the read model for a token presale. Authoritative state lives
// on-chain and in the Django API; this service only reads it.
type Presale struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Symbol               string    `json:"symbol"`
	ContractAddress      string    `json:"contract_address"`
	PaymentToken         string    `json:"payment_token"`
	PaymentTokenSymbol   string    `json:"payment_token_symbol"`
	PaymentTokenDecimals uint8     `json:"payment_token_decimals"`
	PricePerToken        string    `json:"price_per_token"`
	TotalSupply          string    `json:"total_supply"`
	Sold                 string    `json:"sold"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Active               bool      `json:"active"`
}

// PurchaseInput is the request body for an on-chain purchase.
type PurchaseInput struct {
	// Amount is the human-entered payment amount, e.g. "1000" or "12.5".
	Amount string `json:"amount" binding:"required"`
	// Buyer is the wallet address the purchase is simulated from.
	Buyer string `json:"buyer" binding:"required"`
}

// SimulationResult is the outcome of the read-only contract call performed
// before submitting the write.
type SimulationResult struct {
	Success     bool   `json:"success"`
	UserMessage string `json:"user_message,omitempty"`
}

// PurchaseReceipt reports a confirmed on-chain purchase.
type PurchaseReceipt struct {
	TxHash          string `json:"tx_hash"`
	BlockNumber     uint64 `json:"block_number"`
	AmountBaseUnits string `json:"amount_base_units"`
}

// CreatePresaleInput drives the factory createDMT call.
type CreatePresaleInput struct {
	PaymentToken  string    `json:"payment_token" binding:"required"`
	PricePerToken string    `json:"price_per_token" binding:"required"`
	StartTime     time.Time `json:"start_time" binding:"required"`
	EndTime       time.Time `json:"end_time" binding:"required"`
}

var (
	ErrEndBeforeStart = errors.New("end time must be after start time")
	ErrZeroPrice      = errors.New("price per token must be greater than zero")
)

// Validate checks the client-enforceable invariants. Supply and price
// correctness are the contract's responsibility.
func (in *CreatePresaleInput) Validate() error {
	if !in.EndTime.After(in.StartTime) {
		return ErrEndBeforeStart
	}
	if in.PricePerToken == "" || in.PricePerToken == "0" {
		return ErrZeroPrice
	}
	return nil
}

// CreatePresaleResult carries the presale address recovered from the
// DMTCreated event.
type CreatePresaleResult struct {
	PresaleAddress string `json:"presale_address"`
	TxHash         string `json:"tx_hash"`
}
