package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBaseUnits(t *testing.T) {
	tests := []struct {
		name     string
		amount   string
		decimals uint8
		want     string
		wantErr  bool
	}{
		{name: "whole amount", amount: "1000", decimals: 6, want: "1000000000"},
		{name: "fractional amount", amount: "12.5", decimals: 6, want: "12500000"},
		{name: "full precision", amount: "0.000001", decimals: 6, want: "1"},
		{name: "eighteen decimals", amount: "1", decimals: 18, want: "1000000000000000000"},
		{name: "zero decimals", amount: "7", decimals: 0, want: "7"},
		{name: "leading dot", amount: ".5", decimals: 2, want: "50"},
		{name: "whitespace trimmed", amount: " 3 ", decimals: 2, want: "300"},
		{name: "too many fractional digits", amount: "1.1234567", decimals: 6, wantErr: true},
		{name: "zero", amount: "0", decimals: 6, wantErr: true},
		{name: "negative", amount: "-5", decimals: 6, wantErr: true},
		{name: "empty", amount: "", decimals: 6, wantErr: true},
		{name: "not a number", amount: "ten", decimals: 6, wantErr: true},
		{name: "bare dot", amount: ".", decimals: 6, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToBaseUnits(tt.amount, tt.decimals)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidAmount)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestClassifyRevert(t *testing.T) {
	tests := []struct {
		reason string
		want   string
	}{
		{"execution reverted: Exceeds remaining supply", "Purchase amount exceeds remaining presale supply"},
		{"execution reverted: Presale is not active", "This presale is not active"},
		{"execution reverted: Presale has not started", "Presale has not started yet"},
		{"execution reverted: Presale has ended", "Presale has ended"},
		{"execution reverted: ERC20: insufficient allowance", "Insufficient token allowance for this purchase"},
		{"execution reverted: Below minimum purchase", "Amount is below the minimum purchase"},
		{"execution reverted: Exceeds maximum purchase", "Amount is above the maximum purchase"},
		{"insufficient funds for gas * price + value", "Insufficient funds to complete the purchase"},
		{"execution reverted: 0x4e487b71", genericFailureMessage},
		{"something entirely unexpected", genericFailureMessage},
	}

	for _, tt := range tests {
		t.Run(tt.reason, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRevert(errors.New(tt.reason)))
		})
	}
}

func TestClassifyRevertNilError(t *testing.T) {
	assert.Empty(t, ClassifyRevert(nil))
}

type rpcError struct{ code int }

func (e *rpcError) Error() string  { return "user rejected" }
func (e *rpcError) ErrorCode() int { return e.code }

func TestIsUserRejected(t *testing.T) {
	assert.True(t, isUserRejected(&rpcError{code: 4001}))
	assert.False(t, isUserRejected(&rpcError{code: -32000}))
	assert.False(t, isUserRejected(errors.New("plain error")))
}
