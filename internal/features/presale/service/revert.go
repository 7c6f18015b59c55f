package service

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// EIP-1193 user rejection, forwarded by wallet-backed RPC providers.
	userRejectedCode = 4001

	genericFailureMessage = "Purchase failed. Please try again."
	cancelledMessage      = "Transaction cancelled by user"
	networkFailureMessage = "Network error while submitting the transaction. Please check your connection and gas settings."
)

// revertRule maps a recognized revert reason to a user-facing message.
// Rules are evaluated in order; the first match wins.
type revertRule struct {
	match   func(reason string) bool
	message string
}

func contains(substr string) func(string) bool {
	return func(reason string) bool {
		return strings.Contains(reason, substr)
	}
}

// The matched substrings come from the presale contract's require messages.
// They are not versioned; a contract upgrade changing its revert strings
// falls through to the generic message rather than breaking.
var revertRules = []revertRule{
	{contains("Presale is not active"), "This presale is not active"},
	{contains("Presale has not started"), "Presale has not started yet"},
	{contains("Presale has ended"), "Presale has ended"},
	{contains("insufficient allowance"), "Insufficient token allowance for this purchase"},
	{contains("Exceeds remaining supply"), "Purchase amount exceeds remaining presale supply"},
	{contains("Below minimum purchase"), "Amount is below the minimum purchase"},
	{contains("Exceeds maximum purchase"), "Amount is above the maximum purchase"},
	{contains("insufficient funds"), "Insufficient funds to complete the purchase"},
}

// ClassifyRevert maps a simulation failure to a user-facing message.
func ClassifyRevert(err error) string {
	if err == nil {
		return ""
	}

	reason := err.Error()
	for _, rule := range revertRules {
		if rule.match(reason) {
			return rule.message
		}
	}
	return genericFailureMessage
}

// isUserRejected reports whether the error is an EIP-1193 code 4001
// rejection rather than a contract or transport failure.
func isUserRejected(err error) bool {
	var rpcErr rpc.Error
	return errors.As(err, &rpcErr) && rpcErr.ErrorCode() == userRejectedCode
}
