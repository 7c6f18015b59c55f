package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync/atomic"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/features/presale/models"
)

var (
	ErrPurchaseInProgress = errors.New("a purchase is already in progress")
	ErrInvalidAddress     = errors.New("invalid address")
	ErrTransactionFailed  = errors.New("transaction failed")
)

type presaleService struct {
	api   PresaleAPI
	chain ChainClient
	// The operator key signs every write, so purchases are serialized to
	// keep nonce management trivial.
	purchasing atomic.Bool
	logger     zerolog.Logger
}

func NewPresaleService(api PresaleAPI, chain ChainClient, logger zerolog.Logger) PresaleService {
	return &presaleService{
		api:    api,
		chain:  chain,
		logger: logger,
	}
}

func (s *presaleService) List(ctx context.Context) ([]models.Presale, error) {
	return s.api.ListPresales(ctx)
}

func (s *presaleService) Get(ctx context.Context, id int64) (*models.Presale, error) {
	return s.api.GetPresale(ctx, id)
}

func (s *presaleService) Statistics(ctx context.Context) (json.RawMessage, error) {
	return s.api.DashboardStatistics(ctx)
}

// Purchase converts the entered amount to base units, simulates the call
// from the buyer's address and only then submits the write. There is no
// automatic retry: a failed write surfaces to the caller.
func (s *presaleService) Purchase(ctx context.Context, presaleID int64, input *models.PurchaseInput) (*models.PurchaseReceipt, *models.SimulationResult, error) {
	presale, err := s.api.GetPresale(ctx, presaleID)
	if err != nil {
		return nil, nil, fmt.Errorf("fetch presale %d: %w", presaleID, err)
	}

	amount, err := ToBaseUnits(input.Amount, presale.PaymentTokenDecimals)
	if err != nil {
		return nil, nil, err
	}

	if !common.IsHexAddress(input.Buyer) {
		return nil, nil, fmt.Errorf("%w: %q", ErrInvalidAddress, input.Buyer)
	}
	buyer := common.HexToAddress(input.Buyer)

	if !s.purchasing.CompareAndSwap(false, true) {
		return nil, nil, ErrPurchaseInProgress
	}
	defer s.purchasing.Store(false)

	id := big.NewInt(presaleID)
	if err := s.chain.SimulatePurchase(ctx, buyer, id, amount); err != nil {
		if isUserRejected(err) {
			return nil, &models.SimulationResult{Success: false, UserMessage: cancelledMessage}, nil
		}
		s.logger.Warn().Err(err).Int64("presale_id", presaleID).Msg("Purchase simulation reverted")
		return nil, &models.SimulationResult{Success: false, UserMessage: ClassifyRevert(err)}, nil
	}

	receipt, err := s.chain.PurchasePresale(ctx, id, amount)
	if err != nil {
		if isUserRejected(err) {
			return nil, &models.SimulationResult{Success: false, UserMessage: cancelledMessage}, nil
		}
		s.logger.Error().Err(err).Int64("presale_id", presaleID).Msg("Purchase transaction failed")
		return nil, &models.SimulationResult{Success: false, UserMessage: networkFailureMessage}, nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		s.logger.Error().Str("tx", receipt.TxHash.Hex()).Msg("Purchase transaction reverted on-chain")
		return nil, &models.SimulationResult{Success: false, UserMessage: genericFailureMessage}, nil
	}

	s.logger.Info().
		Str("tx", receipt.TxHash.Hex()).
		Int64("presale_id", presaleID).
		Str("amount", amount.String()).
		Msg("Presale purchase confirmed")

	return &models.PurchaseReceipt{
		TxHash:          receipt.TxHash.Hex(),
		BlockNumber:     receipt.BlockNumber.Uint64(),
		AmountBaseUnits: amount.String(),
	}, &models.SimulationResult{Success: true}, nil
}

// Create deploys a presale through the factory. PricePerToken is given in
// the payment token's base units.
func (s *presaleService) Create(ctx context.Context, input *models.CreatePresaleInput) (*models.CreatePresaleResult, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if !common.IsHexAddress(input.PaymentToken) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAddress, input.PaymentToken)
	}

	price, ok := new(big.Int).SetString(input.PricePerToken, 10)
	if !ok || price.Sign() <= 0 {
		return nil, models.ErrZeroPrice
	}

	addr, txHash, err := s.chain.CreateDMT(
		ctx,
		common.HexToAddress(input.PaymentToken),
		price,
		uint64(input.StartTime.Unix()),
		uint64(input.EndTime.Unix()),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransactionFailed, err)
	}

	s.logger.Info().
		Str("presale_address", addr.Hex()).
		Str("tx", txHash.Hex()).
		Msg("Presale contract created")

	return &models.CreatePresaleResult{
		PresaleAddress: addr.Hex(),
		TxHash:         txHash.Hex(),
	}, nil
}

// Balance reads the account's payment-token balance for a presale.
func (s *presaleService) Balance(ctx context.Context, presaleID int64, account string) (string, error) {
	if !common.IsHexAddress(account) {
		return "", fmt.Errorf("%w: %q", ErrInvalidAddress, account)
	}

	presale, err := s.api.GetPresale(ctx, presaleID)
	if err != nil {
		return "", fmt.Errorf("fetch presale %d: %w", presaleID, err)
	}
	if !common.IsHexAddress(presale.PaymentToken) {
		return "", fmt.Errorf("%w: presale payment token %q", ErrInvalidAddress, presale.PaymentToken)
	}

	balance, err := s.chain.BalanceOf(ctx, common.HexToAddress(presale.PaymentToken), common.HexToAddress(account))
	if err != nil {
		return "", err
	}
	return balance.String(), nil
}
