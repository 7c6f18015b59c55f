package service

import (
	"context"
	"encoding/json"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"dmt-presale-backend/internal/features/presale/models"
)

// ChainClient is the on-chain surface the presale service depends on,
// implemented by the evm platform client.
type ChainClient interface {
	SimulatePurchase(ctx context.Context, from common.Address, presaleID, amount *big.Int) error
	PurchasePresale(ctx context.Context, presaleID, amount *big.Int) (*types.Receipt, error)
	CreateDMT(ctx context.Context, paymentToken common.Address, pricePerToken *big.Int, startTime, endTime uint64) (common.Address, common.Hash, error)
	BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error)
}

// PresaleAPI is the subset of the Django client the service reads
// presale metadata through.
type PresaleAPI interface {
	ListPresales(ctx context.Context) ([]models.Presale, error)
	GetPresale(ctx context.Context, id int64) (*models.Presale, error)
	DashboardStatistics(ctx context.Context) (json.RawMessage, error)
}

// PresaleService drives presale reads and on-chain purchases.
type PresaleService interface {
	List(ctx context.Context) ([]models.Presale, error)
	Get(ctx context.Context, id int64) (*models.Presale, error)
	Statistics(ctx context.Context) (json.RawMessage, error)
	// Purchase runs the simulate-then-write flow. A failed simulation is
	// reported through the SimulationResult, not the error; the write is
	// never submitted in that case.
	Purchase(ctx context.Context, presaleID int64, input *models.PurchaseInput) (*models.PurchaseReceipt, *models.SimulationResult, error)
	Create(ctx context.Context, input *models.CreatePresaleInput) (*models.CreatePresaleResult, error)
	Balance(ctx context.Context, presaleID int64, account string) (string, error)
}
