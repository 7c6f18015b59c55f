package evm

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"dmt-presale-backend/internal/common/config"
)

const receiptPollInterval = 2 * time.Second

// ErrReceiptTimeout is returned when a submitted transaction is not mined
// within the configured deadline.
var ErrReceiptTimeout = errors.New("timed out waiting for transaction receipt")

// Client talks to the presale and factory contracts over JSON-RPC. Writes
// are signed with the operator key.
type Client struct {
	eth            *ethclient.Client
	chainID        *big.Int
	operatorKey    *ecdsa.PrivateKey
	operatorAddr   common.Address
	presaleAddr    common.Address
	factoryAddr    common.Address
	presaleABI     abi.ABI
	factoryABI     abi.ABI
	erc20ABI       abi.ABI
	receiptTimeout time.Duration
	logger         zerolog.Logger
}

func NewClient(cfg *config.Config, logger zerolog.Logger) (*Client, error) {
	eth, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.Chain.OperatorPrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse operator key: %w", err)
	}

	pABI, err := abi.JSON(strings.NewReader(presaleABI))
	if err != nil {
		return nil, fmt.Errorf("parse presale abi: %w", err)
	}
	fABI, err := abi.JSON(strings.NewReader(factoryABI))
	if err != nil {
		return nil, fmt.Errorf("parse factory abi: %w", err)
	}
	tABI, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}

	return &Client{
		eth:            eth,
		chainID:        big.NewInt(cfg.Chain.ChainID),
		operatorKey:    key,
		operatorAddr:   crypto.PubkeyToAddress(key.PublicKey),
		presaleAddr:    common.HexToAddress(cfg.Chain.PresaleAddress),
		factoryAddr:    common.HexToAddress(cfg.Chain.FactoryAddress),
		presaleABI:     pABI,
		factoryABI:     fABI,
		erc20ABI:       tABI,
		receiptTimeout: time.Duration(cfg.Chain.ReceiptTimeoutSec) * time.Second,
		logger:         logger,
	}, nil
}

// SimulatePurchase performs a read-only purchasePresale call from the
// buyer's address. A revert surfaces as an error carrying the reason.
func (c *Client) SimulatePurchase(ctx context.Context, from common.Address, presaleID, amount *big.Int) error {
	data, err := c.presaleABI.Pack("purchasePresale", presaleID, amount)
	if err != nil {
		return fmt.Errorf("pack purchasePresale: %w", err)
	}

	msg := ethereum.CallMsg{
		From: from,
		To:   &c.presaleAddr,
		Data: data,
	}

	if _, err := c.eth.CallContract(ctx, msg, nil); err != nil {
		return err
	}
	return nil
}

// PurchasePresale submits the purchase transaction and waits for its
// receipt.
func (c *Client) PurchasePresale(ctx context.Context, presaleID, amount *big.Int) (*types.Receipt, error) {
	data, err := c.presaleABI.Pack("purchasePresale", presaleID, amount)
	if err != nil {
		return nil, fmt.Errorf("pack purchasePresale: %w", err)
	}

	tx, err := c.submit(ctx, c.presaleAddr, data)
	if err != nil {
		return nil, err
	}

	return c.waitForReceipt(ctx, tx.Hash())
}

// CreateDMT calls the factory and returns the new presale address parsed
// from the DMTCreated event in the receipt logs.
func (c *Client) CreateDMT(ctx context.Context, paymentToken common.Address, pricePerToken *big.Int, startTime, endTime uint64) (common.Address, common.Hash, error) {
	data, err := c.factoryABI.Pack("createDMT", paymentToken, pricePerToken, startTime, endTime)
	if err != nil {
		return common.Address{}, common.Hash{}, fmt.Errorf("pack createDMT: %w", err)
	}

	tx, err := c.submit(ctx, c.factoryAddr, data)
	if err != nil {
		return common.Address{}, common.Hash{}, err
	}

	receipt, err := c.waitForReceipt(ctx, tx.Hash())
	if err != nil {
		return common.Address{}, tx.Hash(), err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return common.Address{}, tx.Hash(), fmt.Errorf("createDMT reverted: %s", tx.Hash())
	}

	addr, err := c.parseDMTCreated(receipt)
	if err != nil {
		return common.Address{}, tx.Hash(), err
	}
	return addr, tx.Hash(), nil
}

// BalanceOf reads an ERC-20 balance.
func (c *Client) BalanceOf(ctx context.Context, token, account common.Address) (*big.Int, error) {
	data, err := c.erc20ABI.Pack("balanceOf", account)
	if err != nil {
		return nil, fmt.Errorf("pack balanceOf: %w", err)
	}

	out, err := c.eth.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, err
	}

	results, err := c.erc20ABI.Unpack("balanceOf", out)
	if err != nil {
		return nil, fmt.Errorf("unpack balanceOf: %w", err)
	}
	balance, ok := results[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balanceOf result type %T", results[0])
	}
	return balance, nil
}

func (c *Client) submit(ctx context.Context, to common.Address, data []byte) (*types.Transaction, error) {
	nonce, err := c.eth.PendingNonceAt(ctx, c.operatorAddr)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}

	gasPrice, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}

	gasLimit, err := c.eth.EstimateGas(ctx, ethereum.CallMsg{
		From:     c.operatorAddr,
		To:       &to,
		GasPrice: gasPrice,
		Data:     data,
	})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	signed, err := types.SignTx(tx, types.LatestSignerForChainID(c.chainID), c.operatorKey)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}

	if err := c.eth.SendTransaction(ctx, signed); err != nil {
		return nil, err
	}

	c.logger.Info().Str("tx", signed.Hash().Hex()).Str("to", to.Hex()).Msg("Transaction submitted")
	return signed, nil
}

// waitForReceipt polls until the transaction is mined or the receipt
// deadline passes.
func (c *Client) waitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.receiptTimeout)
	defer cancel()

	ticker := time.NewTicker(receiptPollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.eth.TransactionReceipt(ctx, hash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ErrReceiptTimeout
		case <-ticker.C:
		}
	}
}

func (c *Client) parseDMTCreated(receipt *types.Receipt) (common.Address, error) {
	event := c.factoryABI.Events["DMTCreated"]

	for _, log := range receipt.Logs {
		if len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}

		values, err := event.Inputs.Unpack(log.Data)
		if err != nil {
			return common.Address{}, fmt.Errorf("unpack DMTCreated: %w", err)
		}
		addr, ok := values[0].(common.Address)
		if !ok {
			return common.Address{}, fmt.Errorf("unexpected DMTCreated payload type %T", values[0])
		}
		return addr, nil
	}

	return common.Address{}, errors.New("DMTCreated event not found in receipt")
}
