package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/NethermindEth/basesociety/core"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// EthConfig holds the connection settings for EthClient.
type EthConfig struct {
	RPCURL             string
	AgentNFTAddress    string
	DecayOracleAddress string
	PrivateKey         string
	// ChainID is fetched from the node when nil.
	ChainID *big.Int
}

// EthClient reads profiles from AgentNFT and sends signed transactions to
// DecayOracle.
type EthClient struct {
	rpc         *ethclient.Client
	agentNFT    *bind.BoundContract
	decayOracle *bind.BoundContract
	key         *ecdsa.PrivateKey
	chainID     *big.Int
	from        common.Address
	logger      zerolog.Logger

	// one transaction in flight at a time keeps nonces ordered
	txMu sync.Mutex
}

var _ Client = (*EthClient)(nil)

// Dial connects to the RPC endpoint and binds both contracts.
func Dial(ctx context.Context, config EthConfig, logger zerolog.Logger) (*EthClient, error) {
	if !common.IsHexAddress(config.AgentNFTAddress) {
		return nil, fmt.Errorf("invalid AgentNFT address %q", config.AgentNFTAddress)
	}
	if !common.IsHexAddress(config.DecayOracleAddress) {
		return nil, fmt.Errorf("invalid DecayOracle address %q", config.DecayOracleAddress)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(config.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid oracle private key: %w", err)
	}

	nftABI, err := abi.JSON(strings.NewReader(agentNFTABI))
	if err != nil {
		return nil, fmt.Errorf("parse AgentNFT ABI: %w", err)
	}
	oracleABI, err := abi.JSON(strings.NewReader(decayOracleABI))
	if err != nil {
		return nil, fmt.Errorf("parse DecayOracle ABI: %w", err)
	}

	rpc, err := ethclient.DialContext(ctx, config.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", core.ErrChain, config.RPCURL, err)
	}

	chainID := config.ChainID
	if chainID == nil {
		chainID, err = rpc.ChainID(ctx)
		if err != nil {
			rpc.Close()
			return nil, fmt.Errorf("%w: fetch chain id: %v", core.ErrChain, err)
		}
	}

	nftAddr := common.HexToAddress(config.AgentNFTAddress)
	oracleAddr := common.HexToAddress(config.DecayOracleAddress)
	c := &EthClient{
		rpc:         rpc,
		agentNFT:    bind.NewBoundContract(nftAddr, nftABI, rpc, rpc, rpc),
		decayOracle: bind.NewBoundContract(oracleAddr, oracleABI, rpc, rpc, rpc),
		key:         key,
		chainID:     chainID,
		from:        crypto.PubkeyToAddress(key.PublicKey),
		logger:      logger.With().Str("component", "chain").Logger(),
	}

	c.logger.Info().
		Str("rpc", config.RPCURL).
		Str("agent_nft", nftAddr.Hex()).
		Str("decay_oracle", oracleAddr.Hex()).
		Str("signer", c.from.Hex()).
		Str("chain_id", chainID.String()).
		Msg("Connected to chain")
	return c, nil
}

// Close releases the RPC connection.
func (c *EthClient) Close() {
	c.rpc.Close()
}

// Signer returns the address transactions are sent from.
func (c *EthClient) Signer() common.Address {
	return c.from
}

func (c *EthClient) IsRegistered(ctx context.Context, tokenID *big.Int) (bool, error) {
	var out []interface{}
	if err := c.decayOracle.Call(&bind.CallOpts{Context: ctx}, &out, "isRegistered", tokenID); err != nil {
		return false, fmt.Errorf("%w: isRegistered(%s): %v", core.ErrChain, tokenID, err)
	}
	registered := *abi.ConvertType(out[0], new(bool)).(*bool)
	return registered, nil
}

func (c *EthClient) GetProfile(ctx context.Context, tokenID *big.Int) (AgentProfile, error) {
	var out []interface{}
	if err := c.agentNFT.Call(&bind.CallOpts{Context: ctx}, &out, "getAgentProfile", tokenID); err != nil {
		return AgentProfile{}, fmt.Errorf("%w: getAgentProfile(%s): %v", core.ErrChain, tokenID, err)
	}
	profile := *abi.ConvertType(out[0], new(AgentProfile)).(*AgentProfile)
	return profile, nil
}

func (c *EthClient) Register(ctx context.Context, tokenID *big.Int) (Receipt, error) {
	return c.transact(ctx, "registerAgent", tokenID)
}

func (c *EthClient) UpdateHappiness(ctx context.Context, tokenID *big.Int, score uint8) (Receipt, error) {
	return c.transact(ctx, "updateAgentHappiness", tokenID, score)
}

func (c *EthClient) transact(ctx context.Context, method string, params ...interface{}) (Receipt, error) {
	c.txMu.Lock()
	defer c.txMu.Unlock()

	opts, err := bind.NewKeyedTransactorWithChainID(c.key, c.chainID)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: build transactor: %v", core.ErrChain, err)
	}
	opts.Context = ctx

	tx, err := c.decayOracle.Transact(opts, method, params...)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: send %s: %v", core.ErrChain, method, err)
	}
	c.logger.Debug().Str("method", method).Str("tx", tx.Hash().Hex()).Msg("Transaction sent")

	receipt, err := bind.WaitMined(ctx, c.rpc, tx)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: wait for %s: %v", core.ErrChain, tx.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return Receipt{}, fmt.Errorf("%w: %s reverted in tx %s", core.ErrChain, method, tx.Hash().Hex())
	}

	return Receipt{
		TxHash:      receipt.TxHash,
		BlockNumber: receipt.BlockNumber.Uint64(),
		GasUsed:     receipt.GasUsed,
	}, nil
}
