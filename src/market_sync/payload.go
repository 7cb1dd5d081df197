package market_sync

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Consumed ledger feed. Implemented by ethclient.Client,
// faked in tests.
type ChainSource interface {
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// One decoded contract event plus its feed metadata
type Event struct {
	Name        string
	BlockNumber uint64
	TxHash      string
	LogIndex    uint
	Payload     interface{}
}

type ListingCreated struct {
	ListingId   *big.Int
	Owner       common.Address
	Category    string
	Price       *big.Int
	Deposit     *big.Int
	ContentHash string
	IsForRent   bool
}

type TransactionStarted struct {
	TransactionId *big.Int
	ListingId     *big.Int
	Buyer         common.Address
	Seller        common.Address
	Amount        *big.Int
	Kind          uint8
}

const (
	TransactionKindSale uint8 = iota
	TransactionKindRent
)

type TransactionConfirmed struct {
	TransactionId *big.Int
	ConfirmedBy   common.Address
}

type TransactionCompleted struct {
	TransactionId *big.Int
	Timestamp     *big.Int
}

type DisputeCreated struct {
	DisputeId     *big.Int
	TransactionId *big.Int
	Initiator     common.Address
	Reason        string
}

type DisputeResolved struct {
	DisputeId *big.Int
	Winner    common.Address
	Timestamp *big.Int
}

type ReviewSubmitted struct {
	ReviewId      *big.Int
	TransactionId *big.Int
	Reviewer      common.Address
	Reviewee      common.Address
	Rating        uint8
	ContentHash   string
}
