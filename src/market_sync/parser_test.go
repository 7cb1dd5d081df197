package market_sync

import (
	"math/big"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/suite"
)

func TestParserTestSuite(t *testing.T) {
	suite.Run(t, new(ParserTestSuite))
}

type ParserTestSuite struct {
	suite.Suite
	parser      *Parser
	contractAbi abi.ABI
}

func (s *ParserTestSuite) SetupSuite() {
	var err error
	s.parser, err = NewParser()
	s.Require().NoError(err)
	s.contractAbi, err = abi.JSON(strings.NewReader(marketplaceAbiJson))
	s.Require().NoError(err)
}

func (s *ParserTestSuite) packLog(eventName string, indexed []common.Hash, nonIndexed ...interface{}) types.Log {
	abiEvent := s.contractAbi.Events[eventName]
	data, err := abiEvent.Inputs.NonIndexed().Pack(nonIndexed...)
	s.Require().NoError(err)

	return types.Log{
		Topics:      append([]common.Hash{abiEvent.ID}, indexed...),
		Data:        data,
		BlockNumber: 42,
		TxHash:      common.HexToHash("0xabc"),
		Index:       3,
	}
}

func (s *ParserTestSuite) TestEventIdsCoverAllEvents() {
	s.Len(s.parser.EventIds(), 7)
}

func (s *ParserTestSuite) TestParseListingCreated() {
	owner := common.HexToAddress("0x1111111111111111111111111111111111111111")
	vLog := s.packLog(EventListingCreated,
		[]common.Hash{common.BigToHash(big.NewInt(7))},
		owner, "electronics", big.NewInt(1000), big.NewInt(50), "QmHash", true)

	event, err := s.parser.Parse(vLog)
	s.Require().NoError(err)
	s.Equal(EventListingCreated, event.Name)
	s.Equal(uint64(42), event.BlockNumber)
	s.Equal(uint(3), event.LogIndex)

	payload, ok := event.Payload.(*ListingCreated)
	s.Require().True(ok)
	s.Equal(uint64(7), payload.ListingId.Uint64())
	s.Equal(owner, payload.Owner)
	s.Equal("electronics", payload.Category)
	s.Equal(int64(1000), payload.Price.Int64())
	s.Equal(int64(50), payload.Deposit.Int64())
	s.Equal("QmHash", payload.ContentHash)
	s.True(payload.IsForRent)
}

func (s *ParserTestSuite) TestParseTransactionStarted() {
	buyer := common.HexToAddress("0x2222222222222222222222222222222222222222")
	seller := common.HexToAddress("0x3333333333333333333333333333333333333333")
	vLog := s.packLog(EventTransactionStarted,
		[]common.Hash{common.BigToHash(big.NewInt(15)), common.BigToHash(big.NewInt(7))},
		buyer, seller, big.NewInt(1000), TransactionKindRent)

	event, err := s.parser.Parse(vLog)
	s.Require().NoError(err)

	payload, ok := event.Payload.(*TransactionStarted)
	s.Require().True(ok)
	s.Equal(uint64(15), payload.TransactionId.Uint64())
	s.Equal(uint64(7), payload.ListingId.Uint64())
	s.Equal(buyer, payload.Buyer)
	s.Equal(seller, payload.Seller)
	s.Equal(TransactionKindRent, payload.Kind)
}

func (s *ParserTestSuite) TestParseDisputeCreated() {
	initiator := common.HexToAddress("0x4444444444444444444444444444444444444444")
	vLog := s.packLog(EventDisputeCreated,
		[]common.Hash{common.BigToHash(big.NewInt(3)), common.BigToHash(big.NewInt(15))},
		initiator, "item not delivered")

	event, err := s.parser.Parse(vLog)
	s.Require().NoError(err)

	payload, ok := event.Payload.(*DisputeCreated)
	s.Require().True(ok)
	s.Equal(uint64(3), payload.DisputeId.Uint64())
	s.Equal(uint64(15), payload.TransactionId.Uint64())
	s.Equal(initiator, payload.Initiator)
	s.Equal("item not delivered", payload.Reason)
}

func (s *ParserTestSuite) TestParseUnknownSignature() {
	_, err := s.parser.Parse(types.Log{
		Topics: []common.Hash{common.HexToHash("0xdeadbeef")},
	})
	s.Error(err)
}

func (s *ParserTestSuite) TestParseLogWithoutTopics() {
	_, err := s.parser.Parse(types.Log{})
	s.Error(err)
}
