package market_sync

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Decodes raw feed logs into typed events
type Parser struct {
	contractAbi abi.ABI
}

func NewParser() (self *Parser, err error) {
	self = new(Parser)
	self.contractAbi, err = abi.JSON(strings.NewReader(marketplaceAbiJson))
	if err != nil {
		return nil, err
	}
	return
}

func (self *Parser) EventIds() (ids []common.Hash) {
	for _, event := range self.contractAbi.Events {
		ids = append(ids, event.ID)
	}
	return
}

func (self *Parser) Parse(vLog types.Log) (event *Event, err error) {
	if len(vLog.Topics) == 0 {
		return nil, fmt.Errorf("log without topics")
	}

	abiEvent, err := self.contractAbi.EventByID(vLog.Topics[0])
	if err != nil {
		return nil, fmt.Errorf("unknown event signature %s: %w", vLog.Topics[0], err)
	}

	var payload interface{}
	switch abiEvent.Name {
	case EventListingCreated:
		payload = new(ListingCreated)
	case EventTransactionStarted:
		payload = new(TransactionStarted)
	case EventTransactionConfirmed:
		payload = new(TransactionConfirmed)
	case EventTransactionCompleted:
		payload = new(TransactionCompleted)
	case EventDisputeCreated:
		payload = new(DisputeCreated)
	case EventDisputeResolved:
		payload = new(DisputeResolved)
	case EventReviewSubmitted:
		payload = new(ReviewSubmitted)
	default:
		return nil, fmt.Errorf("no payload type for event %s", abiEvent.Name)
	}

	if len(vLog.Data) > 0 {
		err = self.contractAbi.UnpackIntoInterface(payload, abiEvent.Name, vLog.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack %s data: %w", abiEvent.Name, err)
		}
	}

	indexed := make(abi.Arguments, 0, len(abiEvent.Inputs))
	for _, input := range abiEvent.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		err = abi.ParseTopics(payload, indexed, vLog.Topics[1:])
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s topics: %w", abiEvent.Name, err)
		}
	}

	event = &Event{
		Name:        abiEvent.Name,
		BlockNumber: vLog.BlockNumber,
		TxHash:      vLog.TxHash.Hex(),
		LogIndex:    vLog.Index,
		Payload:     payload,
	}
	return
}
