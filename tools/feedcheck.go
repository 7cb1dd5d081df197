package main

import (
	"context"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/chainbazaar/syncer/src/market_sync"
)

// Manual check of a feed endpoint: prints the chain id, the current head
// and the marketplace events found in the last blocks.
//
// Usage: go run tools/feedcheck.go <rpc-url> <contract-address> [blocks]
func main() {
	if len(os.Args) < 3 {
		log.Fatal("usage: feedcheck <rpc-url> <contract-address> [blocks]")
	}

	client, err := ethclient.Dial(os.Args[1])
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()

	chainId, err := client.ChainID(ctx)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("chain id:", chainId)

	head, err := client.HeaderByNumber(ctx, nil)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println("head:", head.Number)

	window := big.NewInt(1000)
	if len(os.Args) > 3 {
		if _, ok := window.SetString(os.Args[3], 10); !ok {
			log.Fatal("invalid block count")
		}
	}

	parser, err := market_sync.NewParser()
	if err != nil {
		log.Fatal(err)
	}

	logs, err := client.FilterLogs(ctx, ethereum.FilterQuery{
		FromBlock: new(big.Int).Sub(head.Number, window),
		ToBlock:   head.Number,
		Addresses: []common.Address{common.HexToAddress(os.Args[2])},
		Topics:    [][]common.Hash{parser.EventIds()},
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println("events:", len(logs))
	for _, vLog := range logs {
		event, err := parser.Parse(vLog)
		if err != nil {
			fmt.Printf("  block %d: unparsable: %v\n", vLog.BlockNumber, err)
			continue
		}
		fmt.Printf("  block %d: %s %s\n", event.BlockNumber, event.Name, event.TxHash)
	}
}
