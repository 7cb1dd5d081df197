package cmd

import (
	"github.com/chainbazaar/syncer/src/market_sync"

	"github.com/spf13/cobra"
)

func init() {
	RootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay ledger events into the cache and follow the live feed",
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		controller, err := market_sync.NewController(conf)
		if err != nil {
			return
		}

		err = controller.Start()
		if err != nil {
			return
		}

		<-applicationCtx.Done()

		controller.StopWait()

		return
	},
}
