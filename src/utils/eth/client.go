package eth

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"
)

func GetEthClient(log *logrus.Entry, rpcUrl string) (client *ethclient.Client, err error) {
	client, err = ethclient.Dial(rpcUrl)
	if err != nil {
		log.WithError(err).WithField("url", rpcUrl).Error("Cannot get ETH client")
		return
	}

	return
}

// Best-effort network identification, used for logging only
func LogNetworkIdentity(ctx context.Context, log *logrus.Entry, client *ethclient.Client) {
	chainId, err := client.ChainID(ctx)
	if err != nil {
		log.WithError(err).Warn("Could not resolve chain id")
		return
	}
	log.WithField("chainId", chainId.String()).Info("Connected to network")
}

func WeiToEther(wei *big.Int) float64 {
	ether, _ := new(big.Float).Quo(new(big.Float).SetInt(wei), big.NewFloat(params.Ether)).Float64()
	return ether
}
