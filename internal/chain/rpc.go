package chain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
)

const (
	rpcPollAttempts = 120
	rpcPollInterval = time.Second
)

// WaitForRPC polls url until the node answers a block number request.
func WaitForRPC(ctx context.Context, url string) error {
	return waitForRPC(ctx, url, rpcPollAttempts, rpcPollInterval)
}

func waitForRPC(ctx context.Context, url string, attempts int, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for range attempts {
		lastErr = pingRPC(ctx, url)
		if lastErr == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	return fmt.Errorf("timed out waiting for RPC at %s: %w", url, lastErr)
}

func pingRPC(ctx context.Context, url string) error {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.BlockNumber(ctx)
	return err
}
