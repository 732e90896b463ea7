package provider

import (
	"context"
	"log"
	"sync"

	"github.com/triporo/booking-api/internal/model"
)

// maxConcurrentBatches bounds how many pricing requests are in flight at
// once. The shared rate limiter still applies on top of this.
const maxConcurrentBatches = 4

// Partition splits ids into consecutive batches of at most size elements.
// For N ids the result has ceil(N/size) batches and concatenating them
// reproduces ids exactly.
func Partition(ids []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	batches := make([][]string, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// PriceInventoryBatched partitions ids into fixed-size batches and prices
// them concurrently. A failed batch contributes an empty slice rather than
// aborting the whole query: partial inventory is preferable to total
// failure. The merge is plain concatenation, so the result is independent
// of batch completion order. The second return value reports how many
// batches failed so the caller can distinguish "partial" from "all failed".
func (c *Client) PriceInventoryBatched(ctx context.Context, ids []string, stay Stay) ([]model.RawInventoryItem, int, error) {
	batches := Partition(ids, c.batchSize)
	if len(batches) == 0 {
		return nil, 0, nil
	}

	// Authenticate once up front: a rejected credential fails the whole
	// search rather than surfacing as N identical batch failures.
	if _, err := c.bearer(ctx); err != nil {
		return nil, len(batches), err
	}

	results := make([][]model.RawInventoryItem, len(batches))
	sem := make(chan struct{}, maxConcurrentBatches)
	var wg sync.WaitGroup
	var failed sync.Map

	for i, batch := range batches {
		wg.Add(1)
		go func(idx int, ids []string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items, err := c.PriceInventory(ctx, ids, stay)
			if err != nil {
				log.Printf("provider: pricing batch %d/%d failed (%d ids): %v", idx+1, len(batches), len(ids), err)
				failed.Store(idx, struct{}{})
				return
			}
			results[idx] = items
		}(i, batch)
	}
	wg.Wait()

	failedCount := 0
	failed.Range(func(_, _ any) bool { failedCount++; return true })

	merged := make([]model.RawInventoryItem, 0, len(ids))
	for _, part := range results {
		merged = append(merged, part...)
	}
	return merged, failedCount, nil
}

// BatchCount reports how many pricing requests a search over n ids will
// fan out into with the client's configured batch size.
func (c *Client) BatchCount(n int) int {
	if n <= 0 {
		return 0
	}
	return (n + c.batchSize - 1) / c.batchSize
}
