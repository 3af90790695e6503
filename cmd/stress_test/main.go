// Stress tool: hammers the store's atomic allocation with concurrent buyers
// and checks that exactly min(requests, stock) succeed.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blackoutassasin/NF-BOT/internal/adapter/storage"
	"github.com/blackoutassasin/NF-BOT/internal/core/domain"
)

const (
	initialStock  = 20
	totalRequests = 50
	price         = 50
)

func main() {
	ctx := context.Background()

	dir, err := os.MkdirTemp("", "nfbot-stress-*")
	if err != nil {
		log.Fatalf("failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(dir)

	store, err := storage.Open(filepath.Join(dir, "stress.db"))
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	// Seed stock
	batch := make([]domain.Credential, 0, initialStock)
	for i := 0; i < initialStock; i++ {
		batch = append(batch, domain.Credential{
			Email:    fmt.Sprintf("user%d@mail.test", i),
			Password: fmt.Sprintf("pass%d", i),
			PIN:      "1234",
		})
	}
	if _, err := store.AddItems(ctx, batch); err != nil {
		log.Fatalf("failed to seed items: %v", err)
	}

	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var otherFail atomic.Int32

	// Spawn concurrent buyers
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(buyer int) {
			defer wg.Done()

			_, err := store.AllocateAndRecord(ctx,
				fmt.Sprintf("buyer-%d", buyer), fmt.Sprintf("TX-STRESS-%d", buyer), price)
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, domain.ErrOutOfStock):
				soldOutCount.Add(1)
			default:
				otherFail.Add(1)
				log.Printf("buyer %d: unexpected error: %v", buyer, err)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	success := successCount.Load()
	soldOut := soldOutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOut)
	fmt.Printf("Other Failures:   %d\n", otherFail.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == initialStock && soldOut == totalRequests-initialStock {
		fmt.Printf("PASS: Exactly %d allocations succeeded, %d refused\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, soldOut)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		log.Fatalf("stats failed: %v", err)
	}
	fmt.Printf("Final Stats: available=%d sold=%d revenue=%d\n",
		stats.Available, stats.Sold, stats.TotalRevenue)

	if stats.Available == 0 && stats.Sold == initialStock {
		fmt.Println("PASS: Stock depleted to 0 with matching ledger")
	} else {
		fmt.Println("FAIL: Stock and ledger out of agreement")
	}
}
