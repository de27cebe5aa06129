/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Benchmarks for WAL append and replay throughput.
// Run with: go test -bench=. -benchmem ./orderwal/
package orderwal

import (
	"fmt"
	"testing"

	"github.com/coinbase-samples/order-wal-gateway/orderstore"
	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

// BenchmarkWal_LogOrderFill measures append throughput with and without
// per-write fsync, the dominant cost in the production configuration.
func BenchmarkWal_LogOrderFill(b *testing.B) {
	benchCases := []struct {
		name string
		sync bool
	}{
		{"SyncOnWrite", true},
		{"NoSync", false},
	}

	for _, bc := range benchCases {
		b.Run(bc.name, func(b *testing.B) {
			cfg := DefaultWalConfig(b.TempDir())
			cfg.SyncOnWrite = bc.sync
			w, err := Open(cfg)
			if err != nil {
				b.Fatalf("Open: %v", err)
			}
			defer w.Close()

			fill := walcodec.OrderFillRecord{
				ClientOrderID: "bench-order",
				Symbol:        "BTC-USD",
				Qty:           0.001,
				Price:         50000,
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				fill.TsNs = int64(i + 1)
				if _, err := w.LogOrderFill(fill); err != nil {
					b.Fatalf("LogOrderFill: %v", err)
				}
			}
		})
	}
}

// BenchmarkWal_ReplayInto measures recovery speed over logs of growing size.
func BenchmarkWal_ReplayInto(b *testing.B) {
	benchCases := []struct {
		name    string
		records int
	}{
		{"100Records", 100},
		{"1000Records", 1000},
		{"10000Records", 10000},
	}

	for _, bc := range benchCases {
		b.Run(bc.name, func(b *testing.B) {
			cfg := DefaultWalConfig(b.TempDir())
			cfg.SyncOnWrite = false
			w, err := Open(cfg)
			if err != nil {
				b.Fatalf("Open: %v", err)
			}
			defer w.Close()

			for i := 0; i < bc.records; i++ {
				coid := fmt.Sprintf("order-%d", i)
				if _, err := w.LogOrderNew(walcodec.PlaceOrderRequest{
					ClientOrderID: coid,
					Symbol:        "BTC-USD",
					Side:          walcodec.SideBuy,
					Qty:           1.0,
				}); err != nil {
					b.Fatalf("LogOrderNew: %v", err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				store := orderstore.NewOrderStore()
				if err := w.ReplayInto(store); err != nil {
					b.Fatalf("ReplayInto: %v", err)
				}
			}
		})
	}
}
