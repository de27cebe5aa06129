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

package orderstore

import (
	"math"
	"sync"
	"testing"

	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

// TestOrderStore_NoteOrderParams_CreatesRecord verifies that registering
// params for an unseen client order ID lazily creates the record.
func TestOrderStore_NoteOrderParams_CreatesRecord(t *testing.T) {
	store := NewOrderStore()
	price := 50000.0

	store.NoteOrderParams(walcodec.PlaceOrderRequest{
		ClientOrderID: "A",
		Symbol:        "BTCUSDT",
		Side:          walcodec.SideBuy,
		Qty:           2.0,
		Price:         &price,
	})

	order, ok := store.Get("A")
	if !ok {
		t.Fatal("expected order A to exist")
	}
	if order.Symbol != "BTCUSDT" || order.Side != walcodec.SideBuy {
		t.Errorf("unexpected order: %+v", order)
	}
	if order.OrderQty == nil || *order.OrderQty != 2.0 {
		t.Errorf("expected order qty 2.0, got %v", order.OrderQty)
	}
	if order.CreatedTsNs == 0 {
		t.Error("expected created_ts_ns to be set")
	}
}

// TestOrderStore_NoteOrderParams_EmptyCoidIgnored verifies an empty client
// order ID never creates a record.
func TestOrderStore_NoteOrderParams_EmptyCoidIgnored(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "", Symbol: "BTCUSDT"})
	if store.Count() != 0 {
		t.Errorf("expected empty store, got %d orders", store.Count())
	}
}

// TestOrderStore_NoteOrderParams_NeverOverwritesCreatedTs verifies
// created_ts_ns is set once and never overwritten by later calls.
func TestOrderStore_NoteOrderParams_NeverOverwritesCreatedTs(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Symbol: "BTCUSDT"})
	first, _ := store.Get("A")

	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Symbol: "ETHUSDT"})
	second, _ := store.Get("A")

	if second.CreatedTsNs != first.CreatedTsNs {
		t.Errorf("expected created_ts_ns unchanged, got %d vs %d", first.CreatedTsNs, second.CreatedTsNs)
	}
	if second.Symbol != "ETHUSDT" {
		t.Errorf("expected symbol overwritten to ETHUSDT, got %s", second.Symbol)
	}
}

// TestOrderStore_Get_ReturnsDefensiveCopy verifies snapshots cannot alias
// internal state.
func TestOrderStore_Get_ReturnsDefensiveCopy(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Symbol: "BTCUSDT"})

	snap, _ := store.Get("A")
	snap.Symbol = "MODIFIED"

	original, _ := store.Get("A")
	if original.Symbol == "MODIFIED" {
		t.Error("Get should return a defensive copy, but internal state was mutated")
	}
}

// TestOrderStore_BasicLifecycle walks an order from placement through three
// fills to FILLED and checks the volume-weighted average price.
func TestOrderStore_BasicLifecycle(t *testing.T) {
	store := NewOrderStore()
	price := 50000.0

	store.NoteOrderParams(walcodec.PlaceOrderRequest{
		ClientOrderID: "A", Symbol: "BTCUSDT", Side: walcodec.SideBuy, Qty: 2.0, Price: &price,
	})
	store.ApplyOrderUpdate("A", "", "", "V1", walcodec.StatusNew, "", 1000)
	store.ApplyFill("A", "BTCUSDT", 0.5, 50000, 2000)
	store.ApplyFill("A", "BTCUSDT", 1.0, 49990, 3000)
	store.ApplyFill("A", "BTCUSDT", 0.5, 50010, 4000)

	order, ok := store.Get("A")
	if !ok {
		t.Fatal("expected order A to exist")
	}
	if math.Abs(order.ExecutedQty-2.0) > 1e-9 {
		t.Errorf("expected executed_qty 2.0, got %v", order.ExecutedQty)
	}
	if order.Status != walcodec.StatusFilled {
		t.Errorf("expected status FILLED, got %s", order.Status)
	}
	if order.AvgPrice <= 49997.0 || order.AvgPrice >= 49998.0 {
		t.Errorf("expected avg_price in (49997.0, 49998.0), got %v", order.AvgPrice)
	}
}

// TestOrderStore_TerminalStickiness verifies status remains sticky after a
// terminal transition, while fill accounting still applies.
func TestOrderStore_TerminalStickiness(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "X", Qty: 1.0})
	store.ApplyOrderUpdate("X", "", "", "", walcodec.StatusCanceled, "", 100)
	store.ApplyFill("X", "", 1.0, 100, 200)

	order, _ := store.Get("X")
	if order.Status != walcodec.StatusCanceled {
		t.Errorf("expected status to remain CANCELED, got %s", order.Status)
	}
	if order.ExecutedQty != 1.0 {
		t.Errorf("expected executed_qty 1.0, got %v", order.ExecutedQty)
	}
}

// TestOrderStore_ApplyFill_IgnoresNonPositiveQty verifies malformed-input
// handling.
func TestOrderStore_ApplyFill_IgnoresNonPositiveQty(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Qty: 1.0})
	store.ApplyFill("A", "", 0, 100, 100)
	store.ApplyFill("A", "", -1, 100, 100)

	order, _ := store.Get("A")
	if order.ExecutedQty != 0 {
		t.Errorf("expected executed_qty 0, got %v", order.ExecutedQty)
	}
}

// TestOrderStore_ApplyFill_PartialThenFull verifies the PARTIALLY_FILLED to
// FILLED transition boundary.
func TestOrderStore_ApplyFill_PartialThenFull(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Qty: 1.0})

	store.ApplyFill("A", "", 0.4, 10, 100)
	order, _ := store.Get("A")
	if order.Status != walcodec.StatusPartiallyFilled {
		t.Errorf("expected PARTIALLY_FILLED, got %s", order.Status)
	}

	store.ApplyFill("A", "", 0.6, 10, 200)
	order, _ = store.Get("A")
	if order.Status != walcodec.StatusFilled {
		t.Errorf("expected FILLED, got %s", order.Status)
	}
}

// TestOrderStore_ApplyExecutionReport verifies the convenience wrapper
// applies the fill and overwrites venue fields.
func TestOrderStore_ApplyExecutionReport(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Qty: 5.0})

	store.ApplyExecutionReport(ExecutionReport{
		ClientOrderID: "A",
		VenueOrderID:  "V1",
		Symbol:        "BTCUSDT",
		LastFillQty:   5.0,
		LastFillPrice: 100,
		TsRecvNs:      555,
	})

	order, _ := store.Get("A")
	if order.VenueOrderID != "V1" || order.Symbol != "BTCUSDT" {
		t.Errorf("unexpected order: %+v", order)
	}
	if order.LastTsNs != 555 {
		t.Errorf("expected last_ts_ns 555, got %d", order.LastTsNs)
	}
	if order.Status != walcodec.StatusFilled {
		t.Errorf("expected FILLED, got %s", order.Status)
	}
}

// TestOrderStore_ListPendingAndTerminal verifies the pending/terminal
// partition.
func TestOrderStore_ListPendingAndTerminal(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A"})
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "B"})
	store.ApplyOrderUpdate("B", "", "", "", walcodec.StatusFilled, "", 100)

	if got := store.CountPending(); got != 1 {
		t.Errorf("expected 1 pending, got %d", got)
	}
	if got := store.CountTerminal(); got != 1 {
		t.Errorf("expected 1 terminal, got %d", got)
	}
	if got := len(store.ListPending()); got != 1 {
		t.Errorf("expected 1 pending in list, got %d", got)
	}
	if got := len(store.ListTerminal()); got != 1 {
		t.Errorf("expected 1 terminal in list, got %d", got)
	}
}

// TestOrderStore_Clear verifies full reset, used by checkpoint restore.
func TestOrderStore_Clear(t *testing.T) {
	store := NewOrderStore()
	store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A"})
	store.Clear()
	if store.Count() != 0 {
		t.Errorf("expected empty store after Clear, got %d", store.Count())
	}
}

// TestOrderStore_ConcurrentMutation exercises the lock under concurrent
// writers targeting distinct and shared keys.
func TestOrderStore_ConcurrentMutation(t *testing.T) {
	store := NewOrderStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "shared", Qty: 1.0})
			store.ApplyFill("shared", "", 0.01, 100, int64(i+1))
		}(i)
	}
	wg.Wait()

	order, ok := store.Get("shared")
	if !ok {
		t.Fatal("expected shared order to exist")
	}
	if math.Abs(order.ExecutedQty-0.5) > 1e-6 {
		t.Errorf("expected executed_qty 0.5, got %v", order.ExecutedQty)
	}
}
