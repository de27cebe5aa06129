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

// Package orderstore provides thread-safe, in-memory tracking of order
// lifecycle state keyed by client order identifier.
//
// OrderStore maintains the authoritative current state of every order known
// to the gateway, from initial parameter registration through fills and
// terminal status. Every query returns a defensive deep copy; no caller can
// observe or mutate internal state directly.
package orderstore

import (
	"sync"
	"time"

	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

// terminalEpsilon absorbs floating-point drift when comparing executed
// quantity against the requested order quantity.
const terminalEpsilon = 1e-12

// ExecutionReport is a parsed execution report from the venue adapter.
type ExecutionReport struct {
	ClientOrderID string
	VenueOrderID  string
	Symbol        string
	Status        string
	LastFillQty   float64
	LastFillPrice float64
	TsRecvNs      int64
}

// OrderStore is a thread-safe in-memory index of orders keyed by client
// order ID. All mutators are idempotent with respect to malformed or
// pathological inputs: bad input is silently dropped, never errored.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]*walcodec.OrderState
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders: make(map[string]*walcodec.OrderState),
	}
}

// NoteOrderParams registers a new order's parameters, creating the record
// if this is the first reference to its client order ID. An empty client
// order ID is silently ignored.
func (s *OrderStore) NoteOrderParams(req walcodec.PlaceOrderRequest) {
	if req.ClientOrderID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.fetchOrCreate(req.ClientOrderID)

	if req.Symbol != "" {
		order.Symbol = req.Symbol
	}
	if req.Side != "" {
		order.Side = req.Side
	}
	if req.Qty > 0 {
		qty := req.Qty
		order.OrderQty = &qty
	}
	if req.Price != nil && *req.Price > 0 {
		price := *req.Price
		order.LimitPrice = &price
	}

	if order.CreatedTsNs == 0 {
		order.CreatedTsNs = time.Now().UnixNano()
	}
}

// ApplyOrderUpdate updates non-fill fields on an order. Each non-empty
// input overwrites its field; a positive timestamp overwrites LastTsNs.
// Terminal stickiness is not enforced here: the store applies the update
// exactly as received, and only ApplyFill's own status transition gates on
// terminal state. Callers are presumed to send ordered, valid updates.
func (s *OrderStore) ApplyOrderUpdate(coid, symbol, side, venueID, status, reason string, tsNs int64) {
	if coid == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.fetchOrCreate(coid)
	if symbol != "" {
		order.Symbol = symbol
	}
	if side != "" {
		order.Side = side
	}
	if venueID != "" {
		order.VenueOrderID = venueID
	}
	if status != "" {
		order.Status = status
	}
	if reason != "" {
		order.Reason = reason
	}
	if tsNs > 0 {
		order.LastTsNs = tsNs
	}
	if order.CreatedTsNs == 0 {
		order.CreatedTsNs = order.LastTsNs
	}
}

// ApplyFill accumulates a fill against an order: cumulative quantity and the
// volume-weighted average price. Status only advances while non-terminal; a
// terminal status is never overwritten by a fill, but the fill's
// quantity/price accounting always applies.
func (s *OrderStore) ApplyFill(coid, symbol string, qty, price float64, tsNs int64) {
	if coid == "" || qty <= 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.fetchOrCreate(coid)
	if symbol != "" {
		order.Symbol = symbol
	}

	prevExecuted := order.ExecutedQty
	newExecuted := prevExecuted + qty
	if newExecuted > 0 {
		order.AvgPrice = (order.AvgPrice*prevExecuted + price*qty) / newExecuted
	} else {
		order.AvgPrice = 0
	}
	order.ExecutedQty = newExecuted

	if tsNs > 0 {
		order.LastTsNs = tsNs
	}
	if order.CreatedTsNs == 0 {
		order.CreatedTsNs = order.LastTsNs
	}

	if !walcodec.IsTerminal(order.Status) {
		if order.OrderQty != nil && newExecuted+terminalEpsilon >= *order.OrderQty {
			order.Status = walcodec.StatusFilled
		} else if newExecuted > 0 {
			order.Status = walcodec.StatusPartiallyFilled
		}
	}
}

// ApplyExecutionReport applies a venue execution report: the fill (if any)
// followed by an overwrite of the venue order ID, symbol, and LastTsNs.
func (s *OrderStore) ApplyExecutionReport(report ExecutionReport) {
	if report.LastFillQty > 0 {
		s.ApplyFill(report.ClientOrderID, report.Symbol, report.LastFillQty, report.LastFillPrice, report.TsRecvNs)
	}
	if report.ClientOrderID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	order := s.fetchOrCreate(report.ClientOrderID)
	if report.VenueOrderID != "" {
		order.VenueOrderID = report.VenueOrderID
	}
	if report.Symbol != "" {
		order.Symbol = report.Symbol
	}
	order.LastTsNs = report.TsRecvNs
	if order.CreatedTsNs == 0 {
		order.CreatedTsNs = report.TsRecvNs
	}
}

// Get returns a deep-copy snapshot of the order, or false if unknown.
func (s *OrderStore) Get(coid string) (walcodec.OrderState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, exists := s.orders[coid]
	if !exists {
		return walcodec.OrderState{}, false
	}
	return copyState(order), true
}

// List returns a deep-copy snapshot of every tracked order.
func (s *OrderStore) List() []walcodec.OrderState {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]walcodec.OrderState, 0, len(s.orders))
	for _, order := range s.orders {
		result = append(result, copyState(order))
	}
	return result
}

// ListPending returns orders whose status is not terminal.
func (s *OrderStore) ListPending() []walcodec.OrderState {
	return s.listWhere(func(status string) bool { return !walcodec.IsTerminal(status) })
}

// ListTerminal returns orders whose status is terminal.
func (s *OrderStore) ListTerminal() []walcodec.OrderState {
	return s.listWhere(walcodec.IsTerminal)
}

func (s *OrderStore) listWhere(match func(status string) bool) []walcodec.OrderState {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]walcodec.OrderState, 0)
	for _, order := range s.orders {
		if match(order.Status) {
			result = append(result, copyState(order))
		}
	}
	return result
}

// Count returns the total number of tracked orders.
func (s *OrderStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// CountPending returns the number of non-terminal orders.
func (s *OrderStore) CountPending() int {
	return s.countWhere(func(status string) bool { return !walcodec.IsTerminal(status) })
}

// CountTerminal returns the number of terminal orders.
func (s *OrderStore) CountTerminal() int {
	return s.countWhere(walcodec.IsTerminal)
}

func (s *OrderStore) countWhere(match func(status string) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, order := range s.orders {
		if match(order.Status) {
			count++
		}
	}
	return count
}

// Clear removes every tracked order. Used only by checkpoint restore
// (orderwal.ReplayInto).
func (s *OrderStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = make(map[string]*walcodec.OrderState)
}

// RestoreCreatedTs sets CreatedTsNs unconditionally, bypassing the set-once
// rule in NoteOrderParams. Used only by checkpoint restore, where an order's
// original creation time must survive the Clear and rebuild.
func (s *OrderStore) RestoreCreatedTs(coid string, ts int64) {
	if coid == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	order := s.fetchOrCreate(coid)
	order.CreatedTsNs = ts
}

// fetchOrCreate returns the existing record for coid, creating an empty one
// if absent. Caller must hold the lock.
func (s *OrderStore) fetchOrCreate(coid string) *walcodec.OrderState {
	order, exists := s.orders[coid]
	if !exists {
		order = &walcodec.OrderState{ClientOrderID: coid}
		s.orders[coid] = order
	}
	return order
}

func copyState(o *walcodec.OrderState) walcodec.OrderState {
	cp := *o
	if o.OrderQty != nil {
		qty := *o.OrderQty
		cp.OrderQty = &qty
	}
	if o.LimitPrice != nil {
		price := *o.LimitPrice
		cp.LimitPrice = &price
	}
	return cp
}
