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

package fixgateway

import (
	"testing"

	"github.com/quickfixgo/quickfix"

	"github.com/coinbase-samples/order-wal-gateway/constants"
	"github.com/coinbase-samples/order-wal-gateway/orderstore"
	"github.com/coinbase-samples/order-wal-gateway/orderwal"
	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	wal, err := orderwal.Open(orderwal.DefaultWalConfig(t.TempDir()))
	if err != nil {
		t.Fatalf("orderwal.Open: %v", err)
	}
	t.Cleanup(func() { wal.Close() })

	return NewGateway(
		NewConfig("portfolio-1", "SENDER", "TARGET"),
		orderstore.NewOrderStore(),
		wal,
	)
}

func execReport(msgType string, fields map[quickfix.Tag]string) *quickfix.Message {
	msg := quickfix.NewMessage()
	msg.Header.SetField(constants.TagMsgType, quickfix.FIXString(msgType))
	for tag, v := range fields {
		msg.Body.SetField(tag, quickfix.FIXString(v))
	}
	return msg
}

// TestHandleExecutionReport_PartialFillUpdatesStoreAndWal verifies an
// inbound partial-fill execution report updates both the store and logs a
// fill + update to the WAL.
func TestHandleExecutionReport_PartialFillUpdatesStoreAndWal(t *testing.T) {
	g := newTestGateway(t)
	g.Store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Qty: 1.0})

	msg := execReport(constants.MsgTypeExecutionReport, map[quickfix.Tag]string{
		constants.TagClOrdID:      "A",
		constants.TagOrderID:      "V1",
		constants.TagSymbol:       "BTCUSDT",
		constants.TagOrdStatus:    constants.OrdStatusPartiallyFilled,
		constants.TagExecType:     constants.ExecTypePartialFill,
		constants.TagLastShares:   "0.4",
		constants.TagLastPx:       "100",
		constants.TagTransactTime: "bogus",
	})
	g.handleExecutionReport(msg)

	order, ok := g.Store.Get("A")
	if !ok {
		t.Fatal("expected order A to exist")
	}
	if order.Status != walcodec.StatusPartiallyFilled {
		t.Errorf("expected PARTIALLY_FILLED, got %s", order.Status)
	}
	if order.ExecutedQty != 0.4 {
		t.Errorf("expected executed_qty 0.4, got %v", order.ExecutedQty)
	}
	if order.VenueOrderID != "V1" {
		t.Errorf("expected venue order id V1, got %s", order.VenueOrderID)
	}

	stats := g.Wal.Stats()
	if stats.EntriesWritten != 2 {
		t.Errorf("expected 2 WAL entries (fill + update), got %d", stats.EntriesWritten)
	}
}

// TestHandleExecutionReport_NoFillOnlyUpdates verifies a status-only
// execution report (e.g. New ack) does not synthesize a fill.
func TestHandleExecutionReport_NoFillOnlyUpdates(t *testing.T) {
	g := newTestGateway(t)
	g.Store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Qty: 1.0})

	msg := execReport(constants.MsgTypeExecutionReport, map[quickfix.Tag]string{
		constants.TagClOrdID:   "A",
		constants.TagOrderID:   "V1",
		constants.TagOrdStatus: constants.OrdStatusNew,
		constants.TagExecType:  constants.ExecTypeNew,
	})
	g.handleExecutionReport(msg)

	if g.Wal.Stats().EntriesWritten != 1 {
		t.Errorf("expected 1 WAL entry (update only), got %d", g.Wal.Stats().EntriesWritten)
	}
	order, _ := g.Store.Get("A")
	if order.ExecutedQty != 0 {
		t.Errorf("expected executed_qty 0, got %v", order.ExecutedQty)
	}
}

// TestCancelOrder_LogsBeforeSendAttempt verifies CancelOrder records a
// cancel-requested update and an OrderCancelRecord in the WAL even though
// no live session exists to actually deliver the FIX message.
func TestCancelOrder_LogsBeforeSendAttempt(t *testing.T) {
	g := newTestGateway(t)
	g.Store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Symbol: "BTCUSDT", Qty: 1.0})

	_ = g.CancelOrder("A", "A-cancel-1", "BTCUSDT", walcodec.SideBuy)

	order, ok := g.Store.Get("A")
	if !ok {
		t.Fatal("expected order A to exist")
	}
	if order.Reason != "cancel requested" {
		t.Errorf("expected reason to be recorded, got %q", order.Reason)
	}

	stats := g.Wal.Stats()
	if stats.EntriesWritten != 2 {
		t.Errorf("expected 2 WAL entries (update + cancel), got %d", stats.EntriesWritten)
	}
}

// TestHandleOrderCancelReject_RecordsReason verifies a cancel reject is
// applied as an order update carrying the reject reason as Reason.
func TestHandleOrderCancelReject_RecordsReason(t *testing.T) {
	g := newTestGateway(t)
	g.Store.NoteOrderParams(walcodec.PlaceOrderRequest{ClientOrderID: "A", Qty: 1.0})

	msg := execReport(constants.MsgTypeOrderCancelReject, map[quickfix.Tag]string{
		constants.TagClOrdID: "A",
		constants.TagText:    "too late to cancel",
	})
	g.handleOrderCancelReject(msg)

	order, _ := g.Store.Get("A")
	if order.Reason != "too late to cancel" {
		t.Errorf("expected reason recorded, got %q", order.Reason)
	}
}
