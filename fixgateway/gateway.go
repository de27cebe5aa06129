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
	"log"
	"strconv"
	"time"

	"github.com/quickfixgo/quickfix"

	"github.com/coinbase-samples/order-wal-gateway/builder"
	"github.com/coinbase-samples/order-wal-gateway/constants"
	"github.com/coinbase-samples/order-wal-gateway/orderstore"
	"github.com/coinbase-samples/order-wal-gateway/orderwal"
	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

// Gateway is a quickfix.Application that routes an order-entry FIX session
// into an OrderStore/OrderWal pair: a thin event handler that extracts
// fields and delegates, keeping FIX-specific logic out of orderstore and
// orderwal.
type Gateway struct {
	Config *Config
	Store  *orderstore.OrderStore
	Wal    *orderwal.OrderWal

	SessionId     quickfix.SessionID
	shouldExit    bool
	lastLogonTime time.Time
}

func NewGateway(cfg *Config, store *orderstore.OrderStore, wal *orderwal.OrderWal) *Gateway {
	return &Gateway{
		Config: cfg,
		Store:  store,
		Wal:    wal,
	}
}

func (g *Gateway) OnCreate(sid quickfix.SessionID) {
	g.SessionId = sid
}

func (g *Gateway) OnLogon(sid quickfix.SessionID) {
	g.SessionId = sid
	g.lastLogonTime = time.Now()
	log.Println("fixgateway: logon", sid)
}

func (g *Gateway) OnLogout(sid quickfix.SessionID) {
	log.Println("fixgateway: logout", sid)
	if time.Since(g.lastLogonTime) < 5*time.Second || g.lastLogonTime.IsZero() {
		log.Printf("fixgateway: logon failed shortly after connecting, giving up to avoid a reconnect loop")
		g.shouldExit = true
	}
}

func (g *Gateway) ShouldExit() bool {
	return g.shouldExit
}

func (g *Gateway) FromAdmin(_ *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	return nil
}

func (g *Gateway) ToApp(_ *quickfix.Message, _ quickfix.SessionID) error {
	return nil
}

func (g *Gateway) ToAdmin(msg *quickfix.Message, _ quickfix.SessionID) {
	if t, _ := msg.Header.GetString(constants.TagMsgType); t == constants.MsgTypeLogon {
		builder.BuildLogon(&msg.Body, g.Config.Account)
	}
}

// FromApp is the entry point for inbound application-level messages:
// Execution Report (8) and Order Cancel Reject (9) are the only message
// types this session expects.
func (g *Gateway) FromApp(msg *quickfix.Message, _ quickfix.SessionID) quickfix.MessageRejectError {
	t, _ := msg.Header.GetString(constants.TagMsgType)
	switch t {
	case constants.MsgTypeExecutionReport:
		g.handleExecutionReport(msg)
	case constants.MsgTypeOrderCancelReject:
		g.handleOrderCancelReject(msg)
	default:
		log.Printf("fixgateway: received unexpected application message type %s", t)
	}
	return nil
}

func (g *Gateway) handleExecutionReport(msg *quickfix.Message) {
	coid := fieldString(msg, constants.TagClOrdID)
	if coid == "" {
		return
	}

	report := orderstore.ExecutionReport{
		ClientOrderID: coid,
		VenueOrderID:  fieldString(msg, constants.TagOrderID),
		Symbol:        fieldString(msg, constants.TagSymbol),
		Status:        internalStatus(fieldString(msg, constants.TagOrdStatus)),
		TsRecvNs:      parseTransactTime(fieldString(msg, constants.TagTransactTime)),
	}

	if execType := fieldString(msg, constants.TagExecType); execType == constants.ExecTypePartialFill || execType == constants.ExecTypeFilled {
		report.LastFillQty = parseFloat(fieldString(msg, constants.TagLastShares))
		report.LastFillPrice = parseFloat(fieldString(msg, constants.TagLastPx))
	}

	g.Store.ApplyExecutionReport(report)
	if report.Status != "" {
		g.Store.ApplyOrderUpdate(coid, "", "", "", report.Status, "", report.TsRecvNs)
	}

	if report.LastFillQty > 0 {
		if _, err := g.Wal.LogOrderFill(walcodec.OrderFillRecord{
			ClientOrderID: coid,
			Symbol:        report.Symbol,
			Qty:           report.LastFillQty,
			Price:         report.LastFillPrice,
			TsNs:          report.TsRecvNs,
		}); err != nil {
			log.Printf("fixgateway: logging fill for %s: %v", coid, err)
		}
	}

	if _, err := g.Wal.LogOrderUpdate(walcodec.OrderUpdateRecord{
		ClientOrderID: coid,
		VenueOrderID:  report.VenueOrderID,
		Status:        report.Status,
		TsNs:          report.TsRecvNs,
	}); err != nil {
		log.Printf("fixgateway: logging update for %s: %v", coid, err)
	}
}

func (g *Gateway) handleOrderCancelReject(msg *quickfix.Message) {
	coid := fieldString(msg, constants.TagClOrdID)
	if coid == "" {
		return
	}
	reason := fieldString(msg, constants.TagCxlRejReason)
	text := fieldString(msg, constants.TagText)
	if text == "" {
		text = reason
	}
	tsNs := time.Now().UnixNano()

	g.Store.ApplyOrderUpdate(coid, "", "", "", "", text, tsNs)

	if _, err := g.Wal.LogOrderUpdate(walcodec.OrderUpdateRecord{
		ClientOrderID: coid,
		Reason:        text,
		TsNs:          tsNs,
	}); err != nil {
		log.Printf("fixgateway: logging cancel reject for %s: %v", coid, err)
	}
}

// PlaceOrder records req in the store and the WAL, then sends it to the
// venue as a New Order Single. WAL/store updates happen before the message
// is sent, so a crash between the two still leaves a durable record of
// intent.
func (g *Gateway) PlaceOrder(req walcodec.PlaceOrderRequest) error {
	g.Store.NoteOrderParams(req)
	if _, err := g.Wal.LogOrderNew(req); err != nil {
		log.Printf("fixgateway: logging new order %s: %v", req.ClientOrderID, err)
	}

	params := builder.NewOrderParams{
		Account:        g.Config.Account,
		ClOrdID:        req.ClientOrderID,
		Symbol:         req.Symbol,
		Side:           fixSide(req.Side),
		OrdType:        fixOrdType(req.Type),
		TargetStrategy: fixTargetStrategy(req.Type),
		TimeInForce:    fixTimeInForce(req.TIF),
		OrderQty:       strconv.FormatFloat(req.Qty, 'f', -1, 64),
	}
	if req.Price != nil {
		params.Price = strconv.FormatFloat(*req.Price, 'f', -1, 64)
	}

	msg := builder.BuildNewOrderSingle(params, g.Config.SenderCompId, g.Config.TargetCompId)
	return quickfix.SendToTarget(msg, g.SessionId)
}

// CancelOrder records a cancel-requested update for origCoid before sending
// an Order Cancel Request (F) to the venue, under the same
// log-before-send discipline as PlaceOrder. The order only moves to
// walcodec.StatusCanceled once a confirming execution report arrives
// through handleExecutionReport.
func (g *Gateway) CancelOrder(origCoid, cancelCoid, symbol, side string) error {
	tsNs := time.Now().UnixNano()
	g.Store.ApplyOrderUpdate(origCoid, "", "", "", "", "cancel requested", tsNs)
	if _, err := g.Wal.LogOrderUpdate(walcodec.OrderUpdateRecord{
		ClientOrderID: origCoid,
		Reason:        "cancel requested",
		TsNs:          tsNs,
	}); err != nil {
		log.Printf("fixgateway: logging cancel-requested update for %s: %v", origCoid, err)
	}
	if _, err := g.Wal.LogOrderCancel(walcodec.OrderCancelRecord{
		ClientOrderID: origCoid,
		Reason:        "cancel requested",
		TsNs:          tsNs,
	}); err != nil {
		log.Printf("fixgateway: logging cancel request for %s: %v", origCoid, err)
	}

	order, ok := g.Store.Get(origCoid)
	venueOrderId := ""
	orderQty := ""
	if ok {
		venueOrderId = order.VenueOrderID
		orderQty = strconv.FormatFloat(order.OrderQtyOrZero(), 'f', -1, 64)
	}

	params := builder.CancelOrderParams{
		Account:     g.Config.Account,
		ClOrdID:     cancelCoid,
		OrigClOrdID: origCoid,
		OrderID:     venueOrderId,
		Symbol:      symbol,
		Side:        fixSide(side),
		OrderQty:    orderQty,
	}

	msg := builder.BuildOrderCancelRequest(params, g.Config.SenderCompId, g.Config.TargetCompId)
	return quickfix.SendToTarget(msg, g.SessionId)
}

func fieldString(msg *quickfix.Message, tag quickfix.Tag) string {
	if v, err := msg.Body.GetString(tag); err == nil {
		return v
	}
	if v, err := msg.Header.GetString(tag); err == nil {
		return v
	}
	return ""
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseTransactTime(s string) int64 {
	t, err := time.Parse(constants.FixTimeFormat, s)
	if err != nil {
		return time.Now().UnixNano()
	}
	return t.UnixNano()
}

func internalStatus(ordStatus string) string {
	switch ordStatus {
	case constants.OrdStatusNew, constants.OrdStatusPendingNew:
		return walcodec.StatusNew
	case constants.OrdStatusPartiallyFilled:
		return walcodec.StatusPartiallyFilled
	case constants.OrdStatusFilled:
		return walcodec.StatusFilled
	case constants.OrdStatusCanceled, constants.OrdStatusPendingCancel:
		return walcodec.StatusCanceled
	case constants.OrdStatusRejected:
		return walcodec.StatusRejected
	case constants.OrdStatusExpired:
		return walcodec.StatusExpired
	default:
		return ""
	}
}

func fixSide(side string) string {
	if side == walcodec.SideSell {
		return constants.SideSell
	}
	return constants.SideBuy
}

func fixOrdType(t walcodec.OrdType) string {
	switch t {
	case walcodec.OrdTypeLimit:
		return constants.OrdTypeLimit
	case walcodec.OrdTypeStop:
		return constants.OrdTypeStop
	case walcodec.OrdTypeStopLimit:
		return constants.OrdTypeStopLimit
	default:
		return constants.OrdTypeMarket
	}
}

func fixTargetStrategy(t walcodec.OrdType) string {
	switch t {
	case walcodec.OrdTypeMarket:
		return constants.TargetStrategyMarket
	case walcodec.OrdTypeStop, walcodec.OrdTypeStopLimit:
		return constants.TargetStrategyStopLimit
	default:
		return constants.TargetStrategyLimit
	}
}

func fixTimeInForce(tif walcodec.TimeInForce) string {
	switch tif {
	case walcodec.TimeInForceIOC:
		return constants.TimeInForceIOC
	case walcodec.TimeInForceFOK:
		return constants.TimeInForceFOK
	case walcodec.TimeInForceGTD:
		return constants.TimeInForceGTD
	default:
		return constants.TimeInForceGTC
	}
}
