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

// Package constants holds the FIX protocol values the order-entry session
// speaks: message types, enum field values, and the tag numbers used when
// building and parsing messages.
package constants

import "github.com/quickfixgo/quickfix"

// --- Message Types ---
const (
	// Admin Messages
	MsgTypeLogon          = "A" // Logon
	MsgTypeReject         = "3" // Session-level Reject
	MsgTypeBusinessReject = "j" // Business Message Reject

	// Order Entry Messages
	MsgTypeNewOrderSingle     = "D" // New Order Single
	MsgTypeOrderCancelRequest = "F" // Order Cancel Request
	MsgTypeExecutionReport    = "8" // Execution Report
	MsgTypeOrderCancelReject  = "9" // Order Cancel Reject
)

// --- Protocol Constants ---
const (
	FixTimeFormat     = "20060102-15:04:05.000"
	FixBeginString    = "FIXT.1.1"
	EncryptMethodNone = "0"
	HeartBtInterval   = "30"
)

// --- Order Types (Tag 40) ---
const (
	OrdTypeMarket    = "1" // Market
	OrdTypeLimit     = "2" // Limit
	OrdTypeStop      = "3" // Stop
	OrdTypeStopLimit = "4" // Stop Limit
)

// --- Side (Tag 54) ---
const (
	SideBuy  = "1" // Buy
	SideSell = "2" // Sell
)

// --- Time In Force (Tag 59) ---
const (
	TimeInForceGTC = "1" // Good Till Cancel
	TimeInForceIOC = "3" // Immediate or Cancel
	TimeInForceFOK = "4" // Fill or Kill
	TimeInForceGTD = "6" // Good Till Date
)

// --- Target Strategy (Tag 847) ---
const (
	TargetStrategyLimit     = "L"  // Limit order
	TargetStrategyMarket    = "M"  // Market order
	TargetStrategyStopLimit = "SL" // Stop Limit order
)

// --- Order Status (Tag 39) ---
const (
	OrdStatusNew             = "0" // New
	OrdStatusPartiallyFilled = "1" // Partially Filled
	OrdStatusFilled          = "2" // Filled
	OrdStatusDoneForDay      = "3" // Done for Day
	OrdStatusCanceled        = "4" // Canceled
	OrdStatusReplaced        = "5" // Replaced
	OrdStatusPendingCancel   = "6" // Pending Cancel
	OrdStatusStopped         = "7" // Stopped
	OrdStatusRejected        = "8" // Rejected
	OrdStatusSuspended       = "9" // Suspended
	OrdStatusPendingNew      = "A" // Pending New
	OrdStatusCalculated      = "B" // Calculated
	OrdStatusExpired         = "C" // Expired
)

// --- Execution Type (Tag 150) ---
const (
	ExecTypeNew           = "0" // New Order
	ExecTypePartialFill   = "1" // Partial Fill
	ExecTypeFilled        = "2" // Filled
	ExecTypeDone          = "3" // Done
	ExecTypeCanceled      = "4" // Canceled
	ExecTypePendingCancel = "6" // Pending Cancel
	ExecTypeStopped       = "7" // Stopped
	ExecTypeRejected      = "8" // Rejected
	ExecTypePendingNew    = "A" // Pending New
	ExecTypeExpired       = "C" // Expired
	ExecTypeRestated      = "D" // Restated
	ExecTypeOrderStatus   = "I" // Order Status
)

// --- Order Reject Reason (Tag 103) ---
const (
	OrdRejReasonBrokerOption   = "0"  // Broker option
	OrdRejReasonUnknownSymbol  = "1"  // Unknown symbol
	OrdRejReasonExchangeClosed = "2"  // Exchange closed
	OrdRejReasonExceedsLimit   = "3"  // Order exceeds limit
	OrdRejReasonTooLate        = "4"  // Too late to enter
	OrdRejReasonUnknownOrder   = "5"  // Unknown Order
	OrdRejReasonDuplicateOrder = "6"  // Duplicate Order
	OrdRejReasonOther          = "99" // Other
)

// --- Cancel Reject Response To (Tag 434) ---
const (
	CxlRejResponseToCancel = "1" // Order Cancel Request (F)
)

// --- Execution Instruction (Tag 18) ---
// ExecInst must be "A" for Post Only orders (maker-only).
const (
	ExecInstPostOnly = "A" // Post Only (maker-only order)
)

// --- Standard FIX Tags ---
var (
	TagAccount       = quickfix.Tag(1)
	TagAvgPx         = quickfix.Tag(6)
	TagBeginString   = quickfix.Tag(8)
	TagClOrdID       = quickfix.Tag(11)
	TagCumQty        = quickfix.Tag(14)
	TagExecID        = quickfix.Tag(17)
	TagExecInst      = quickfix.Tag(18)
	TagLastPx        = quickfix.Tag(31)
	TagLastShares    = quickfix.Tag(32)
	TagMsgType       = quickfix.Tag(35)
	TagOrderID       = quickfix.Tag(37)
	TagOrderQty      = quickfix.Tag(38)
	TagOrdStatus     = quickfix.Tag(39)
	TagOrdType       = quickfix.Tag(40)
	TagOrigClOrdID   = quickfix.Tag(41)
	TagPrice         = quickfix.Tag(44)
	TagSenderCompId  = quickfix.Tag(49)
	TagSendingTime   = quickfix.Tag(52)
	TagSide          = quickfix.Tag(54)
	TagSymbol        = quickfix.Tag(55)
	TagTargetCompId  = quickfix.Tag(56)
	TagText          = quickfix.Tag(58)
	TagTimeInForce   = quickfix.Tag(59)
	TagTransactTime  = quickfix.Tag(60)
	TagEncryptMethod = quickfix.Tag(98)
	TagStopPx        = quickfix.Tag(99)
	TagCxlRejReason  = quickfix.Tag(102)
	TagOrdRejReason  = quickfix.Tag(103)
	TagHeartBtInt    = quickfix.Tag(108)
	TagExpireTime    = quickfix.Tag(126)
	TagExecType      = quickfix.Tag(150)
	TagLeavesQty     = quickfix.Tag(151)
	TagCashOrderQty  = quickfix.Tag(152)
	TagMaxShow       = quickfix.Tag(210)

	// Order Tags
	TagCxlRejResponseTo = quickfix.Tag(434)
	TagTargetStrategy   = quickfix.Tag(847)
	TagDefaultApplVerId = quickfix.Tag(1137)

	// Coinbase Custom Tags
	TagFilledAmt   = quickfix.Tag(8002)
	TagNetAvgPrice = quickfix.Tag(8006)
)
