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

// Package fixgateway wires a FIX order-entry session to OrderStore and
// OrderWal: inbound Execution Report and Order Cancel Reject messages update
// and log order state, and outbound PlaceOrderRequest values are sent as New
// Order Single messages.
package fixgateway

// Config carries the session identity needed to address outbound messages.
// Authentication (API keys, HMAC signing) is out of scope; the quickfix
// session's own Settings govern login.
type Config struct {
	Account      string
	SenderCompId string
	TargetCompId string
}

func NewConfig(account, senderCompId, targetCompId string) *Config {
	return &Config{
		Account:      account,
		SenderCompId: senderCompId,
		TargetCompId: targetCompId,
	}
}
