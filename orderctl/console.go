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

// Package orderctl is an interactive operations console over a live
// OrderStore/OrderWal pair: a readline prompt dispatching to small
// per-command handlers.
package orderctl

import (
	"fmt"
	"log"
	"strings"

	"github.com/chzyer/readline"

	"github.com/coinbase-samples/order-wal-gateway/orderstore"
	"github.com/coinbase-samples/order-wal-gateway/orderwal"
	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

// Console wires a readline prompt to a store/WAL pair.
type Console struct {
	Store *orderstore.OrderStore
	Wal   *orderwal.OrderWal
}

func NewConsole(store *orderstore.OrderStore, wal *orderwal.OrderWal) *Console {
	return &Console{Store: store, Wal: wal}
}

// Run drives the console's read-eval-print loop until the user exits or
// stdin closes. It blocks the calling goroutine.
func (c *Console) Run() {
	completer := readline.NewPrefixCompleter(
		readline.PcItem("orders"),
		readline.PcItem("order"),
		readline.PcItem("pending"),
		readline.PcItem("terminal"),
		readline.PcItem("stats"),
		readline.PcItem("checkpoint"),
		readline.PcItem("rotate"),
		readline.PcItem("help"),
		readline.PcItem("exit"),
	)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "orderctl> ",
		HistoryFile:     "/tmp/orderctl_history",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Printf("orderctl: failed to start readline: %v", err)
		return
	}
	defer rl.Close()

	c.displayHelp()

	for {
		line, err := rl.Readline()
		if err != nil {
			return
		}

		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "orders":
			c.handleOrders()
		case "order":
			c.handleOrder(parts)
		case "pending":
			c.handlePending()
		case "terminal":
			c.handleTerminal()
		case "stats":
			c.handleStats()
		case "checkpoint":
			c.handleCheckpoint()
		case "rotate":
			c.handleRotate()
		case "help":
			c.displayHelp()
		case "exit":
			return
		default:
			fmt.Println("unknown command. type 'help' for available commands.")
		}
	}
}

func (c *Console) displayHelp() {
	fmt.Print(`Commands:
  orders              list every tracked order
  order <coid>        show one order
  pending             list non-terminal orders
  terminal            list terminal orders
  stats               show WAL counters
  checkpoint          write a checkpoint of current store state
  rotate              force WAL segment rotation
  help                show this message
  exit                quit
`)
}

func (c *Console) handleOrders() {
	for _, o := range c.Store.List() {
		printOrder(o)
	}
}

func (c *Console) handleOrder(parts []string) {
	if len(parts) < 2 {
		fmt.Println("usage: order <client-order-id>")
		return
	}
	o, ok := c.Store.Get(parts[1])
	if !ok {
		fmt.Printf("no order %s\n", parts[1])
		return
	}
	printOrder(o)
}

func (c *Console) handlePending() {
	for _, o := range c.Store.ListPending() {
		printOrder(o)
	}
}

func (c *Console) handleTerminal() {
	for _, o := range c.Store.ListTerminal() {
		printOrder(o)
	}
}

func (c *Console) handleStats() {
	s := c.Wal.Stats()
	fmt.Printf("sequence=%d written=%d(%d bytes) replayed=%d(%d bytes) rotations=%d checkpoints=%d corrupted=%d healthy=%v\n",
		s.CurrentSequence, s.EntriesWritten, s.BytesWritten, s.EntriesReplayed, s.BytesReplayed,
		s.Rotations, s.Checkpoints, s.CorruptedEntries, c.Wal.IsHealthy())
}

func (c *Console) handleCheckpoint() {
	seq, err := c.Wal.WriteCheckpoint(c.Store)
	if err != nil {
		fmt.Printf("checkpoint failed: %v\n", err)
		return
	}
	fmt.Printf("checkpoint written at sequence %d\n", seq)
}

func (c *Console) handleRotate() {
	seq, err := c.Wal.Rotate()
	if err != nil {
		fmt.Printf("rotate failed: %v\n", err)
		return
	}
	fmt.Printf("rotated at sequence %d\n", seq)
}

func printOrder(o walcodec.OrderState) {
	qty := "-"
	if o.OrderQty != nil {
		qty = fmt.Sprintf("%v", *o.OrderQty)
	}
	price := "-"
	if o.LimitPrice != nil {
		price = fmt.Sprintf("%v", *o.LimitPrice)
	}
	fmt.Printf("%-16s %-10s %-6s qty=%-8s px=%-10s executed=%-8v avg=%-10v status=%-16s venue=%s\n",
		o.ClientOrderID, o.Symbol, o.Side, qty, price, o.ExecutedQty, o.AvgPrice, o.Status, o.VenueOrderID)
}
