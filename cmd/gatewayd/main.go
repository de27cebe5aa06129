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

// Command gatewayd wires OrderStore, OrderWal, the FIX order-entry gateway,
// and the operator console into a single process: on startup it replays the
// WAL to rebuild order state, then begins accepting new orders over FIX
// while recording every order mutation in the WAL alongside the store.
package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/quickfixgo/quickfix"
	"github.com/quickfixgo/quickfix/log/screen"
	"github.com/quickfixgo/quickfix/store/file"

	"github.com/coinbase-samples/order-wal-gateway/fixgateway"
	"github.com/coinbase-samples/order-wal-gateway/orderctl"
	"github.com/coinbase-samples/order-wal-gateway/orderstore"
	"github.com/coinbase-samples/order-wal-gateway/orderwal"
)

func main() {
	walDir := flag.String("wal-dir", "./data/wal", "directory holding WAL segment files")
	walPrefix := flag.String("wal-prefix", "orders", "WAL segment filename prefix")
	account := flag.String("account", "", "portfolio/account identifier sent on outbound orders")
	senderCompId := flag.String("sender-comp-id", "GATEWAY", "FIX SenderCompID")
	targetCompId := flag.String("target-comp-id", "VENUE", "FIX TargetCompID")
	fixSettings := flag.String("fix-settings", "", "path to a quickfix session settings file; FIX session is skipped if empty")
	checkpointEvery := flag.Uint64("checkpoint-every", 1000, "write a checkpoint once this many records accumulate since the last one")
	flag.Parse()

	if err := os.MkdirAll(*walDir, 0755); err != nil {
		log.Fatalf("gatewayd: creating WAL directory: %v", err)
	}

	wal, err := orderwal.Open(orderwal.WalConfig{
		Directory:   *walDir,
		FilePrefix:  *walPrefix,
		MaxFileSize: 0, // zero triggers WalConfig defaults
		MaxFiles:    0,
		SyncOnWrite: true,
	})
	if err != nil {
		log.Fatalf("gatewayd: opening WAL: %v", err)
	}
	defer wal.Close()

	store := orderstore.NewOrderStore()
	if err := wal.ReplayInto(store); err != nil {
		log.Fatalf("gatewayd: replaying WAL: %v", err)
	}
	log.Printf("gatewayd: recovered %d orders from %d replayed records", store.Count(), wal.Stats().EntriesReplayed)

	gateway := fixgateway.NewGateway(
		fixgateway.NewConfig(*account, *senderCompId, *targetCompId),
		store,
		wal,
	)

	var initiator *quickfix.Initiator
	if *fixSettings != "" {
		initiator = startFixSession(*fixSettings, gateway)
		if initiator != nil {
			defer initiator.Stop()
		}
	} else {
		log.Printf("gatewayd: no -fix-settings provided, running without a live FIX session")
	}

	go checkpointLoop(wal, store, *checkpointEvery)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Printf("gatewayd: shutting down, writing final checkpoint")
		if _, err := wal.WriteCheckpoint(store); err != nil {
			log.Printf("gatewayd: checkpoint on shutdown failed: %v", err)
		}
		if initiator != nil {
			initiator.Stop()
		}
		wal.Close()
		os.Exit(0)
	}()

	orderctl.NewConsole(store, wal).Run()
}

// checkpointLoop periodically snapshots the store once enough records have
// accumulated, then prunes segments the checkpoint has made redundant.
func checkpointLoop(wal *orderwal.OrderWal, store *orderstore.OrderStore, every uint64) {
	if every == 0 {
		return
	}
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for range ticker.C {
		if wal.EntriesSinceCheckpoint() < every {
			continue
		}
		if _, err := wal.WriteCheckpoint(store); err != nil {
			log.Printf("gatewayd: periodic checkpoint failed: %v", err)
			continue
		}
		if removed, err := wal.CleanupOldFiles(); err != nil {
			log.Printf("gatewayd: WAL cleanup failed: %v", err)
		} else if removed > 0 {
			log.Printf("gatewayd: removed %d old WAL segments", removed)
		}
	}
}

func startFixSession(settingsPath string, gateway *fixgateway.Gateway) *quickfix.Initiator {
	f, err := os.Open(settingsPath)
	if err != nil {
		log.Printf("gatewayd: opening FIX settings %s: %v", settingsPath, err)
		return nil
	}
	defer f.Close()

	settings, err := quickfix.ParseSettings(f)
	if err != nil {
		log.Printf("gatewayd: parsing FIX settings: %v", err)
		return nil
	}

	storeFactory := file.NewStoreFactory(settings)
	logFactory := screen.NewLogFactory()

	initiator, err := quickfix.NewInitiator(gateway, storeFactory, settings, logFactory)
	if err != nil {
		log.Printf("gatewayd: creating FIX initiator: %v", err)
		return nil
	}
	if err := initiator.Start(); err != nil {
		log.Printf("gatewayd: starting FIX initiator: %v", err)
		return nil
	}
	return initiator
}
