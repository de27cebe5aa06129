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

package orderwal

import (
	"log"
	"os"

	"github.com/coinbase-samples/order-wal-gateway/orderstore"
	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

// Replay reads every segment file in sequence order and invokes callback for
// each valid record, in the order written. It updates the replay counters
// and the current sequence as it goes. Replay does not mutate any in-memory
// store itself; see ReplayInto for the default dispatch used at startup.
//
// Corruption handling: a magic/version mismatch at a
// record boundary stops scanning that file and counts one corrupted entry; a
// CRC mismatch skips just that record and counts one corrupted entry; a
// truncated trailing record (not enough bytes left for a full header or
// payload) silently ends the scan of that file without counting anything,
// since it represents an in-progress write interrupted by a crash.
func (w *OrderWal) Replay(callback func(entryType WalEntryType, payload []byte)) error {
	w.mu.Lock()
	directory, prefix := w.cfg.Directory, w.cfg.FilePrefix
	w.mu.Unlock()

	names, err := listSegments(directory, prefix)
	if err != nil {
		return err
	}

	// Sequences are unique across the lifetime of the directory, so duplicate
	// and gap detection carries across file boundaries.
	var lastSeen uint64
	for _, name := range names {
		if err := w.replayFile(segmentPath(directory, name), callback, &lastSeen); err != nil {
			return err
		}
	}
	return nil
}

// replayFile scans one segment. The WAL lock is held only while updating
// counters between records; the callback itself runs without it.
func (w *OrderWal) replayFile(path string, callback func(entryType WalEntryType, payload []byte), lastSeen *uint64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	offset := 0
	for offset+headerSize <= len(data) {
		header := decodeHeader(data[offset : offset+headerSize])
		if header.Magic != walMagic || header.Version != walVersion {
			w.mu.Lock()
			w.corruptedEntries++
			w.mu.Unlock()
			log.Printf("orderwal: bad magic/version in %s at offset %d, skipping rest of file", path, offset)
			break
		}

		payloadStart := offset + headerSize
		payloadEnd := payloadStart + int(header.PayloadSize)
		if payloadEnd > len(data) {
			// Truncated tail: an in-flight write was interrupted. Not corruption.
			break
		}
		payload := data[payloadStart:payloadEnd]

		if walcodec.CRC32(payload) != header.Checksum {
			w.mu.Lock()
			w.corruptedEntries++
			w.mu.Unlock()
			log.Printf("orderwal: checksum mismatch in %s at sequence %d, skipping record", path, header.Sequence)
			offset = payloadEnd
			continue
		}

		if header.Sequence <= *lastSeen {
			offset = payloadEnd
			continue
		}
		if *lastSeen > 0 && header.Sequence > *lastSeen+1 {
			log.Printf("orderwal: sequence gap in %s: %d -> %d", path, *lastSeen, header.Sequence)
		}

		callback(header.Type, payload)

		w.mu.Lock()
		w.entriesReplayed++
		w.bytesReplayed += uint64(headerSize + len(payload))
		w.sequence = header.Sequence
		w.mu.Unlock()
		*lastSeen = header.Sequence
		offset = payloadEnd
	}
	return nil
}

// ReplayInto replays the log and applies every record to store, the default
// recovery path a process runs at startup before accepting new orders.
//
// A Checkpoint record is authoritative: the store is cleared and rebuilt
// from the snapshot before anything recorded after it is applied. An
// order-new record for an order already in the store is skipped as a
// duplicate. For update, fill, and cancel records, one whose timestamp is
// not newer than the order's current last_ts_ns is treated as stale and
// skipped; one that names an order the store hasn't seen yet is applied
// anyway, with a log line noting the gap. Rotation markers apply nothing.
func (w *OrderWal) ReplayInto(store *orderstore.OrderStore) error {
	return w.Replay(func(entryType WalEntryType, payload []byte) {
		switch entryType {
		case EntryOrderNew:
			req := walcodec.DecodePlaceOrderRequest(payload)
			if _, exists := store.Get(req.ClientOrderID); exists {
				log.Printf("orderwal: replaying duplicate order-new for %s, skipping", req.ClientOrderID)
				return
			}
			store.NoteOrderParams(req)

		case EntryOrderUpdate:
			u := walcodec.DecodeOrderUpdate(payload)
			if isStale(store, u.ClientOrderID, u.TsNs) {
				return
			}
			store.ApplyOrderUpdate(u.ClientOrderID, "", "", u.VenueOrderID, u.Status, u.Reason, u.TsNs)

		case EntryOrderFill:
			f := walcodec.DecodeOrderFill(payload)
			if isStale(store, f.ClientOrderID, f.TsNs) {
				return
			}
			store.ApplyFill(f.ClientOrderID, f.Symbol, f.Qty, f.Price, f.TsNs)

		case EntryOrderCancel:
			c := walcodec.DecodeOrderCancel(payload)
			if isStale(store, c.ClientOrderID, c.TsNs) {
				return
			}
			store.ApplyOrderUpdate(c.ClientOrderID, "", "", "", walcodec.StatusCanceled, c.Reason, c.TsNs)

		case EntryCheckpoint:
			restoreCheckpoint(store, walcodec.DecodeCheckpoint(payload))

		case EntryRotation:
			// Marker only; nothing to apply.
		}
	})
}

// isStale reports whether coid has already advanced past tsNs. A missing
// order is never stale; it is logged and applied regardless.
func isStale(store *orderstore.OrderStore, coid string, tsNs int64) bool {
	existing, exists := store.Get(coid)
	if !exists {
		log.Printf("orderwal: replaying record for unknown order %s, applying anyway", coid)
		return false
	}
	return existing.LastTsNs >= tsNs
}

// restoreCheckpoint clears store and rebuilds it from a checkpoint snapshot,
// preserving each order's original creation time.
func restoreCheckpoint(store *orderstore.OrderStore, states []walcodec.OrderState) {
	store.Clear()
	for _, s := range states {
		req := walcodec.PlaceOrderRequest{
			ClientOrderID: s.ClientOrderID,
			Symbol:        s.Symbol,
			Side:          s.Side,
		}
		if s.OrderQty != nil {
			req.Qty = *s.OrderQty
		}
		if s.LimitPrice != nil {
			req.Price = s.LimitPrice
		}
		store.NoteOrderParams(req)
		store.ApplyOrderUpdate(s.ClientOrderID, s.Symbol, s.Side, s.VenueOrderID, s.Status, s.Reason, s.LastTsNs)
		if s.ExecutedQty > 0 {
			store.ApplyFill(s.ClientOrderID, s.Symbol, s.ExecutedQty, s.AvgPrice, s.LastTsNs)
		}
		store.RestoreCreatedTs(s.ClientOrderID, s.CreatedTsNs)
	}
}
