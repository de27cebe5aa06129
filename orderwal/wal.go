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

// Package orderwal is the append-only, crash-recoverable write-ahead log for
// order lifecycle events. Every mutation OrderStore applies during normal
// operation is also durably recorded here so a restart can rebuild identical
// state by replaying the log (see Replay and ReplayInto).
//
// The log is a sequence of segment files named "<prefix>_<sequence>.wal"
// inside a single directory, rolled over to a new file once the current one
// reaches MaxFileSize; a gofrs/flock advisory lock file
// "<directory>/.<prefix>.lock" prevents two OrderWal instances with the same
// prefix from writing to it concurrently.
package orderwal

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/coinbase-samples/order-wal-gateway/orderstore"
	"github.com/coinbase-samples/order-wal-gateway/walcodec"
)

const (
	defaultFilePrefix  = "orders"
	defaultMaxFileSize = 64 * 1024 * 1024
	defaultMaxFiles    = 8
	defaultSyncOnWrite = true
)

// WalConfig controls where and how the log is stored.
type WalConfig struct {
	Directory   string
	FilePrefix  string
	MaxFileSize int64
	MaxFiles    int
	SyncOnWrite bool
}

// DefaultWalConfig returns a WalConfig for directory with the standard
// defaults applied: prefix "orders", 64 MiB segments, 8 retained files,
// fsync on every write.
func DefaultWalConfig(directory string) WalConfig {
	return WalConfig{
		Directory:   directory,
		FilePrefix:  defaultFilePrefix,
		MaxFileSize: defaultMaxFileSize,
		MaxFiles:    defaultMaxFiles,
		SyncOnWrite: defaultSyncOnWrite,
	}
}

func (c WalConfig) withDefaults() WalConfig {
	if c.FilePrefix == "" {
		c.FilePrefix = defaultFilePrefix
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = defaultMaxFileSize
	}
	if c.MaxFiles <= 0 {
		c.MaxFiles = defaultMaxFiles
	}
	return c
}

// Stats reports the WAL's running counters.
type Stats struct {
	EntriesWritten   uint64
	BytesWritten     uint64
	EntriesReplayed  uint64
	BytesReplayed    uint64
	Rotations        uint64
	Checkpoints      uint64
	CorruptedEntries uint64
	CurrentSequence  uint64
}

// OrderWal is the append-only order log. A single OrderWal owns the segments
// of one prefix in one directory; a second Open of the same directory and
// prefix is refused by an advisory file lock.
type OrderWal struct {
	cfg WalConfig

	mu              sync.Mutex
	file            *os.File
	currentFileSize int64
	dirLock         *flock.Flock

	sequence uint64
	healthy  bool

	entriesWritten         uint64
	bytesWritten           uint64
	entriesReplayed        uint64
	bytesReplayed          uint64
	rotations              uint64
	checkpoints            uint64
	corruptedEntries       uint64
	entriesSinceCheckpoint uint64
}

// Open creates or resumes a WAL in cfg.Directory. The directory must already
// exist; Open does not create it. If segment files are already present, the
// newest one is opened for append and the in-memory sequence counter is
// seeded from its filename (Replay advances it further once applied).
func Open(cfg WalConfig) (*OrderWal, error) {
	cfg = cfg.withDefaults()
	if cfg.Directory == "" {
		return nil, fmt.Errorf("orderwal: directory is required")
	}

	lockPath := filepath.Join(cfg.Directory, "."+cfg.FilePrefix+".lock")
	dirLock := flock.New(lockPath)
	locked, err := dirLock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("orderwal: acquiring directory lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("orderwal: directory %s is already locked by another writer", cfg.Directory)
	}

	w := &OrderWal{
		cfg:     cfg,
		dirLock: dirLock,
		healthy: true,
	}

	names, err := listSegments(cfg.Directory, cfg.FilePrefix)
	if err != nil {
		dirLock.Unlock()
		return nil, fmt.Errorf("orderwal: scanning directory: %w", err)
	}

	var currentName string
	if len(names) == 0 {
		currentName = walFileName(cfg.FilePrefix, 1)
	} else {
		currentName = names[len(names)-1]
		if seq, ok := parseWalFileName(currentName, cfg.FilePrefix); ok {
			w.sequence = seq
		}
	}

	path := segmentPath(cfg.Directory, currentName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		dirLock.Unlock()
		return nil, fmt.Errorf("orderwal: opening segment %s: %w", currentName, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		dirLock.Unlock()
		return nil, fmt.Errorf("orderwal: stat segment %s: %w", currentName, err)
	}

	w.file = f
	w.currentFileSize = info.Size()
	return w, nil
}

// IsHealthy reports whether the WAL is accepting writes. Once a write fails,
// the WAL marks itself unhealthy and every subsequent write becomes a silent
// no-op until operator intervention.
func (w *OrderWal) IsHealthy() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.healthy
}

// CurrentSequence returns the last sequence number written or replayed.
func (w *OrderWal) CurrentSequence() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.sequence
}

// EntriesSinceCheckpoint returns the number of records appended since the
// last checkpoint, which the host uses to decide when to write the next one.
func (w *OrderWal) EntriesSinceCheckpoint() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.entriesSinceCheckpoint
}

// Stats returns a snapshot of the running counters.
func (w *OrderWal) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Stats{
		EntriesWritten:   w.entriesWritten,
		BytesWritten:     w.bytesWritten,
		EntriesReplayed:  w.entriesReplayed,
		BytesReplayed:    w.bytesReplayed,
		Rotations:        w.rotations,
		Checkpoints:      w.checkpoints,
		CorruptedEntries: w.corruptedEntries,
		CurrentSequence:  w.sequence,
	}
}

// Close flushes and releases the segment file and the directory lock. The
// WAL must not be used after Close.
func (w *OrderWal) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.file != nil {
		if syncErr := w.file.Sync(); syncErr != nil {
			err = syncErr
		}
		if closeErr := w.file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}
	if w.dirLock != nil {
		w.dirLock.Unlock()
	}
	return err
}

// writeEntry appends one record to the log, rotating to a new segment first
// if the current one has reached MaxFileSize. It returns the sequence number
// assigned to the record. If the WAL is unhealthy, it returns the current
// sequence without writing anything.
func (w *OrderWal) writeEntry(entryType WalEntryType, payload []byte) (uint64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.healthy {
		return w.sequence, nil
	}

	if w.currentFileSize >= w.cfg.MaxFileSize {
		if err := w.rotateLocked(); err != nil {
			w.healthy = false
			log.Printf("orderwal: rotation failed, marking unhealthy: %v", err)
			return w.sequence, err
		}
	}

	nextSeq := w.sequence + 1
	header := recordHeader{
		Magic:       walMagic,
		Version:     walVersion,
		Type:        entryType,
		Sequence:    nextSeq,
		TimestampNs: time.Now().UnixNano(),
		PayloadSize: uint32(len(payload)),
		Checksum:    walcodec.CRC32(payload),
	}

	record := append(encodeHeader(header), payload...)
	if _, err := w.file.Write(record); err != nil {
		w.healthy = false
		log.Printf("orderwal: write failed, marking unhealthy: %v", err)
		return w.sequence, err
	}
	if w.cfg.SyncOnWrite {
		if err := w.file.Sync(); err != nil {
			w.healthy = false
			log.Printf("orderwal: fsync failed, marking unhealthy: %v", err)
			return w.sequence, err
		}
	}

	w.sequence = nextSeq
	w.currentFileSize += int64(len(record))
	w.entriesWritten++
	w.bytesWritten += uint64(len(record))
	w.entriesSinceCheckpoint++
	return nextSeq, nil
}

// rotateLocked closes the current segment and opens the next one, named from
// the sequence that will be assigned to the next record written into it.
// Caller must hold w.mu.
func (w *OrderWal) rotateLocked() error {
	if w.file != nil {
		if err := w.file.Sync(); err != nil {
			return err
		}
		if err := w.file.Close(); err != nil {
			return err
		}
	}

	name := walFileName(w.cfg.FilePrefix, w.sequence+1)
	path := segmentPath(w.cfg.Directory, name)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return err
	}

	w.file = f
	w.currentFileSize = 0
	w.rotations++
	return nil
}

// Rotate forces rotation to a new segment, regardless of the current
// segment's size. A zero-length Rotation marker is written to the outgoing
// segment first.
func (w *OrderWal) Rotate() (uint64, error) {
	seq, err := w.writeEntry(EntryRotation, nil)
	if err != nil {
		return seq, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.healthy {
		return w.sequence, nil
	}
	if err := w.rotateLocked(); err != nil {
		w.healthy = false
		log.Printf("orderwal: manual rotation failed, marking unhealthy: %v", err)
		return w.sequence, err
	}
	return w.sequence, nil
}

// LogOrderNew appends an order-new record.
func (w *OrderWal) LogOrderNew(req walcodec.PlaceOrderRequest) (uint64, error) {
	return w.writeEntry(EntryOrderNew, walcodec.EncodePlaceOrderRequest(req))
}

// LogOrderUpdate appends an order-update record.
func (w *OrderWal) LogOrderUpdate(u walcodec.OrderUpdateRecord) (uint64, error) {
	return w.writeEntry(EntryOrderUpdate, walcodec.EncodeOrderUpdate(u))
}

// LogOrderFill appends an order-fill record.
func (w *OrderWal) LogOrderFill(f walcodec.OrderFillRecord) (uint64, error) {
	return w.writeEntry(EntryOrderFill, walcodec.EncodeOrderFill(f))
}

// LogOrderCancel appends an order-cancel record.
func (w *OrderWal) LogOrderCancel(c walcodec.OrderCancelRecord) (uint64, error) {
	return w.writeEntry(EntryOrderCancel, walcodec.EncodeOrderCancel(c))
}

// WriteCheckpoint snapshots every order currently tracked by store into a
// single checkpoint record. A later replay treats this
// record as authoritative: it clears the store and rebuilds it from the
// snapshot before applying anything that follows.
func (w *OrderWal) WriteCheckpoint(store *orderstore.OrderStore) (uint64, error) {
	states := store.List()
	seq, err := w.writeEntry(EntryCheckpoint, walcodec.EncodeCheckpoint(states))
	if err != nil {
		return seq, err
	}
	w.mu.Lock()
	w.checkpoints++
	w.entriesSinceCheckpoint = 0
	w.mu.Unlock()
	return seq, nil
}

// CleanupOldFiles removes the oldest segment files beyond MaxFiles, never
// deleting the currently open segment.
func (w *OrderWal) CleanupOldFiles() (int, error) {
	w.mu.Lock()
	currentName := filepath.Base(w.file.Name())
	directory, prefix := w.cfg.Directory, w.cfg.FilePrefix
	maxFiles := w.cfg.MaxFiles
	w.mu.Unlock()

	names, err := listSegments(directory, prefix)
	if err != nil {
		return 0, err
	}

	removed := 0
	for len(names) > maxFiles {
		victim := names[0]
		if victim == currentName {
			break
		}
		if err := os.Remove(segmentPath(directory, victim)); err != nil {
			return removed, err
		}
		names = names[1:]
		removed++
	}
	return removed, nil
}
