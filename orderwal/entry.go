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

import "encoding/binary"

// WalEntryType identifies the payload that follows a record header.
type WalEntryType uint8

const (
	EntryOrderNew WalEntryType = iota + 1
	EntryOrderUpdate
	EntryOrderFill
	EntryOrderCancel
	EntryCheckpoint
	EntryRotation
)

const (
	// walMagic is the ASCII bytes "WALO" read as a big-endian u32; written
	// little-endian, it appears on disk as "OLAW". The magic, version, and
	// header layout are the wire contract; none may change without a version
	// bump.
	walMagic uint32 = 0x57414C4F
	// walVersion is the current on-disk format version.
	walVersion uint16 = 1
)

// recordHeader is the fixed-size header that precedes every WAL payload.
// headerSize is derived from the field layout below, not asserted as a
// separate magic number, so the two can never drift apart.
type recordHeader struct {
	Magic       uint32
	Version     uint16
	Type        WalEntryType
	Sequence    uint64
	TimestampNs int64
	PayloadSize uint32
	Checksum    uint32
}

// headerSize is magic(4) + version(2) + type(1) + reserved(5) + sequence(8)
// + timestamp(8) + payload_size(4) + checksum(4).
const headerSize = 4 + 2 + 1 + 5 + 8 + 8 + 4 + 4

func encodeHeader(h recordHeader) []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	buf[6] = byte(h.Type)
	// buf[7:12] reserved, left zero.
	binary.LittleEndian.PutUint64(buf[12:20], h.Sequence)
	binary.LittleEndian.PutUint64(buf[20:28], uint64(h.TimestampNs))
	binary.LittleEndian.PutUint32(buf[28:32], h.PayloadSize)
	binary.LittleEndian.PutUint32(buf[32:36], h.Checksum)
	return buf
}

func decodeHeader(buf []byte) recordHeader {
	var h recordHeader
	h.Magic = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	h.Type = WalEntryType(buf[6])
	h.Sequence = binary.LittleEndian.Uint64(buf[12:20])
	h.TimestampNs = int64(binary.LittleEndian.Uint64(buf[20:28]))
	h.PayloadSize = binary.LittleEndian.Uint32(buf[28:32])
	h.Checksum = binary.LittleEndian.Uint32(buf[32:36])
	return h
}
