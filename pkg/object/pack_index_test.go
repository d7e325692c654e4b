package object

import (
	"bytes"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"strings"
	"testing"
)

func oidWithPrefix(t *testing.T, prefix string) Oid {
	t.Helper()
	return mustOid(t, prefix+strings.Repeat("0", OidHexLen-len(prefix)))
}

func TestWritePackIndexHeaderFanoutAndSorting(t *testing.T) {
	entries := []PackIndexEntry{
		{ID: oidWithPrefix(t, "ff"), Offset: 32, CRC32: 0x33333333},
		{ID: oidWithPrefix(t, "01"), Offset: 16, CRC32: 0x11111111},
		{ID: oidWithPrefix(t, "10"), Offset: 24, CRC32: 0x22222222},
	}
	packChecksum := mustOid(t, strings.Repeat("ab", OidRawLen))

	var buf bytes.Buffer
	if _, err := WritePackIndex(&buf, entries, packChecksum); err != nil {
		t.Fatalf("WritePackIndex: %v", err)
	}
	data := buf.Bytes()

	if len(data) < packIndexHeaderSize+packIndexFanoutSize+2*OidRawLen {
		t.Fatalf("index output too short: %d", len(data))
	}
	if !bytes.Equal(data[:4], packIndexMagic[:]) {
		t.Fatalf("magic = %x, want %x", data[:4], packIndexMagic)
	}
	version := binary.BigEndian.Uint32(data[4:8])
	if version != packIndexVersion {
		t.Fatalf("version = %d, want %d", version, packIndexVersion)
	}

	fanoutStart := packIndexHeaderSize
	fanout := data[fanoutStart : fanoutStart+packIndexFanoutSize]
	if got := binary.BigEndian.Uint32(fanout[0*4:]); got != 0 {
		t.Fatalf("fanout[0] = %d, want 0", got)
	}
	if got := binary.BigEndian.Uint32(fanout[1*4:]); got != 1 {
		t.Fatalf("fanout[1] = %d, want 1", got)
	}
	if got := binary.BigEndian.Uint32(fanout[0x10*4:]); got != 2 {
		t.Fatalf("fanout[0x10] = %d, want 2", got)
	}
	if got := binary.BigEndian.Uint32(fanout[0xff*4:]); got != 3 {
		t.Fatalf("fanout[0xff] = %d, want 3", got)
	}

	namesStart := packIndexHeaderSize + packIndexFanoutSize
	nameTable := data[namesStart : namesStart+len(entries)*OidRawLen]

	got1 := hex.EncodeToString(nameTable[0:OidRawLen])
	got2 := hex.EncodeToString(nameTable[OidRawLen : 2*OidRawLen])
	got3 := hex.EncodeToString(nameTable[2*OidRawLen : 3*OidRawLen])
	want1 := oidWithPrefix(t, "01").String()
	want2 := oidWithPrefix(t, "10").String()
	want3 := oidWithPrefix(t, "ff").String()
	if got1 != want1 || got2 != want2 || got3 != want3 {
		t.Fatalf("name order mismatch: got [%s %s %s]", got1, got2, got3)
	}
}

func TestWritePackIndexChecksums(t *testing.T) {
	entries := []PackIndexEntry{
		{ID: oidWithPrefix(t, "42"), Offset: 123, CRC32: 0xabcdef12},
	}
	packChecksum := mustOid(t, strings.Repeat("cd", OidRawLen))

	var buf bytes.Buffer
	gotIndexChecksum, err := WritePackIndex(&buf, entries, packChecksum)
	if err != nil {
		t.Fatalf("WritePackIndex: %v", err)
	}
	data := buf.Bytes()

	gotPackChecksum := data[len(data)-2*OidRawLen : len(data)-OidRawLen]
	if !bytes.Equal(gotPackChecksum, packChecksum[:]) {
		t.Fatalf("pack checksum mismatch: got %x want %x", gotPackChecksum, packChecksum[:])
	}

	gotIndexRaw := data[len(data)-OidRawLen:]
	expectedIndex := sha1.Sum(data[:len(data)-OidRawLen])
	if !bytes.Equal(gotIndexRaw, expectedIndex[:]) {
		t.Fatalf("index checksum mismatch: got %x want %x", gotIndexRaw, expectedIndex)
	}
	if gotIndexChecksum != Oid(expectedIndex) {
		t.Fatalf("returned index checksum mismatch: got %s want %x", gotIndexChecksum, expectedIndex)
	}
}

func TestWritePackIndexCRCColumn(t *testing.T) {
	entries := []PackIndexEntry{
		{ID: oidWithPrefix(t, "02"), Offset: 20, CRC32: 0x22222222},
		{ID: oidWithPrefix(t, "01"), Offset: 12, CRC32: 0x11111111},
	}
	packChecksum := mustOid(t, strings.Repeat("ee", OidRawLen))

	var buf bytes.Buffer
	if _, err := WritePackIndex(&buf, entries, packChecksum); err != nil {
		t.Fatalf("WritePackIndex: %v", err)
	}
	data := buf.Bytes()

	crcStart := packIndexHeaderSize + packIndexFanoutSize + len(entries)*OidRawLen
	if got := binary.BigEndian.Uint32(data[crcStart:]); got != 0x11111111 {
		t.Fatalf("crc[0] = %08x, want 11111111", got)
	}
	if got := binary.BigEndian.Uint32(data[crcStart+4:]); got != 0x22222222 {
		t.Fatalf("crc[1] = %08x, want 22222222", got)
	}
}

func TestWritePackIndexLargeOffsets(t *testing.T) {
	entries := []PackIndexEntry{
		{ID: oidWithPrefix(t, "20"), Offset: 0x20},
		{ID: oidWithPrefix(t, "30"), Offset: uint64(packIndexLargeOffsetBit) + 123},
	}
	packChecksum := mustOid(t, strings.Repeat("ef", OidRawLen))

	var buf bytes.Buffer
	if _, err := WritePackIndex(&buf, entries, packChecksum); err != nil {
		t.Fatalf("WritePackIndex: %v", err)
	}
	data := buf.Bytes()

	namesStart := packIndexHeaderSize + packIndexFanoutSize
	offsetTableStart := namesStart + (len(entries) * OidRawLen) + (len(entries) * 4)
	offset1 := binary.BigEndian.Uint32(data[offsetTableStart:])
	offset2 := binary.BigEndian.Uint32(data[offsetTableStart+4:])

	if offset1 != 0x20 {
		t.Fatalf("offset1 = %d, want %d", offset1, 0x20)
	}
	if offset2&packIndexLargeOffsetBit == 0 {
		t.Fatalf("offset2 expected large offset marker, got 0x%x", offset2)
	}
	index := offset2 & ^packIndexLargeOffsetBit
	if index != 0 {
		t.Fatalf("offset2 large index = %d, want 0", index)
	}

	largeOffsetStart := offsetTableStart + (len(entries) * 4)
	largeOffset := binary.BigEndian.Uint64(data[largeOffsetStart:])
	if largeOffset != uint64(packIndexLargeOffsetBit)+123 {
		t.Fatalf("large offset = %d, want %d", largeOffset, uint64(packIndexLargeOffsetBit)+123)
	}
}

func TestWritePackIndexRejectsDuplicateIDs(t *testing.T) {
	dup := oidWithPrefix(t, "20")
	entries := []PackIndexEntry{
		{ID: dup, Offset: 1},
		{ID: dup, Offset: 2},
	}
	packChecksum := mustOid(t, strings.Repeat("ef", OidRawLen))

	var buf bytes.Buffer
	if _, err := WritePackIndex(&buf, entries, packChecksum); err == nil {
		t.Fatal("expected duplicate id error")
	}
}

func TestWritePackIndexEmpty(t *testing.T) {
	packChecksum := mustOid(t, strings.Repeat("01", OidRawLen))
	var buf bytes.Buffer
	if _, err := WritePackIndex(&buf, nil, packChecksum); err != nil {
		t.Fatalf("WritePackIndex: %v", err)
	}

	idx, err := ReadPackIndex(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadPackIndex: %v", err)
	}
	if len(idx.Entries()) != 0 {
		t.Fatalf("Entries = %d, want 0", len(idx.Entries()))
	}
}
