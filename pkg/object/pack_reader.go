package object

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

// PackEntry represents one decoded object entry in a pack stream.
type PackEntry struct {
	Type   PackObjectType
	Size   uint64
	Offset uint64
	CRC32  uint32
	Data   []byte
}

// PackFile is the decoded content of a full pack stream.
type PackFile struct {
	Header   PackHeader
	Entries  []PackEntry
	Checksum Oid
}

// ReadPack parses a full pack file byte slice, verifies the trailer
// checksum, and returns the decoded entries. Delta entries are rejected:
// this store writes only full-payload entries.
func ReadPack(data []byte) (*PackFile, error) {
	if len(data) < packHeaderSize+sha1.Size {
		return nil, fmt.Errorf("pack too short: %d", len(data))
	}

	payload := data[:len(data)-sha1.Size]
	trailer := data[len(data)-sha1.Size:]

	sum := sha1.Sum(payload)
	if !bytes.Equal(sum[:], trailer) {
		return nil, fmt.Errorf("pack checksum mismatch")
	}

	header, err := UnmarshalPackHeader(payload[:packHeaderSize])
	if err != nil {
		return nil, err
	}

	offset := packHeaderSize
	entries := make([]PackEntry, 0, header.NumObjects)
	for i := uint32(0); i < header.NumObjects; i++ {
		entryStart := offset
		objType, size, n, err := decodePackEntryHeader(payload[offset:])
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if objType == PackOfsDelta || objType == PackRefDelta {
			return nil, fmt.Errorf("entry %d: delta entries not supported", i)
		}
		offset += n
		if offset >= len(payload) {
			return nil, fmt.Errorf("entry %d: missing compressed payload", i)
		}

		sub := bytes.NewReader(payload[offset:])
		zr, err := zlib.NewReader(sub)
		if err != nil {
			return nil, fmt.Errorf("entry %d: zlib reader: %w", i, err)
		}
		raw, err := io.ReadAll(zr)
		if err != nil {
			_ = zr.Close()
			return nil, fmt.Errorf("entry %d: decompress: %w", i, err)
		}
		if err := zr.Close(); err != nil {
			return nil, fmt.Errorf("entry %d: close zlib stream: %w", i, err)
		}
		if uint64(len(raw)) != size {
			return nil, fmt.Errorf("entry %d: size mismatch header=%d decoded=%d", i, size, len(raw))
		}

		consumed := len(payload[offset:]) - sub.Len()
		offset += consumed

		entries = append(entries, PackEntry{
			Type:   objType,
			Size:   size,
			Offset: uint64(entryStart),
			CRC32:  crc32.Checksum(payload[entryStart:offset], crc32.IEEETable),
			Data:   raw,
		})
	}

	if offset != len(payload) {
		return nil, fmt.Errorf("pack has trailing undecoded bytes: %d", len(payload)-offset)
	}

	var checksum Oid
	copy(checksum[:], trailer)
	return &PackFile{
		Header:   *header,
		Entries:  entries,
		Checksum: checksum,
	}, nil
}

// ReadPackFromReader reads a complete pack stream from r and delegates to
// ReadPack for decode and verification.
func ReadPackFromReader(r io.Reader) (*PackFile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pack stream: %w", err)
	}
	return ReadPack(data)
}

// readPackEntryAt decodes the single entry starting at offset, reading from
// ra. size is the pack file's total length; it bounds the section handed to
// the decompressor.
func readPackEntryAt(ra io.ReaderAt, offset, size int64) (PackObjectType, []byte, error) {
	if offset < packHeaderSize || offset >= size {
		return 0, nil, fmt.Errorf("entry offset %d out of pack bounds", offset)
	}

	br := bufio.NewReader(io.NewSectionReader(ra, offset, size-offset))

	b, err := br.ReadByte()
	if err != nil {
		return 0, nil, fmt.Errorf("entry header: %w", err)
	}
	objType := PackObjectType((b >> 4) & 0x7)
	entrySize := uint64(b & 0x0f)
	shift := uint(4)
	for b&0x80 != 0 {
		b, err = br.ReadByte()
		if err != nil {
			return 0, nil, fmt.Errorf("entry header: %w", err)
		}
		entrySize |= uint64(b&0x7f) << shift
		shift += 7
	}
	if objType == PackOfsDelta || objType == PackRefDelta {
		return 0, nil, fmt.Errorf("delta entries not supported")
	}

	zr, err := zlib.NewReader(br)
	if err != nil {
		return 0, nil, fmt.Errorf("zlib reader: %w", err)
	}
	raw, err := io.ReadAll(zr)
	if err != nil {
		_ = zr.Close()
		return 0, nil, fmt.Errorf("decompress: %w", err)
	}
	if err := zr.Close(); err != nil {
		return 0, nil, fmt.Errorf("close zlib stream: %w", err)
	}
	if uint64(len(raw)) != entrySize {
		return 0, nil, fmt.Errorf("size mismatch header=%d decoded=%d", entrySize, len(raw))
	}

	return objType, raw, nil
}
