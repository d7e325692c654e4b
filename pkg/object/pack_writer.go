package object

import (
	"bytes"
	"crypto/sha1"
	"fmt"
	"hash"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/zlib"
)

type packCountedWriter struct {
	w io.Writer
	n uint64
}

func (cw *packCountedWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += uint64(n)
	return n, err
}

func (cw *packCountedWriter) Count() uint64 {
	return cw.n
}

func compressPackPayload(raw []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PackWriter writes pack streams with zlib-compressed object entries. The
// trailer checksum is SHA-1 over all bytes preceding the trailer. Delta
// entries are never emitted: every entry carries its full payload.
type PackWriter struct {
	out      io.Writer
	hasher   hash.Hash
	hashedW  io.Writer
	counter  *packCountedWriter
	expected uint32
	written  uint32
	finished bool
}

// NewPackWriter initializes a new writer and writes the fixed pack header.
func NewPackWriter(out io.Writer, numObjects uint32) (*PackWriter, error) {
	hasher := sha1.New()
	counter := &packCountedWriter{w: out}
	pw := &PackWriter{
		out:      out,
		hasher:   hasher,
		hashedW:  io.MultiWriter(counter, hasher),
		counter:  counter,
		expected: numObjects,
	}

	header := PackHeader{
		Version:    supportedPackVersion,
		NumObjects: numObjects,
	}
	if _, err := pw.hashedW.Write(header.Marshal()); err != nil {
		return nil, fmt.Errorf("write pack header: %w", err)
	}
	return pw, nil
}

// CurrentOffset returns the current byte offset in the pack stream (from
// pack start), excluding the trailing checksum written by Finish().
func (p *PackWriter) CurrentOffset() uint64 {
	return p.counter.Count()
}

// WriteEntry appends one object entry to the pack stream and returns the
// CRC-32 (IEEE) of the entry's on-disk bytes, as recorded in pack indexes.
func (p *PackWriter) WriteEntry(objType PackObjectType, data []byte) (uint32, error) {
	if p.finished {
		return 0, fmt.Errorf("pack writer already finished")
	}
	if p.written >= p.expected {
		return 0, fmt.Errorf("pack object count exceeded: expected %d", p.expected)
	}

	header := encodePackEntryHeader(objType, uint64(len(data)))
	compressed, err := compressPackPayload(data)
	if err != nil {
		return 0, fmt.Errorf("compress pack entry: %w", err)
	}

	crc := crc32.Update(0, crc32.IEEETable, header)
	crc = crc32.Update(crc, crc32.IEEETable, compressed)

	if _, err := p.hashedW.Write(header); err != nil {
		return 0, fmt.Errorf("write pack entry header: %w", err)
	}
	if _, err := p.hashedW.Write(compressed); err != nil {
		return 0, fmt.Errorf("write compressed pack entry: %w", err)
	}

	p.written++
	return crc, nil
}

// Finish validates the object count, writes the trailing pack checksum, and
// returns that checksum.
func (p *PackWriter) Finish() (Oid, error) {
	if p.finished {
		return Oid{}, fmt.Errorf("pack writer already finished")
	}
	if p.written != p.expected {
		return Oid{}, fmt.Errorf("pack object count mismatch: wrote %d, expected %d", p.written, p.expected)
	}

	sum := p.hasher.Sum(nil)
	if _, err := p.out.Write(sum); err != nil {
		return Oid{}, fmt.Errorf("write pack trailer checksum: %w", err)
	}

	p.finished = true
	var checksum Oid
	copy(checksum[:], sum)
	return checksum, nil
}
