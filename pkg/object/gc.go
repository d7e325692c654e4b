package object

import (
	"fmt"
	"os"
	"path/filepath"
)

// GCSummary reports the result of a collection pass.
type GCSummary struct {
	PackedObjects int
	PrunedObjects int
	PackFile      string
	IndexFile     string
}

// VerifySummary reports the result of an integrity pass.
type VerifySummary struct {
	LooseObjects int
	PackFiles    int
	PackObjects  int
}

// GC repacks every loose object not already present in a pack into a single
// new pack/idx pair, then prunes the loose files, including loose copies of
// already-packed objects. Running on a fully packed database is a no-op.
func (db *Database) GC() (*GCSummary, error) {
	if db.closed {
		return nil, ErrClosed
	}

	looseIDs, err := db.listLooseIDs()
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}

	packed, err := db.packedSet()
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}

	var pending, duplicate []Oid
	for _, id := range looseIDs {
		if _, ok := packed[id]; ok {
			duplicate = append(duplicate, id)
			continue
		}
		pending = append(pending, id)
	}

	summary := &GCSummary{PackedObjects: len(pending)}
	if len(pending) > 0 {
		packPath, idxPath, err := db.writePackOfLoose(pending)
		if err != nil {
			return nil, err
		}
		summary.PackFile = packPath
		summary.IndexFile = idxPath
	}

	// Loose files go only after both pack and index are durable.
	for _, id := range append(pending, duplicate...) {
		if err := os.Remove(db.objectPath(id)); err != nil {
			return nil, fmt.Errorf("gc: prune %s: %w", id, err)
		}
		summary.PrunedObjects++
	}

	return summary, nil
}

// GCReachable repacks loose objects reachable from roots and prunes the
// rest: loose copies of packed objects and loose objects no root reaches.
// Packed objects are never pruned here, reachable or not.
func (db *Database) GCReachable(roots []Oid) (*GCSummary, error) {
	if db.closed {
		return nil, ErrClosed
	}

	reach, err := db.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}

	looseIDs, err := db.listLooseIDs()
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}

	packed, err := db.packedSet()
	if err != nil {
		return nil, fmt.Errorf("gc: %w", err)
	}

	var pending, prune []Oid
	for _, id := range looseIDs {
		_, isPacked := packed[id]
		_, isReachable := reach[id]
		switch {
		case isPacked || !isReachable:
			prune = append(prune, id)
		default:
			pending = append(pending, id)
		}
	}

	summary := &GCSummary{PackedObjects: len(pending)}
	if len(pending) > 0 {
		packPath, idxPath, err := db.writePackOfLoose(pending)
		if err != nil {
			return nil, err
		}
		summary.PackFile = packPath
		summary.IndexFile = idxPath
	}

	for _, id := range append(pending, prune...) {
		if err := os.Remove(db.objectPath(id)); err != nil {
			return nil, fmt.Errorf("gc: prune %s: %w", id, err)
		}
		summary.PrunedObjects++
	}

	return summary, nil
}

// writePackOfLoose packs the given loose objects into a fresh pack/idx pair
// named after the pack checksum. Both files land atomically.
func (db *Database) writePackOfLoose(pending []Oid) (string, string, error) {
	if err := os.MkdirAll(db.packDir(), 0o755); err != nil {
		return "", "", fmt.Errorf("gc: %w", err)
	}
	tmpPack, err := os.CreateTemp(db.packDir(), ".tmp-pack-*")
	if err != nil {
		return "", "", fmt.Errorf("gc: create pack: %w", err)
	}
	tmpPackName := tmpPack.Name()

	pw, err := NewPackWriter(tmpPack, uint32(len(pending)))
	if err != nil {
		tmpPack.Close()
		os.Remove(tmpPackName)
		return "", "", fmt.Errorf("gc: %w", err)
	}

	indexEntries := make([]PackIndexEntry, 0, len(pending))
	for _, id := range pending {
		t, data, err := db.readLoose(id)
		if err != nil {
			tmpPack.Close()
			os.Remove(tmpPackName)
			return "", "", fmt.Errorf("gc: %w", err)
		}
		kind, err := packType(t)
		if err != nil {
			tmpPack.Close()
			os.Remove(tmpPackName)
			return "", "", fmt.Errorf("gc: %s: %w", id, err)
		}
		offset := pw.CurrentOffset()
		crc, err := pw.WriteEntry(kind, data)
		if err != nil {
			tmpPack.Close()
			os.Remove(tmpPackName)
			return "", "", fmt.Errorf("gc: pack %s: %w", id, err)
		}
		indexEntries = append(indexEntries, PackIndexEntry{
			ID:     id,
			Offset: offset,
			CRC32:  crc,
		})
	}

	packChecksum, err := pw.Finish()
	if err != nil {
		tmpPack.Close()
		os.Remove(tmpPackName)
		return "", "", fmt.Errorf("gc: finish pack: %w", err)
	}
	if err := tmpPack.Close(); err != nil {
		os.Remove(tmpPackName)
		return "", "", fmt.Errorf("gc: close pack: %w", err)
	}

	base := "pack-" + packChecksum.String()
	packPath := filepath.Join(db.packDir(), base+".pack")
	if err := os.Rename(tmpPackName, packPath); err != nil {
		os.Remove(tmpPackName)
		return "", "", fmt.Errorf("gc: place pack: %w", err)
	}

	idxPath, err := db.writePackIndexFile(base, indexEntries, packChecksum)
	if err != nil {
		os.Remove(packPath)
		return "", "", fmt.Errorf("gc: %w", err)
	}
	return packPath, idxPath, nil
}

// writePackIndexFile writes the idx for a freshly written pack, atomically.
func (db *Database) writePackIndexFile(base string, entries []PackIndexEntry, packChecksum Oid) (string, error) {
	tmp, err := os.CreateTemp(db.packDir(), ".tmp-idx-*")
	if err != nil {
		return "", fmt.Errorf("create index: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := WritePackIndex(tmp, entries, packChecksum); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("write index: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("close index: %w", err)
	}

	idxPath := filepath.Join(db.packDir(), base+".idx")
	if err := os.Rename(tmpName, idxPath); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("place index: %w", err)
	}
	return idxPath, nil
}

// packedSet returns the identifiers reachable through every pack index.
func (db *Database) packedSet() (map[Oid]struct{}, error) {
	bases, err := db.packBases()
	if err != nil {
		return nil, err
	}
	packed := make(map[Oid]struct{})
	for _, base := range bases {
		h, err := db.openPack(base)
		if err != nil {
			return nil, err
		}
		for _, entry := range h.index.Entries() {
			packed[entry.ID] = struct{}{}
		}
	}
	return packed, nil
}

// Verify checks the integrity of every stored object: loose objects must
// decompress and rehash to their identifier; packs must match their index,
// checksum, declared entry types and CRCs.
func (db *Database) Verify() (*VerifySummary, error) {
	if db.closed {
		return nil, ErrClosed
	}
	summary := &VerifySummary{}

	looseIDs, err := db.listLooseIDs()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, id := range looseIDs {
		t, data, err := db.readLoose(id)
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		if computed := HashObject(t, data); computed != id {
			return nil, fmt.Errorf("verify: loose object %s: hash mismatch (computed %s)", id, computed)
		}
		summary.LooseObjects++
	}

	bases, err := db.packBases()
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	for _, base := range bases {
		if err := db.verifyPack(base, summary); err != nil {
			return nil, fmt.Errorf("verify: pack %s: %w", base, err)
		}
		summary.PackFiles++
	}
	return summary, nil
}

// verifyPack fully decodes one pack and cross-checks it against its index.
func (db *Database) verifyPack(base string, summary *VerifySummary) error {
	idxData, err := os.ReadFile(filepath.Join(db.packDir(), base+".idx"))
	if err != nil {
		return err
	}
	idx, err := ReadPackIndex(idxData)
	if err != nil {
		return err
	}

	packData, err := os.ReadFile(filepath.Join(db.packDir(), base+".pack"))
	if err != nil {
		return err
	}
	pack, err := ReadPack(packData)
	if err != nil {
		return err
	}

	if pack.Checksum != idx.PackChecksum {
		return fmt.Errorf("index names checksum %s, pack has %s", idx.PackChecksum, pack.Checksum)
	}

	byOffset := make(map[uint64]*PackEntry, len(pack.Entries))
	for i := range pack.Entries {
		byOffset[uint64(pack.Entries[i].Offset)] = &pack.Entries[i]
	}

	indexEntries := idx.Entries()
	if len(indexEntries) != len(pack.Entries) {
		return fmt.Errorf("index holds %d entries, pack holds %d", len(indexEntries), len(pack.Entries))
	}

	for _, ie := range indexEntries {
		pe, ok := byOffset[ie.Offset]
		if !ok {
			return fmt.Errorf("object %s: index offset %d matches no entry", ie.ID, ie.Offset)
		}
		t, ok := storedType(pe.Type)
		if !ok {
			return fmt.Errorf("object %s: unsupported entry type %d", ie.ID, pe.Type)
		}
		if computed := HashObject(t, pe.Data); computed != ie.ID {
			return fmt.Errorf("object %s: hash mismatch (computed %s)", ie.ID, computed)
		}
		if ie.CRC32 != pe.CRC32 {
			return fmt.Errorf("object %s: crc mismatch (index %08x, pack %08x)", ie.ID, ie.CRC32, pe.CRC32)
		}
		summary.PackObjects++
	}
	return nil
}
