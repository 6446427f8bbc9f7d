package store

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
)

// newTranscriptID returns an 8-hex-character id, short enough to embed in a
// filename. Drawn from a fresh UUIDv4 rather than a separate random source,
// so transcript ids share the same source of randomness as everything else.
func newTranscriptID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:4])
}

// RegisterTranscript copies raw transcript bytes into the store's transcript
// directory and indexes the result in metadata.json under a new id.
func (s *Store) RegisterTranscript(r io.Reader, filename string, source SourceType, originalSource string) (*TranscriptMeta, error) {
	id := newTranscriptID()
	storedName := id + "-" + filepath.Base(filename)
	destPath := s.transcriptFilePath(storedName)

	f, err := os.Create(destPath)
	if err != nil {
		return nil, err
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(destPath)
		return nil, err
	}

	meta := &TranscriptMeta{
		ID:             id,
		Filename:       filename,
		FilePath:       destPath,
		OriginalSource: originalSource,
		SourceType:     source,
		CreatedAt:      now(),
		FileSize:       size,
	}

	s.metadataMu.Lock()
	defer s.metadataMu.Unlock()

	idx, err := s.readMetadataLocked()
	if err != nil {
		return nil, err
	}
	idx.Transcripts[id] = meta
	if err := WriteJSONAtomic(s.metadataPath(), idx, 0o644); err != nil {
		return nil, err
	}
	return meta, nil
}

// ListTranscripts returns all registered transcripts sorted by created_at
// descending.
func (s *Store) ListTranscripts() ([]*TranscriptMeta, error) {
	s.metadataMu.Lock()
	defer s.metadataMu.Unlock()

	meta, err := s.readMetadataLocked()
	if err != nil {
		return nil, err
	}
	out := make([]*TranscriptMeta, 0, len(meta.Transcripts))
	for _, t := range meta.Transcripts {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// GetTranscript returns the indexed metadata for id, or ErrNotFound.
func (s *Store) GetTranscript(id string) (*TranscriptMeta, error) {
	s.metadataMu.Lock()
	defer s.metadataMu.Unlock()

	meta, err := s.readMetadataLocked()
	if err != nil {
		return nil, err
	}
	t, ok := meta.Transcripts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

// DeleteTranscript removes a transcript's index entry and, best-effort, its
// backing file. A missing backing file does not fail the call: the index
// entry is authoritative.
func (s *Store) DeleteTranscript(id string) (bool, error) {
	s.metadataMu.Lock()
	defer s.metadataMu.Unlock()

	meta, err := s.readMetadataLocked()
	if err != nil {
		return false, err
	}
	t, ok := meta.Transcripts[id]
	if !ok {
		return false, nil
	}
	delete(meta.Transcripts, id)
	if err := WriteJSONAtomic(s.metadataPath(), meta, 0o644); err != nil {
		return false, err
	}
	_ = os.Remove(t.FilePath)
	return true, nil
}
