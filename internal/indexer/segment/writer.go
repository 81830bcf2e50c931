package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/index"
)

type EncodeOptions struct {
	Compress bool
	// CreatedAt defaults to time.Now.
	CreatedAt time.Time
}

// Encode writes ix to w in .lidx format and returns the header it wrote.
func Encode(w io.Writer, ix *index.Index, opts EncodeOptions) (Header, error) {
	snap := ix.Snapshot()
	payload := filePayload{
		TotalDocs:     snap.TotalDocs,
		IndexedTerms:  snap.IndexedTerms,
		ExcludedTerms: snap.ExcludedTerms,
		Scored:        snap.Scored,
		Docs:          snap.Docs,
		Terms:         make(map[string]fileTerm, len(snap.Terms)),
	}
	for lemma, e := range snap.Terms {
		ft := fileTerm{
			TDC: e.DocumentFrequency,
			TWC: e.TotalTermFrequency,
			IL:  make(map[string]filePosting, len(e.Postings)),
		}
		for doc, p := range e.Postings {
			ft.IL[doc] = filePosting{TF: p.TermFrequency, Pos: p.Positions, TFIDF: p.TFIDF}
		}
		payload.Terms[lemma] = ft
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return Header{}, fmt.Errorf("marshaling index payload: %w", err)
	}

	var flags uint32
	if opts.Compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return Header{}, fmt.Errorf("creating zstd encoder: %w", err)
		}
		data = enc.EncodeAll(data, nil)
		enc.Close()
		flags |= FlagZstd
	}

	created := opts.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	h := Header{
		Version:     FormatVersion,
		Flags:       flags,
		TermCount:   uint32(len(snap.Terms)),
		DocCount:    uint32(snap.TotalDocs),
		CreatedAt:   created.UTC(),
		PayloadSize: uint64(len(data)),
	}

	footer := make([]byte, FooterSize)
	binary.LittleEndian.PutUint32(footer[0:4], crc32.ChecksumIEEE(data))
	copy(footer[4:8], Magic[:])

	for _, part := range [][]byte{h.marshal(), data, footer} {
		if _, err := w.Write(part); err != nil {
			return Header{}, fmt.Errorf("writing index file: %w", err)
		}
	}
	return h, nil
}

// WriteFile atomically replaces path with the encoded index. It writes to a
// .tmp sibling first and renames on success.
func WriteFile(path string, ix *index.Index, opts EncodeOptions) (Header, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Header{}, fmt.Errorf("creating index directory: %w", err)
	}
	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return Header{}, fmt.Errorf("creating temp index file: %w", err)
	}
	cleanup := func() {
		f.Close()
		os.Remove(tmpPath)
	}

	var buf bytes.Buffer
	h, err := Encode(&buf, ix, opts)
	if err != nil {
		cleanup()
		return Header{}, err
	}
	if _, err := buf.WriteTo(f); err != nil {
		cleanup()
		return Header{}, fmt.Errorf("writing index file: %w", err)
	}
	if err := f.Sync(); err != nil {
		cleanup()
		return Header{}, fmt.Errorf("syncing index file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return Header{}, fmt.Errorf("closing index file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return Header{}, fmt.Errorf("renaming index file: %w", err)
	}
	return h, nil
}
