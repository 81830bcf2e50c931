package segment

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"hash/crc32"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/Adithya-Monish-Kumar-K/lemma-search/internal/indexer/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

// Decode reads a complete .lidx stream. Every format, checksum, payload or
// invariant failure is reported as ErrCorruptIndexFile.
func Decode(r io.Reader) (*index.Index, Header, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, Header{}, fmt.Errorf("reading index file: %w", err)
	}
	h, err := unmarshalHeader(raw)
	if err != nil {
		return nil, Header{}, err
	}
	if len(raw) < HeaderSize+FooterSize || h.PayloadSize != uint64(len(raw)-HeaderSize-FooterSize) {
		return nil, h, corrupt("file is %d bytes, header declares %d byte payload", len(raw), h.PayloadSize)
	}
	data := raw[HeaderSize : HeaderSize+int(h.PayloadSize)]
	footer := raw[HeaderSize+int(h.PayloadSize):]
	if [4]byte(footer[4:8]) != Magic {
		return nil, h, corrupt("bad footer magic")
	}
	if got, want := crc32.ChecksumIEEE(data), binary.LittleEndian.Uint32(footer[0:4]); got != want {
		return nil, h, corrupt("checksum mismatch: %08x != %08x", got, want)
	}

	if h.Compressed() {
		dec, err := zstd.NewReader(nil)
		if err != nil {
			return nil, h, fmt.Errorf("creating zstd decoder: %w", err)
		}
		data, err = dec.DecodeAll(data, nil)
		dec.Close()
		if err != nil {
			return nil, h, corrupt("decompressing payload: %v", err)
		}
	}

	var payload filePayload
	jd := json.NewDecoder(bytes.NewReader(data))
	jd.DisallowUnknownFields()
	if err := jd.Decode(&payload); err != nil {
		return nil, h, corrupt("parsing payload: %v", err)
	}
	if uint32(len(payload.Terms)) != h.TermCount || uint32(payload.TotalDocs) != h.DocCount {
		return nil, h, corrupt("header counts (%d terms, %d docs) disagree with payload (%d, %d)",
			h.TermCount, h.DocCount, len(payload.Terms), payload.TotalDocs)
	}

	snap := index.Snapshot{
		TotalDocs:     payload.TotalDocs,
		IndexedTerms:  payload.IndexedTerms,
		ExcludedTerms: payload.ExcludedTerms,
		Scored:        payload.Scored,
		Docs:          payload.Docs,
		Terms:         make(map[string]*index.TermEntry, len(payload.Terms)),
	}
	for lemma, ft := range payload.Terms {
		e := &index.TermEntry{
			Lemma:              lemma,
			DocumentFrequency:  ft.TDC,
			TotalTermFrequency: ft.TWC,
			Postings:           make(map[string]*index.Posting, len(ft.IL)),
		}
		for doc, fp := range ft.IL {
			e.Postings[doc] = &index.Posting{TermFrequency: fp.TF, Positions: fp.Pos, TFIDF: fp.TFIDF}
		}
		snap.Terms[lemma] = e
	}
	ix, err := index.FromSnapshot(snap)
	if err != nil {
		return nil, h, fmt.Errorf("%w: %w", apperrors.ErrCorruptIndexFile, err)
	}
	return ix, h, nil
}

// ReadFile loads and validates the index stored at path.
func ReadFile(path string) (*index.Index, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// ReadHeader returns only the header of the file at path.
func ReadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, fmt.Errorf("opening index file: %w", err)
	}
	defer f.Close()
	b := make([]byte, HeaderSize)
	if _, err := io.ReadFull(f, b); err != nil {
		return Header{}, corrupt("reading header: %v", err)
	}
	return unmarshalHeader(b)
}
