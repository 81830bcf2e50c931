// Package segment persists a scored index as a single .lidx file:
//
//	[64-byte header][payload][8-byte footer]
//
// The payload is JSON, optionally zstd-compressed. The footer carries the
// crc32 of the stored payload and repeats the magic bytes.
package segment

import (
	"encoding/binary"
	"fmt"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/lemma-search/pkg/errors"
)

const (
	FormatVersion uint32 = 1
	HeaderSize           = 64
	FooterSize           = 8

	// FlagZstd marks a zstd-compressed payload.
	FlagZstd uint32 = 1 << 0
)

// Magic identifies a .lidx file.
var Magic = [4]byte{'L', 'I', 'D', 'X'}

// Header is the fixed-size preamble of an index file.
type Header struct {
	Version     uint32
	Flags       uint32
	TermCount   uint32
	DocCount    uint32
	CreatedAt   time.Time
	PayloadSize uint64
}

func (h Header) Compressed() bool { return h.Flags&FlagZstd != 0 }

func (h Header) marshal() []byte {
	b := make([]byte, HeaderSize)
	copy(b[0:4], Magic[:])
	binary.LittleEndian.PutUint32(b[4:8], h.Version)
	binary.LittleEndian.PutUint32(b[8:12], h.Flags)
	binary.LittleEndian.PutUint32(b[12:16], h.TermCount)
	binary.LittleEndian.PutUint32(b[16:20], h.DocCount)
	binary.LittleEndian.PutUint64(b[24:32], uint64(h.CreatedAt.UnixNano()))
	binary.LittleEndian.PutUint64(b[32:40], h.PayloadSize)
	return b
}

func unmarshalHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, corrupt("short header: %d bytes", len(b))
	}
	if [4]byte(b[0:4]) != Magic {
		return Header{}, corrupt("bad magic %q", b[0:4])
	}
	h := Header{
		Version:     binary.LittleEndian.Uint32(b[4:8]),
		Flags:       binary.LittleEndian.Uint32(b[8:12]),
		TermCount:   binary.LittleEndian.Uint32(b[12:16]),
		DocCount:    binary.LittleEndian.Uint32(b[16:20]),
		CreatedAt:   time.Unix(0, int64(binary.LittleEndian.Uint64(b[24:32]))).UTC(),
		PayloadSize: binary.LittleEndian.Uint64(b[32:40]),
	}
	if h.Version != FormatVersion {
		return Header{}, corrupt("unsupported format version %d", h.Version)
	}
	if h.Flags&^FlagZstd != 0 {
		return Header{}, corrupt("unknown flags %#x", h.Flags)
	}
	return h, nil
}

func corrupt(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperrors.ErrCorruptIndexFile, fmt.Sprintf(format, args...))
}

// filePosting and fileTerm keep the compact keys of the original JSON
// inverted file: tdc/twc/il per lemma.
type filePosting struct {
	TF    int     `json:"tf"`
	Pos   []int   `json:"pos"`
	TFIDF float64 `json:"tfidf"`
}

type fileTerm struct {
	TDC int                    `json:"tdc"`
	TWC int                    `json:"twc"`
	IL  map[string]filePosting `json:"il"`
}

type filePayload struct {
	TotalDocs     int                 `json:"total_docs"`
	IndexedTerms  int                 `json:"indexed_terms"`
	ExcludedTerms int                 `json:"excluded_terms"`
	Scored        bool                `json:"scored"`
	Docs          []string            `json:"docs"`
	Terms         map[string]fileTerm `json:"terms"`
}
