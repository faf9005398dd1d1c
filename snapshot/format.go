package snapshot

import (
	"errors"
	"hash/fnv"

	anim "github.com/yt-zgl/oryol-animation"
)

const (
	// MagicNumber identifies key snapshot files (ASCII: "OKS0").
	MagicNumber = 0x4F4B5330
	// FormatVersion is the current container version (v1.0.0).
	FormatVersion = 0x00010000

	headerSize = 64
)

var (
	ErrInvalidMagic     = errors.New("snapshot: invalid magic number")
	ErrInvalidVersion   = errors.New("snapshot: unsupported version")
	ErrChecksumMismatch = errors.New("snapshot: payload checksum mismatch")
	ErrLayoutMismatch   = errors.New("snapshot: curve layout does not match library")
	ErrKeyCountMismatch = errors.New("snapshot: key count does not match library")
)

// Compression selects the payload encoding.
type Compression uint8

const (
	// CompressionNone stores the key floats raw.
	CompressionNone Compression = 0
	// CompressionLZ4 block-compresses with LZ4 (fast, modest ratio).
	CompressionLZ4 Compression = 1
	// CompressionZSTD block-compresses with zstd (default, better ratio).
	CompressionZSTD Compression = 2
)

// Header is the fixed 64-byte header at the start of every snapshot.
type Header struct {
	Magic        uint32
	Version      uint32
	Compression  Compression
	KeyCount     uint64 // floats in the decoded key buffer
	SampleStride uint32
	LayoutHash   uint64 // LayoutHash of the library's curve layout
	PayloadSize  uint64 // stored payload bytes following the header
	Checksum     uint32 // CRC32 (IEEE) of the stored payload
}

// LayoutHash fingerprints a curve layout. Snapshots written for one
// layout refuse to load into a library with another.
func LayoutHash(layout []anim.CurveFormat) uint64 {
	h := fnv.New64a()
	for _, format := range layout {
		h.Write([]byte{byte(format)})
	}
	return h.Sum64()
}
