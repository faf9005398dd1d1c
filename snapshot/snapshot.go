// Package snapshot persists a library's key data as a small binary
// container: a fixed header followed by the key floats, optionally
// block-compressed. Snapshots travel through a blobstore.Store and are
// restored into the arena via Manager.WriteKeys, so a corrupt or
// mismatched snapshot never touches pool state.
package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"math"

	anim "github.com/yt-zgl/oryol-animation"
	"github.com/yt-zgl/oryol-animation/blobstore"
	"github.com/yt-zgl/oryol-animation/internal/resource"
	"github.com/yt-zgl/oryol-animation/model"
)

type options struct {
	compression Compression
	controller  *resource.Controller
}

// Option configures Save and Load.
type Option func(*options)

// WithCompression selects the payload encoding. Default is zstd.
func WithCompression(c Compression) Option {
	return func(o *options) { o.compression = c }
}

// WithController rate-limits store IO through a resource controller.
func WithController(c *resource.Controller) Option {
	return func(o *options) { o.controller = c }
}

func applyOptions(optFns []Option) options {
	o := options{compression: CompressionZSTD}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (h *Header) marshal() []byte {
	buf := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:], h.Version)
	buf[8] = byte(h.Compression)
	binary.LittleEndian.PutUint64(buf[12:], h.KeyCount)
	binary.LittleEndian.PutUint32(buf[20:], h.SampleStride)
	binary.LittleEndian.PutUint64(buf[24:], h.LayoutHash)
	binary.LittleEndian.PutUint64(buf[32:], h.PayloadSize)
	binary.LittleEndian.PutUint32(buf[40:], h.Checksum)
	return buf
}

func unmarshalHeader(buf []byte) Header {
	return Header{
		Magic:        binary.LittleEndian.Uint32(buf[0:]),
		Version:      binary.LittleEndian.Uint32(buf[4:]),
		Compression:  Compression(buf[8]),
		KeyCount:     binary.LittleEndian.Uint64(buf[12:]),
		SampleStride: binary.LittleEndian.Uint32(buf[20:]),
		LayoutHash:   binary.LittleEndian.Uint64(buf[24:]),
		PayloadSize:  binary.LittleEndian.Uint64(buf[32:]),
		Checksum:     binary.LittleEndian.Uint32(buf[40:]),
	}
}

// Write encodes one library's key floats into w.
func Write(w io.Writer, lib *anim.Library, keys []float32, optFns ...Option) error {
	o := applyOptions(optFns)

	raw := make([]byte, len(keys)*4)
	for i, v := range keys {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	payload, err := compressBlock(raw, o.compression)
	if err != nil {
		return fmt.Errorf("snapshot: compress: %w", err)
	}

	header := Header{
		Magic:        MagicNumber,
		Version:      FormatVersion,
		Compression:  o.compression,
		KeyCount:     uint64(len(keys)),
		SampleStride: uint32(lib.SampleStride),
		LayoutHash:   LayoutHash(lib.CurveLayout),
		PayloadSize:  uint64(len(payload)),
		Checksum:     crc32.ChecksumIEEE(payload),
	}
	if _, err := w.Write(header.marshal()); err != nil {
		return err
	}
	_, err = w.Write(payload)
	return err
}

// Read decodes a snapshot: header validation, checksum verification,
// decompression. It does not check the result against any library; see
// Restore.
func Read(r io.Reader) (Header, []float32, error) {
	headerBuf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return Header{}, nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	header := unmarshalHeader(headerBuf)
	if header.Magic != MagicNumber {
		return Header{}, nil, ErrInvalidMagic
	}
	if header.Version != FormatVersion {
		return Header{}, nil, ErrInvalidVersion
	}

	payload := make([]byte, header.PayloadSize)
	if _, err := io.ReadFull(r, payload); err != nil {
		return Header{}, nil, fmt.Errorf("snapshot: read payload: %w", err)
	}
	if crc32.ChecksumIEEE(payload) != header.Checksum {
		return Header{}, nil, ErrChecksumMismatch
	}

	raw, err := decompressBlock(payload, header.Compression)
	if err != nil {
		return Header{}, nil, err
	}
	if uint64(len(raw)) != header.KeyCount*4 {
		return Header{}, nil, ErrKeyCountMismatch
	}
	keys := make([]float32, header.KeyCount)
	for i := range keys {
		keys[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
	}
	return header, keys, nil
}

// Save snapshots a library's current key data into store under name.
func Save(ctx context.Context, store blobstore.Store, name string, m *anim.Manager, libID model.ID, optFns ...Option) error {
	o := applyOptions(optFns)
	data := m.LibraryData(libID)
	if data == nil {
		return fmt.Errorf("snapshot: unknown library %s", libID)
	}

	var buf bytes.Buffer
	if err := Write(&buf, data.Library, data.Keys, optFns...); err != nil {
		return err
	}
	if err := o.controller.AcquireIO(ctx, buf.Len()); err != nil {
		return err
	}
	return store.Put(ctx, name, buf.Bytes())
}

// Load reads and decodes the named snapshot from store.
func Load(ctx context.Context, store blobstore.Store, name string, optFns ...Option) (Header, []float32, error) {
	o := applyOptions(optFns)
	blob, err := store.Open(ctx, name)
	if err != nil {
		return Header{}, nil, err
	}
	if err := o.controller.AcquireIO(ctx, int(blob.Size())); err != nil {
		blob.Close()
		return Header{}, nil, err
	}
	data, err := blobstore.ReadAll(ctx, blob)
	if err != nil {
		return Header{}, nil, err
	}
	return Read(bytes.NewReader(data))
}

// Restore loads the named snapshot and writes its keys into the library.
// Layout hash and key count must match the library exactly; on any error
// the arena is untouched.
func Restore(ctx context.Context, store blobstore.Store, name string, m *anim.Manager, libID model.ID, optFns ...Option) error {
	lib := m.LookupLibrary(libID)
	if lib == nil {
		return fmt.Errorf("snapshot: unknown library %s", libID)
	}
	header, keys, err := Load(ctx, store, name, optFns...)
	if err != nil {
		return err
	}
	if header.LayoutHash != LayoutHash(lib.CurveLayout) {
		return ErrLayoutMismatch
	}
	if int(header.KeyCount) != lib.Keys.Len() {
		return ErrKeyCountMismatch
	}

	raw := make([]byte, len(keys)*4)
	for i, v := range keys {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(v))
	}
	return m.WriteKeys(libID, raw)
}
