package snapshot

import (
	"encoding/binary"
	"errors"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compressed payloads carry a small block header so incompressible data
// can fall back to raw storage without a separate format:
// [UncompressedSize uint32][CompressedSize uint32][Data...]
// CompressedSize == 0 means the data is stored uncompressed.
const blockHeaderSize = 8

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressBlock encodes data per the compression type. For None the data
// is returned as-is; otherwise a block with header is returned, stored
// raw when compression does not pay for itself.
func compressBlock(data []byte, compression Compression) ([]byte, error) {
	if compression == CompressionNone || len(data) == 0 {
		return data, nil
	}

	var compressed []byte
	switch compression {
	case CompressionLZ4:
		bound := lz4.CompressBlockBound(len(data))
		buf := make([]byte, bound)
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, err
		}
		compressed = buf[:n] // n == 0 means incompressible
	case CompressionZSTD:
		enc := getZstdEncoder()
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, errors.New("snapshot: unknown compression type")
	}

	if len(compressed) == 0 || len(compressed) >= len(data) {
		block := make([]byte, blockHeaderSize+len(data))
		binary.LittleEndian.PutUint32(block[0:], uint32(len(data)))
		binary.LittleEndian.PutUint32(block[4:], 0)
		copy(block[blockHeaderSize:], data)
		return block, nil
	}

	block := make([]byte, blockHeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(block[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(block[4:], uint32(len(compressed)))
	copy(block[blockHeaderSize:], compressed)
	return block, nil
}

// decompressBlock reverses compressBlock.
func decompressBlock(block []byte, compression Compression) ([]byte, error) {
	if compression == CompressionNone {
		return block, nil
	}
	if len(block) < blockHeaderSize {
		return nil, errors.New("snapshot: block too small for header")
	}
	uncompressedSize := binary.LittleEndian.Uint32(block[0:])
	compressedSize := binary.LittleEndian.Uint32(block[4:])

	if compressedSize == 0 {
		if uint32(len(block)-blockHeaderSize) < uncompressedSize {
			return nil, errors.New("snapshot: truncated raw block")
		}
		return block[blockHeaderSize : blockHeaderSize+uncompressedSize], nil
	}
	if uint32(len(block)-blockHeaderSize) < compressedSize {
		return nil, errors.New("snapshot: truncated compressed block")
	}
	payload := block[blockHeaderSize : blockHeaderSize+compressedSize]
	out := make([]byte, uncompressedSize)

	switch compression {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, err
		}
		if uint32(n) != uncompressedSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}
		return out, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		decoded, err := dec.DecodeAll(payload, out[:0])
		zstdDecoderPool.Put(dec)
		if err != nil {
			return nil, err
		}
		if uint32(len(decoded)) != uncompressedSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}
		return decoded, nil
	default:
		return nil, errors.New("snapshot: unknown compression type")
	}
}
