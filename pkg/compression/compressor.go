// Package compression compresses formatted outputs before they are written to
// object storage.
//
// # Overview
//
// The compression package provides:
//   - Gzip, Zstd, LZ4 and Snappy codecs behind one Compressor interface
//   - Configurable levels (Fastest, Default, Best)
//   - The file extension and Content-Encoding each codec writes with
//
// # Basic Usage
//
//	comp, err := compression.NewCompressor(compression.Config{
//	    Algorithm: compression.Zstd,
//	    Level:     compression.Default,
//	})
//	compressed, err := comp.Compress(payload)
//	key := "results/orders/id_not_null.json" + comp.Extension()
//
// Every compressor is safe for concurrent use.
package compression

import (
	"bytes"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/ajitpratap0/penguin/pkg/errors"
)

// Algorithm names a compression codec.
type Algorithm string

const (
	// None leaves payloads untouched
	None Algorithm = "none"
	// Gzip represents gzip compression
	Gzip Algorithm = "gzip"
	// Zstd represents zstandard compression
	Zstd Algorithm = "zstd"
	// LZ4 represents lz4 frame compression
	LZ4 Algorithm = "lz4"
	// Snappy represents snappy block compression
	Snappy Algorithm = "snappy"
)

// Level trades speed for ratio.
type Level int

const (
	// Fastest prioritizes speed over compression ratio.
	Fastest Level = 1
	// Default balances speed and compression.
	Default Level = 5
	// Best maximizes compression ratio.
	Best Level = 9
)

// Compressor compresses and decompresses whole payloads.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
	Algorithm() Algorithm
	// Extension is the file suffix for compressed objects, including the dot. Empty for None.
	Extension() string
	// ContentEncoding is the HTTP Content-Encoding value, empty when there is none.
	ContentEncoding() string
}

// Config selects a codec.
type Config struct {
	Algorithm Algorithm `mapstructure:"algorithm" yaml:"algorithm" validate:"omitempty,oneof=none gzip zstd lz4 snappy"`
	Level     Level     `mapstructure:"level" yaml:"level,omitempty"`
}

// NewCompressor creates the compressor described by config. An empty algorithm means None.
func NewCompressor(config Config) (Compressor, error) {
	if config.Level == 0 {
		config.Level = Default
	}

	switch config.Algorithm {
	case None, "":
		return noneCompressor{}, nil
	case Gzip:
		return newGzipCompressor(config.Level), nil
	case Zstd:
		return newZstdCompressor(config.Level)
	case LZ4:
		return &lz4Compressor{level: mapLZ4Level(config.Level)}, nil
	case Snappy:
		return snappyCompressor{}, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeConfig, "unsupported compression algorithm: %s", config.Algorithm)
	}
}

type noneCompressor struct{}

func (noneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }
func (noneCompressor) Algorithm() Algorithm                   { return None }
func (noneCompressor) Extension() string                      { return "" }
func (noneCompressor) ContentEncoding() string                { return "" }

// Gzip compressor
type gzipCompressor struct {
	writerPool sync.Pool
}

func newGzipCompressor(level Level) *gzipCompressor {
	gzLevel := mapGzipLevel(level)
	gc := &gzipCompressor{}
	gc.writerPool.New = func() interface{} {
		w, _ := gzip.NewWriterLevel(nil, gzLevel)
		return w
	}
	return gc
}

func (gc *gzipCompressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gc.writerPool.Get().(*gzip.Writer)
	defer gc.writerPool.Put(w)

	w.Reset(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "gzip compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "gzip compress")
	}
	return buf.Bytes(), nil
}

func (gc *gzipCompressor) Decompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "gzip decompress")
	}
	defer r.Close()
	return readAll(r, "gzip")
}

func (gc *gzipCompressor) Algorithm() Algorithm    { return Gzip }
func (gc *gzipCompressor) Extension() string       { return ".gz" }
func (gc *gzipCompressor) ContentEncoding() string { return "gzip" }

// Zstd compressor
type zstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func newZstdCompressor(level Level) (*zstdCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(mapZstdLevel(level)))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "create zstd encoder")
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "create zstd decoder")
	}
	return &zstdCompressor{encoder: enc, decoder: dec}, nil
}

// EncodeAll and DecodeAll are safe for concurrent use on a shared encoder/decoder.
func (zc *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return zc.encoder.EncodeAll(data, nil), nil
}

func (zc *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := zc.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "zstd decompress")
	}
	return out, nil
}

func (zc *zstdCompressor) Algorithm() Algorithm    { return Zstd }
func (zc *zstdCompressor) Extension() string       { return ".zst" }
func (zc *zstdCompressor) ContentEncoding() string { return "zstd" }

// LZ4 compressor
type lz4Compressor struct {
	level lz4.CompressionLevel
}

func (lc *lz4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := lz4.NewWriter(&buf)
	if err := w.Apply(lz4.CompressionLevelOption(lc.level)); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "lz4 level")
	}
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "lz4 compress")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "lz4 compress")
	}
	return buf.Bytes(), nil
}

func (lc *lz4Compressor) Decompress(data []byte) ([]byte, error) {
	return readAll(lz4.NewReader(bytes.NewReader(data)), "lz4")
}

func (lc *lz4Compressor) Algorithm() Algorithm    { return LZ4 }
func (lc *lz4Compressor) Extension() string       { return ".lz4" }
func (lc *lz4Compressor) ContentEncoding() string { return "" }

// Snappy compressor
type snappyCompressor struct{}

func (snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCompressor) Decompress(data []byte) ([]byte, error) {
	out, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "snappy decompress")
	}
	return out, nil
}

func (snappyCompressor) Algorithm() Algorithm    { return Snappy }
func (snappyCompressor) Extension() string       { return ".snappy" }
func (snappyCompressor) ContentEncoding() string { return "" }

func readAll(r io.Reader, codec string) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil { //nolint:gosec // payloads are our own formatted outputs
		return nil, errors.Wrap(err, errors.ErrorTypeData, codec+" decompress")
	}
	return buf.Bytes(), nil
}

func mapGzipLevel(level Level) int {
	switch level {
	case Fastest:
		return gzip.BestSpeed
	case Best:
		return gzip.BestCompression
	default:
		return gzip.DefaultCompression
	}
}

func mapLZ4Level(level Level) lz4.CompressionLevel {
	switch level {
	case Fastest:
		return lz4.Fast
	case Best:
		return lz4.Level9
	default:
		return lz4.Level5
	}
}

func mapZstdLevel(level Level) zstd.EncoderLevel {
	switch level {
	case Fastest:
		return zstd.SpeedFastest
	case Best:
		return zstd.SpeedBestCompression
	default:
		return zstd.SpeedDefault
	}
}
