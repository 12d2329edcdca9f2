// Package persistence provides the binary snapshot format shared by all index
// backends: a fixed self-describing header followed by an optionally
// compressed, backend-specific payload.
package persistence

import "errors"

const (
	// MagicNumber identifies annidx snapshot files (ASCII: "ANXI").
	MagicNumber = 0x414E5849
	// Version is the current file format version (v1.0.0).
	Version = 0x00010000
)

var (
	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported format version")
)

// Compression identifies the payload compression codec.
type Compression uint8

const (
	CompressionNone Compression = iota
	CompressionZstd
	CompressionLZ4
)

// String returns a string representation of the Compression codec.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	default:
		return "unknown"
	}
}

// Header is the 32-byte header at the start of every snapshot.
//
// It is deliberately self-describing: a reader recovers the backend kind,
// metric, dimension and compression codec from these bytes alone, with no
// external hints.
type Header struct {
	Magic       uint32
	Version     uint32
	BackendKind uint8
	Metric      uint8
	Compression uint8
	Trained     uint8
	Dimension   uint32
	NTotal      uint64
	Reserved    [8]byte
}
