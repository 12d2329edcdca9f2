package persistence

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
)

// Writer writes snapshot sections in little-endian binary format.
type Writer struct {
	w io.Writer
	n int64
}

// NewWriter creates a new binary snapshot writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// BytesWritten returns the number of bytes written so far.
func (bw *Writer) BytesWritten() int64 { return bw.n }

// WriteHeader writes the snapshot header, stamping magic and version.
func (bw *Writer) WriteHeader(h *Header) error {
	h.Magic = MagicNumber
	h.Version = Version
	if err := binary.Write(bw.w, binary.LittleEndian, h); err != nil {
		return err
	}
	bw.n += int64(binary.Size(h))
	return nil
}

func (bw *Writer) write(p []byte) error {
	n, err := bw.w.Write(p)
	bw.n += int64(n)
	return err
}

// WriteUint64 writes a single uint64.
func (bw *Writer) WriteUint64(v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	return bw.write(buf[:])
}

// WriteInt64Slice writes the length and contents of an int64 slice.
func (bw *Writer) WriteInt64Slice(s []int64) error {
	if err := bw.WriteUint64(uint64(len(s))); err != nil {
		return err
	}
	buf := make([]byte, 8*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
	}
	return bw.write(buf)
}

// WriteFloat32Slice writes the length and contents of a float32 slice.
func (bw *Writer) WriteFloat32Slice(s []float32) error {
	if err := bw.WriteUint64(uint64(len(s))); err != nil {
		return err
	}
	buf := make([]byte, 4*len(s))
	for i, v := range s {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return bw.write(buf)
}

// WriteString writes a length-prefixed string.
func (bw *Writer) WriteString(s string) error {
	if err := bw.WriteUint64(uint64(len(s))); err != nil {
		return err
	}
	return bw.write([]byte(s))
}

// Reader reads snapshot sections written by Writer.
type Reader struct {
	r io.Reader
}

// NewReader creates a new binary snapshot reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// ReadHeader reads and validates the snapshot header.
func (br *Reader) ReadHeader() (*Header, error) {
	var h Header
	if err := binary.Read(br.r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if h.Magic != MagicNumber {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic)
	}
	if h.Version != Version {
		return nil, fmt.Errorf("%w: got 0x%08x", ErrInvalidVersion, h.Version)
	}
	return &h, nil
}

// ReadUint64 reads a single uint64.
func (br *Reader) ReadUint64() (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(br.r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

// ReadInt64Slice reads a length-prefixed int64 slice.
func (br *Reader) ReadInt64Slice() ([]int64, error) {
	n, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, 8*n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return nil, err
	}
	s := make([]int64, n)
	for i := range s {
		s[i] = int64(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return s, nil
}

// ReadFloat32Slice reads a length-prefixed float32 slice.
func (br *Reader) ReadFloat32Slice() ([]float32, error) {
	n, err := br.ReadUint64()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, 4*n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return nil, err
	}
	s := make([]float32, n)
	for i := range s {
		s[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return s, nil
}

// ReadString reads a length-prefixed string.
func (br *Reader) ReadString() (string, error) {
	n, err := br.ReadUint64()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(br.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// SaveToFile writes a snapshot atomically: it writes to a temporary file in
// the target directory and renames it into place.
func SaveToFile(filename string, write func(w io.Writer) error) error {
	dir := filepath.Dir(filename)
	tmp, err := os.CreateTemp(dir, ".annidx-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), filename)
}

// LoadFromFile opens filename and hands the reader to load.
func LoadFromFile(filename string, load func(r io.Reader) error) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return load(f)
}
