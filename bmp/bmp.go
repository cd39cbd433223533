// Package bmp reads Windows bitmap files: the 54 byte file and info headers
// and the pixel array they describe.
package bmp

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// HeaderSize is the size of BITMAPFILEHEADER plus BITMAPINFOHEADER.
const HeaderSize = 54

// Signature is "BM" read as a little-endian uint16.
const Signature uint16 = 0x4D42

// MaxPixelBytes bounds the pixel array PixelData will allocate.
const MaxPixelBytes int64 = 256 << 20

// Compression methods with an uncompressed pixel array.
const (
	CompressionRGB       uint32 = 0
	CompressionBitfields uint32 = 3
)

var (
	ErrNotBMP      = errors.New("not a BMP file")
	ErrNoHeader    = errors.New("BMP header not found")
	ErrTruncated   = errors.New("BMP data truncated")
	ErrUnsupported = errors.New("unsupported BMP layout")
)

// Header holds both headers exactly as stored in the file.
type Header struct {
	Type          uint16 `json:"bfType"`
	Size          uint32 `json:"bfSize"`
	Reserved1     uint16 `json:"bfReserved1"`
	Reserved2     uint16 `json:"bfReserved2"`
	OffBits       uint32 `json:"bfOffBits"`
	InfoSize      uint32 `json:"biSize"`
	Width         int32  `json:"biWidth"`
	Height        int32  `json:"biHeight"`
	Planes        uint16 `json:"biPlanes"`
	BitCount      uint16 `json:"biBitCount"`
	Compression   uint32 `json:"biCompression"`
	SizeImage     uint32 `json:"biSizeImage"`
	XPelsPerMeter int32  `json:"biXPelsPerMeter"`
	YPelsPerMeter int32  `json:"biYPelsPerMeter"`
	ClrUsed       uint32 `json:"biClrUsed"`
	ClrImportant  uint32 `json:"biClrImportant"`
}

// RowSize is the stored length of one pixel row, padded to 4 bytes.
func (h Header) RowSize() int64 {
	return ((int64(h.BitCount)*int64(h.Width) + 31) / 32) * 4
}

// Rows is the number of pixel rows. A negative height marks a top-down image.
func (h Header) Rows() int64 {
	if h.Height < 0 {
		return -int64(h.Height)
	}
	return int64(h.Height)
}

// BottomUp reports whether the first stored row is the bottom of the image.
func (h Header) BottomUp() bool {
	return h.Height > 0
}

// File is a bitmap backed by an io.ReaderAt. The header is read by Open.
type File struct {
	r      io.ReaderAt
	header *Header
}

// New wraps r without reading anything.
func New(r io.ReaderAt) *File {
	return &File{r: r}
}

// Open creates a File and reads its header.
func Open(r io.ReaderAt) (*File, error) {
	f := New(r)
	if err := f.Open(); err != nil {
		return nil, err
	}
	return f, nil
}

// Open reads and checks the headers. The signature is checked before the
// rest of the header, so a short non-bitmap input reports ErrNotBMP.
func (f *File) Open() error {
	buf := make([]byte, HeaderSize)
	n, err := f.r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("read header: %w", err)
	}
	if n >= 2 && binary.LittleEndian.Uint16(buf) != Signature {
		return ErrNotBMP
	}
	if n < HeaderSize {
		return fmt.Errorf("%w: header is %d of %d bytes", ErrTruncated, n, HeaderSize)
	}

	var h Header
	if err := binary.Read(bytes.NewReader(buf), binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("decode header: %w", err)
	}
	f.header = &h
	return nil
}

// Header returns the header read by Open.
func (f *File) Header() (Header, bool) {
	if f.header == nil {
		return Header{}, false
	}
	return *f.header, true
}

// PixelData reads the pixel array starting at OffBits and returns it top row
// first. Row padding is kept, so row y starts at y*RowSize().
func (f *File) PixelData() ([]byte, error) {
	h, ok := f.Header()
	if !ok {
		return nil, ErrNoHeader
	}
	if h.Width <= 0 || h.BitCount == 0 {
		return nil, fmt.Errorf("%w: width %d, bit count %d", ErrUnsupported, h.Width, h.BitCount)
	}
	if h.Compression != CompressionRGB && h.Compression != CompressionBitfields {
		return nil, fmt.Errorf("%w: compression %d", ErrUnsupported, h.Compression)
	}

	rowSize, rows := h.RowSize(), h.Rows()
	size := rowSize * rows
	if size > MaxPixelBytes {
		return nil, fmt.Errorf("%w: %d bytes of pixels", ErrUnsupported, size)
	}
	if sized, ok := f.r.(interface{ Size() int64 }); ok && int64(h.OffBits)+size > sized.Size() {
		return nil, fmt.Errorf("%w: need %d bytes from offset %d", ErrTruncated, size, h.OffBits)
	}

	data := make([]byte, size)
	n, err := f.r.ReadAt(data, int64(h.OffBits))
	if int64(n) < size {
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read pixels: %w", err)
		}
		return nil, fmt.Errorf("%w: read %d of %d pixel bytes", ErrTruncated, n, size)
	}
	if !h.BottomUp() {
		return data, nil
	}

	flipped := make([]byte, size)
	for y := range rows {
		src := y * rowSize
		dst := (rows - 1 - y) * rowSize
		copy(flipped[dst:dst+rowSize], data[src:src+rowSize])
	}
	return flipped, nil
}

// RGB returns the color of pixel x in a row of a 24 or 32 bit image.
// Pixels are stored blue first.
func RGB(row []byte, bitCount uint16, x int) (r, g, b uint8, err error) {
	if bitCount != 24 && bitCount != 32 {
		return 0, 0, 0, fmt.Errorf("%w: %d bits per pixel", ErrUnsupported, bitCount)
	}
	step := int(bitCount) / 8
	i := x * step
	if x < 0 || i+3 > len(row) {
		return 0, 0, 0, fmt.Errorf("%w: pixel %d", ErrTruncated, x)
	}
	return row[i+2], row[i+1], row[i], nil
}
