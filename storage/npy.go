package storage

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"io/fs"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/poiesic/postsearch/core"
)

// FormatNPY names the NumPy encoding in configuration.
const FormatNPY = "npy"

var npyMagic = []byte("\x93NUMPY")

// Limits on values read from an npy header before any allocation.
const (
	maxNPYHeaderLen = 1 << 20
	maxNPYRows      = 1 << 24
	maxNPYDim       = 1 << 16
	npyRowPrealloc  = 4096
)

var (
	npyDescrRe   = regexp.MustCompile(`'descr':\s*'([^']*)'`)
	npyFortranRe = regexp.MustCompile(`'fortran_order':\s*(True|False)`)
	npyShapeRe   = regexp.MustCompile(`'shape':\s*\(([^)]*)\)`)
)

// NPYEncoder writes embeddings.npy in NumPy format version 1.0 as a
// little-endian float32 C-order array of shape (N, D). Decode also accepts
// float64 data and format version 2.0 headers.
type NPYEncoder struct{}

// Format implements Encoder.
func (NPYEncoder) Format() string { return FormatNPY }

// Filename implements Encoder.
func (NPYEncoder) Filename() string { return "embeddings.npy" }

// Encode implements Encoder.
func (NPYEncoder) Encode(w io.Writer, snap *core.Snapshot) error {
	rows := snap.Embeddings.Rows()
	dim := snap.Embeddings.Dim()

	header := fmt.Sprintf("{'descr': '<f4', 'fortran_order': False, 'shape': (%d, %d), }", rows, dim)
	// magic(6) + version(2) + header length(2) + header + '\n' must be a multiple of 64
	preamble := len(npyMagic) + 4
	total := preamble + len(header) + 1
	if rem := total % 64; rem != 0 {
		header += strings.Repeat(" ", 64-rem)
	}
	header += "\n"

	bw := bufio.NewWriter(w)
	bw.Write(npyMagic)
	bw.Write([]byte{1, 0})
	var hlen [2]byte
	binary.LittleEndian.PutUint16(hlen[:], uint16(len(header)))
	bw.Write(hlen[:])
	bw.WriteString(header)

	var buf [4]byte
	for _, row := range snap.Embeddings {
		for _, v := range row {
			binary.LittleEndian.PutUint32(buf[:], math.Float32bits(v))
			if _, err := bw.Write(buf[:]); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// Decode implements Encoder.
func (NPYEncoder) Decode(r io.Reader) (core.EmbeddingMatrix, error) {
	br := bufio.NewReader(r)

	preamble := make([]byte, len(npyMagic)+2)
	if _, err := io.ReadFull(br, preamble); err != nil {
		return nil, fmt.Errorf("%w: npy preamble: %w", ErrCorruptIndex, err)
	}
	if !bytes.Equal(preamble[:len(npyMagic)], npyMagic) {
		return nil, fmt.Errorf("%w: not an npy file", ErrCorruptIndex)
	}

	var headerLen, lenField int
	switch major := preamble[len(npyMagic)]; major {
	case 1:
		var b [2]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return nil, fmt.Errorf("%w: npy header length: %w", ErrCorruptIndex, err)
		}
		headerLen = int(binary.LittleEndian.Uint16(b[:]))
		lenField = len(b)
	case 2, 3:
		var b [4]byte
		if _, err := io.ReadFull(br, b[:]); err != nil {
			return nil, fmt.Errorf("%w: npy header length: %w", ErrCorruptIndex, err)
		}
		headerLen = int(binary.LittleEndian.Uint32(b[:]))
		lenField = len(b)
	default:
		return nil, fmt.Errorf("%w: unsupported npy version %d", ErrCorruptIndex, major)
	}

	if headerLen > maxNPYHeaderLen {
		return nil, fmt.Errorf("%w: npy header length %d exceeds %d", ErrCorruptIndex, headerLen, maxNPYHeaderLen)
	}
	header := make([]byte, headerLen)
	if _, err := io.ReadFull(br, header); err != nil {
		return nil, fmt.Errorf("%w: npy header: %w", ErrCorruptIndex, err)
	}

	descr, rows, dim, err := parseNPYHeader(string(header))
	if err != nil {
		return nil, err
	}

	var width int
	switch descr {
	case "<f4":
		width = 4
	case "<f8":
		width = 8
	default:
		return nil, fmt.Errorf("%w: unsupported npy dtype %q", ErrCorruptIndex, descr)
	}

	if rows > 0 && dim == 0 {
		return nil, fmt.Errorf("%w: npy shape (%d, 0) has no columns", ErrCorruptIndex, rows)
	}

	// Files report their size, so a shape larger than the data is caught
	// before reading any rows.
	if st, ok := r.(interface{ Stat() (fs.FileInfo, error) }); ok {
		if info, statErr := st.Stat(); statErr == nil && info.Mode().IsRegular() {
			remaining := info.Size() - int64(len(preamble)+lenField+headerLen)
			if need := int64(rows) * int64(dim) * int64(width); need > remaining {
				return nil, fmt.Errorf("%w: npy shape needs %d bytes, file has %d", ErrCorruptIndex, need, remaining)
			}
		}
	}

	matrix := make(core.EmbeddingMatrix, 0, min(rows, npyRowPrealloc))
	buf := make([]byte, dim*width)
	for i := 0; i < rows; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: npy data row %d: %w", ErrCorruptIndex, i, err)
		}
		row := make([]float32, dim)
		for j := range row {
			if width == 4 {
				row[j] = math.Float32frombits(binary.LittleEndian.Uint32(buf[j*4:]))
			} else {
				row[j] = float32(math.Float64frombits(binary.LittleEndian.Uint64(buf[j*8:])))
			}
		}
		matrix = append(matrix, row)
	}

	return matrix, nil
}

// parseNPYHeader extracts dtype and a 2-D shape from the header dict.
// A 1-D shape of (0,) is accepted as an empty matrix.
func parseNPYHeader(header string) (descr string, rows, dim int, err error) {
	m := npyDescrRe.FindStringSubmatch(header)
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: npy header has no descr", ErrCorruptIndex)
	}
	descr = m[1]

	if m := npyFortranRe.FindStringSubmatch(header); m != nil && m[1] == "True" {
		return "", 0, 0, fmt.Errorf("%w: fortran-ordered npy data is not supported", ErrCorruptIndex)
	}

	m = npyShapeRe.FindStringSubmatch(header)
	if m == nil {
		return "", 0, 0, fmt.Errorf("%w: npy header has no shape", ErrCorruptIndex)
	}

	var dims []int
	for _, part := range strings.Split(m[1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, convErr := strconv.Atoi(part)
		if convErr != nil || n < 0 {
			return "", 0, 0, fmt.Errorf("%w: bad npy shape %q", ErrCorruptIndex, m[1])
		}
		dims = append(dims, n)
	}

	switch {
	case len(dims) == 2:
		if dims[0] > maxNPYRows || dims[1] > maxNPYDim {
			return "", 0, 0, fmt.Errorf("%w: npy shape (%s) exceeds %d rows or %d columns", ErrCorruptIndex, m[1], maxNPYRows, maxNPYDim)
		}
		return descr, dims[0], dims[1], nil
	case len(dims) == 1 && dims[0] == 0:
		return descr, 0, 0, nil
	default:
		return "", 0, 0, fmt.Errorf("%w: expected a 2-D npy array, got shape (%s)", ErrCorruptIndex, m[1])
	}
}
