// Package compress implements the Compression Transport: once
// capability negotiation picks an algorithm, every subsequent frame is
// wrapped in a CLIENT/SERVER_COMPRESSION envelope (xmessage.Compression)
// whose payload is the chosen codec's compressed bytes, grounded on
// xcl::Compression_impl's uplink/downlink codec selection.
package compress

import (
	"bytes"
	"compress/flate"
	"fmt"
	"io"

	"github.com/pierrec/lz4/v4"
)

// Algorithm names the codec negotiated for the compressed transport,
// matching the lowercase names exchanged in the "compression"
// capability's "algorithm" field.
type Algorithm string

const (
	None    Algorithm = ""
	Deflate Algorithm = "deflate_stream"
	LZ4     Algorithm = "lz4_message"
)

// Style controls how compressed frames are grouped on the wire,
// mirroring xcl::Compression_style.
type Style int

const (
	StyleNone Style = iota
	StyleSingle
	StyleMultiple
	StyleGroup
)

// NewWriter returns a WriteCloser that compresses everything written
// to it with algorithm; Close must be called to flush the codec's
// trailing bytes before the compressed payload is considered complete.
func NewWriter(algorithm Algorithm, w io.Writer) (io.WriteCloser, error) {
	switch algorithm {
	case Deflate:
		return flate.NewWriter(w, flate.DefaultCompression)
	case LZ4:
		lw := lz4.NewWriter(w)
		return lw, nil
	}
	return nil, fmt.Errorf("compress: unsupported algorithm %q", algorithm)
}

// NewReader returns a Reader that decompresses data encoded with algorithm.
func NewReader(algorithm Algorithm, r io.Reader) (io.Reader, error) {
	switch algorithm {
	case Deflate:
		return flate.NewReader(r), nil
	case LZ4:
		return lz4.NewReader(r), nil
	}
	return nil, fmt.Errorf("compress: unsupported algorithm %q", algorithm)
}

// CompressPayload compresses data in one shot with algorithm, used for
// the StyleSingle case where one inner frame maps to one Compression
// envelope.
func CompressPayload(algorithm Algorithm, data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(algorithm, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("compress: write: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("compress: close: %w", err)
	}
	return buf.Bytes(), nil
}

// DecompressPayload decompresses data produced by CompressPayload,
// given the original uncompressed size (used as a sanity bound, not a
// strict requirement, since some codecs round-trip a different exact
// length due to padding).
func DecompressPayload(algorithm Algorithm, data []byte, uncompressedSize uint64) ([]byte, error) {
	r, err := NewReader(algorithm, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	out, err := io.ReadAll(io.LimitReader(r, int64(uncompressedSize)+1))
	if err != nil {
		return nil, fmt.Errorf("compress: read: %w", err)
	}
	if rc, ok := r.(io.Closer); ok {
		_ = rc.Close()
	}
	return out, nil
}
