// Package stream implements the Framing Streams layer: a thin
// buffering wrapper around the Byte Connection that the Protocol
// Engine reads frames through and the Compression Transport can
// transparently splice itself into. It is grounded on
// xcl::Connection_input_stream/Connection_output_stream, reworked from
// their protobuf ZeroCopyStream contract into plain io.Reader/io.Writer
// since this module hand-rolls message encoding instead of using
// generated CodedInputStream/CodedOutputStream.
package stream

import (
	"bufio"
	"io"
)

const bufferSize = 4096

// Reader reads frame bytes off an underlying connection with an
// explicit per-call read budget, mirroring AllowedRead: the Protocol
// Engine tells it exactly how many bytes the next read may consume
// (header, then payload) so a short or malformed frame can't make it
// read into the next message's bytes.
type Reader struct {
	br *bufio.Reader
}

// NewReader wraps r in a buffered Reader.
func NewReader(r io.Reader) *Reader {
	return &Reader{br: bufio.NewReaderSize(r, bufferSize)}
}

// ReadFull reads exactly len(buf) bytes, the budgeted read AllowedRead
// enables in the original.
func (r *Reader) ReadFull(buf []byte) error {
	_, err := io.ReadFull(r.br, buf)
	return err
}

// Underlying exposes the buffered reader for callers (e.g. wire.ReadFrame)
// that want io.Reader directly.
func (r *Reader) Underlying() io.Reader { return r.br }

// Writer batches small writes before flushing to the connection,
// mirroring Connection_output_stream's fixed internal buffer.
type Writer struct {
	bw *bufio.Writer
}

// NewWriter wraps w in a buffered Writer.
func NewWriter(w io.Writer) *Writer {
	return &Writer{bw: bufio.NewWriterSize(w, bufferSize)}
}

// Write implements io.Writer, buffering until Flush.
func (w *Writer) Write(p []byte) (int, error) {
	return w.bw.Write(p)
}

// Flush pushes any buffered bytes to the underlying connection. The
// Protocol Engine calls this once per outgoing message, the same point
// Connection_output_stream's destructor would have flushed at.
func (w *Writer) Flush() error {
	return w.bw.Flush()
}

// Underlying exposes the buffered writer for callers that want
// io.Writer directly.
func (w *Writer) Underlying() io.Writer { return w.bw }
