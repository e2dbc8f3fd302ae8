package obfuscate

import (
	"io"
	"sync"
)

const poolBufferSize = 64 * 1024

// bufferPool holds scratch buffers for encoding writers.
var bufferPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, poolBufferSize)
		return &buf
	},
}

// Reader decodes bytes pulled from an underlying source. Errors from the
// source pass through untouched; the cursor advances only by the bytes
// actually read.
type Reader struct {
	reader    io.Reader
	transform *Transform
}

// NewReader wraps r so that every byte read is fed through the transform.
func NewReader(r io.Reader, t *Transform) *Reader {
	return &Reader{reader: r, transform: t}
}

func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.transform.Apply(p[:n])
	}
	return n, err
}

// Writer encodes bytes before forwarding them to an underlying sink. The
// caller's buffer is never modified; encoding happens in a pooled scratch
// buffer. On a short write the cursor is rewound to cover only the accepted
// bytes, so a retry resumes the key stream instead of restarting it.
type Writer struct {
	writer    io.Writer
	transform *Transform
}

// NewWriter wraps w so that every byte written is fed through the transform.
func NewWriter(w io.Writer, t *Transform) *Writer {
	return &Writer{writer: w, transform: t}
}

func (w *Writer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	var encoded []byte
	if len(p) <= poolBufferSize {
		bufPtr := bufferPool.Get().(*[]byte)
		defer bufferPool.Put(bufPtr)
		encoded = (*bufPtr)[:len(p)]
	} else {
		encoded = make([]byte, len(p))
	}
	copy(encoded, p)

	start := w.transform.Position()
	w.transform.Apply(encoded)

	n, err := w.writer.Write(encoded)
	if n < len(p) {
		// Keep the cursor in step with the sink: only accepted bytes count.
		w.transform.SetPosition(start + int64(n))
	}
	return n, err
}

// Close closes the underlying sink if it is an io.Closer.
func (w *Writer) Close() error {
	if c, ok := w.writer.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
