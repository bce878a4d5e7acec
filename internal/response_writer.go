package internal

import (
	"bufio"
	"net"
	"net/http"
	"sync/atomic"
)

// ResponseWriter records what a dispatch sent: whether the headers are out,
// the status code and the body size. The dispatcher checks Written before
// rendering an error page; the metrics middleware reads Status.
type ResponseWriter struct {
	http.ResponseWriter
	status  atomic.Int32
	size    atomic.Int64
	written atomic.Bool
}

// NewResponseWriter wraps w. The status reads 200 until something else is
// written.
func NewResponseWriter(w http.ResponseWriter) *ResponseWriter {
	rw := &ResponseWriter{ResponseWriter: w}
	rw.status.Store(http.StatusOK)
	return rw
}

// WriteHeader sends code once; later calls are dropped.
func (w *ResponseWriter) WriteHeader(code int) {
	if !w.written.CompareAndSwap(false, true) {
		return
	}
	w.status.Store(int32(code))
	w.ResponseWriter.WriteHeader(code)
}

// Write sends an implicit 200 before the first body bytes.
func (w *ResponseWriter) Write(b []byte) (int, error) {
	if w.written.CompareAndSwap(false, true) {
		w.ResponseWriter.WriteHeader(int(w.status.Load()))
	}
	n, err := w.ResponseWriter.Write(b)
	w.size.Add(int64(n))
	return n, err
}

// Status is the status code sent, or 200 when nothing was written.
func (w *ResponseWriter) Status() int { return int(w.status.Load()) }

// Size is the number of body bytes written.
func (w *ResponseWriter) Size() int64 { return w.size.Load() }

// Written reports whether the headers have been sent.
func (w *ResponseWriter) Written() bool { return w.written.Load() }

func (w *ResponseWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *ResponseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := w.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, http.ErrNotSupported
}

// Unwrap exposes the wrapped writer to http.ResponseController.
func (w *ResponseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
