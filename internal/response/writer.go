package response

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Brownie44l1/fileserver/internal/headers"
)

const (
	// Protocol is the version every response is framed as. There is no
	// Content-Length; the body ends when the connection closes.
	Protocol = "HTTP/1.0"

	ServerName = "FileServer 1.0"

	// TimeFormat is the HTTP-date layout used for the Date header.
	TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"
)

var (
	ErrStatusWritten     = errors.New("status line already written")
	ErrStatusNotWritten  = errors.New("must write status line before headers")
	ErrHeadersNotWritten = errors.New("must write headers before body")
)

// writerState tracks what's been written so far
type writerState int

const (
	stateStart writerState = iota
	stateStatusWritten
	stateHeadersWritten
	stateBodyWritten
)

// Writer writes one HTTP/1.0 response to an io.Writer
type Writer struct {
	w          io.Writer
	state      writerState
	statusCode StatusCode
	bodyBytes  int64
	hadError   bool

	host string // local host and port, shown on error pages
	port int

	now func() time.Time
}

// NewWriter creates a new response writer
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:   w,
		now: time.Now,
	}
}

// SetServerAddress records the address the connection was accepted on.
func (w *Writer) SetServerAddress(host string, port int) {
	w.host = host
	w.port = port
}

// WriteStatusLine writes the HTTP status line
func (w *Writer) WriteStatusLine(code StatusCode) error {
	if w.state != stateStart {
		return ErrStatusWritten
	}

	w.statusCode = code
	_, err := fmt.Fprintf(w.w, "%s %d %s\r\n", Protocol, code, StatusText(code))
	if err != nil {
		w.hadError = true
		return err
	}

	w.state = stateStatusWritten
	return nil
}

// WriteHeaders writes all header fields in order followed by the blank line.
// A nil h writes just the blank line.
func (w *Writer) WriteHeaders(h *headers.Headers) error {
	if w.state != stateStatusWritten {
		return ErrStatusNotWritten
	}

	if h != nil {
		if _, err := h.WriteTo(w.w); err != nil {
			w.hadError = true
			return err
		}
	}

	if _, err := io.WriteString(w.w, "\r\n"); err != nil {
		w.hadError = true
		return err
	}

	w.state = stateHeadersWritten
	return nil
}

// WriteBody writes part of the body. It may be called repeatedly.
func (w *Writer) WriteBody(data []byte) error {
	if w.state != stateHeadersWritten && w.state != stateBodyWritten {
		return ErrHeadersNotWritten
	}

	n, err := w.w.Write(data)
	w.bodyBytes += int64(n)
	if err != nil {
		w.hadError = true
		return err
	}

	w.state = stateBodyWritten
	return nil
}

// WriteBodyFrom copies r to the body in chunks of len(buf) bytes, so memory
// use does not depend on the size of r.
func (w *Writer) WriteBodyFrom(r io.Reader, buf []byte) (int64, error) {
	if w.state != stateHeadersWritten && w.state != stateBodyWritten {
		return 0, ErrHeadersNotWritten
	}
	if len(buf) == 0 {
		return 0, errors.New("empty copy buffer")
	}

	var written int64
	for {
		n, rerr := r.Read(buf)
		if n > 0 {
			if err := w.WriteBody(buf[:n]); err != nil {
				return written, fmt.Errorf("write body: %w", err)
			}
			written += int64(n)
		}
		if rerr == io.EOF {
			w.state = stateBodyWritten
			return written, nil
		}
		if rerr != nil {
			w.hadError = true
			return written, fmt.Errorf("read body: %w", rerr)
		}
	}
}

// State tracking methods, used for logging and metrics

func (w *Writer) HadError() bool {
	return w.hadError
}

// StatusCode returns the status written, or 0 if none was.
func (w *Writer) StatusCode() StatusCode {
	return w.statusCode
}

func (w *Writer) BodyBytes() int64 {
	return w.bodyBytes
}

// Started reports whether anything has been written.
func (w *Writer) Started() bool {
	return w.state != stateStart
}
