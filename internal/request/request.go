package request

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Size limits
const (
	maxRequestLineSize = 8192    // 8KB for request line
	maxHeaderSize      = 1 << 20 // 1MB of drained header lines
	maxHeaderLines     = 1000
)

var (
	// ErrNoRequest means the peer closed the connection before sending a
	// request line. It is not a protocol error; the caller just hangs up.
	ErrNoRequest = errors.New("no request received")

	ErrHeaderTooLarge = errors.New("headers too large")
	ErrTooManyHeaders = errors.New("too many header lines")
)

// Request is the parsed request line. Header lines are consumed but not kept.
type Request struct {
	Method  string
	Target  string
	Version string
	Line    string // raw request line, for logging
}

// IsMalformed reports whether err from Parse should be answered with
// 400 Bad Request rather than dropped.
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedRequestLine) ||
		errors.Is(err, ErrRequestLineTooLarge) ||
		errors.Is(err, ErrHeaderTooLarge) ||
		errors.Is(err, ErrTooManyHeaders)
}

// Parse reads the request line from r and then drains header lines up to the
// blank line (or EOF). The headers have to leave the socket before the
// response goes out even though none of them are consulted.
//
// On a malformed request line the headers are still drained and the error
// is ErrMalformedRequestLine.
func Parse(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r, maxRequestLineSize)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRequest
		}
		if errors.Is(err, errLineTooLong) {
			return nil, ErrRequestLineTooLarge
		}
		return nil, fmt.Errorf("read request line: %w", err)
	}

	req, parseErr := parseRequestLine(line)

	if err := drainHeaders(r); err != nil {
		return nil, err
	}
	if parseErr != nil {
		return nil, parseErr
	}
	return req, nil
}

// drainHeaders discards header lines until an empty line or end of stream.
func drainHeaders(r *bufio.Reader) error {
	budget := maxHeaderSize
	for lines := 0; ; {
		line, err := readLine(r, budget)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			if errors.Is(err, errLineTooLong) {
				return ErrHeaderTooLarge
			}
			return fmt.Errorf("read header line: %w", err)
		}
		if line == "" {
			return nil
		}

		lines++
		if lines > maxHeaderLines {
			return ErrTooManyHeaders
		}
		budget = max(budget-len(line), 0)
	}
}

var errLineTooLong = errors.New("line too long")

// readLine returns the next line without its LF or CRLF terminator. A final
// line with no terminator is returned as is; io.EOF is only reported when
// nothing at all was read.
func readLine(r *bufio.Reader, limit int) (string, error) {
	var line []byte
	for {
		frag, err := r.ReadSlice('\n')
		if len(line)+len(frag) > limit+2 {
			return "", errLineTooLong
		}
		line = append(line, frag...)

		if err == bufio.ErrBufferFull {
			continue
		}
		if err != nil {
			if errors.Is(err, io.EOF) && len(line) > 0 {
				return trimEOL(line), nil
			}
			return "", err
		}
		return trimEOL(line), nil
	}
}

func trimEOL(b []byte) string {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
	}
	if n > 0 && b[n-1] == '\r' {
		n--
	}
	return string(b[:n])
}
