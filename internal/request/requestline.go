package request

import (
	"errors"
	"strings"
)

const (
	MethodGet = "GET"

	Version10 = "HTTP/1.0"
	Version11 = "HTTP/1.1"

	// "GET / HTTP/1.0" is the shortest line that can be served.
	minRequestLineLen = 14
)

var (
	ErrMalformedRequestLine = errors.New("malformed request line")
	ErrRequestLineTooLarge  = errors.New("request line too large")
)

// parseRequestLine parses: GET TARGET VERSION
// The target is whatever sits between the method and the version token,
// trimmed, so targets with embedded spaces survive.
func parseRequestLine(line string) (*Request, error) {
	if len(line) < minRequestLineLen || !strings.HasPrefix(line, MethodGet+" ") {
		return nil, ErrMalformedRequestLine
	}

	version := ""
	switch {
	case strings.HasSuffix(line, Version10):
		version = Version10
	case strings.HasSuffix(line, Version11):
		version = Version11
	default:
		return nil, ErrMalformedRequestLine
	}

	target := strings.TrimSpace(line[len(MethodGet)+1 : len(line)-len(version)])

	return &Request{
		Method:  MethodGet,
		Target:  target,
		Version: version,
		Line:    line,
	}, nil
}
