package server

import (
	"bufio"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/Brownie44l1/fileserver/internal/request"
	"github.com/Brownie44l1/fileserver/internal/resolve"
	"github.com/Brownie44l1/fileserver/internal/response"
)

// Context carries one connection through the handler chain. Each
// connection serves exactly one request.
type Context struct {
	Conn     net.Conn
	Request  *request.Request // nil until a request line was parsed
	Response *response.Writer
	Target   resolve.Target

	RemoteIP   string
	RemotePort int
	LocalHost  string
	LocalPort  int

	// Abandoned is set when the connection is closed without a response,
	// e.g. the client sent nothing at all.
	Abandoned bool

	// Err records why the exchange ended early, if it did.
	Err error

	Start time.Time

	reader *bufio.Reader
	writer *bufio.Writer
}

func newContext(conn net.Conn) *Context {
	ctx := &Context{
		Conn:   conn,
		Start:  time.Now(),
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}
	ctx.RemoteIP, ctx.RemotePort = splitAddr(conn.RemoteAddr())
	ctx.LocalHost, ctx.LocalPort = splitAddr(conn.LocalAddr())

	ctx.Response = response.NewWriter(ctx.writer)
	ctx.Response.SetServerAddress(ctx.LocalHost, ctx.LocalPort)
	return ctx
}

func splitAddr(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.IP.String(), tcp.Port
	}
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	p, _ := strconv.Atoi(port)
	return host, p
}

// Reader returns the buffered reader over the connection.
func (c *Context) Reader() *bufio.Reader {
	return c.reader
}

// Error sends an error page with the default message for code. A failed
// write is also recorded in Err.
func (c *Context) Error(code response.StatusCode) error {
	if err := c.Response.Error(code, ""); err != nil {
		c.Err = fmt.Errorf("send %d page: %w", code, err)
		return err
	}
	return nil
}

// BaseURL is the scheme, host and port the connection was accepted on.
func (c *Context) BaseURL() string {
	return "http://" + net.JoinHostPort(c.LocalHost, strconv.Itoa(c.LocalPort))
}

// StatusLine returns e.g. "200 OK", or "" if nothing was written.
func (c *Context) StatusLine() string {
	if !c.Response.Started() {
		return ""
	}
	return c.Response.StatusCode().StatusLine()
}

// RequestLine returns the raw request line, or "" before parsing.
func (c *Context) RequestLine() string {
	if c.Request == nil {
		return ""
	}
	return c.Request.Line
}

// Flush pushes buffered response bytes to the connection.
func (c *Context) Flush() error {
	return c.writer.Flush()
}
