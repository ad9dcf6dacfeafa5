package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/Brownie44l1/fileserver/internal/contenttype"
	"github.com/Brownie44l1/fileserver/internal/request"
	"github.com/Brownie44l1/fileserver/internal/resolve"
	"github.com/Brownie44l1/fileserver/internal/response"
)

// Unread request bytes left on the socket at close make the kernel reset the
// connection, which can discard a response the client has not read yet.
const (
	lingerTimeout  = 500 * time.Millisecond
	maxLingerBytes = 256 << 10
)

// serveConn runs one exchange and closes the connection. Nothing that goes
// wrong here reaches the accept loop.
func (s *Server) serveConn(conn net.Conn, handler Handler) {
	defer conn.Close()
	defer func() {
		if r := recover(); r != nil {
			s.Logger.Error("connection handler panic", Field{"error", r})
		}
	}()

	s.metrics.ConnectionsTotal.Add(1)
	s.metrics.ActiveConnections.Add(1)
	defer s.metrics.ActiveConnections.Add(-1)

	if d := s.cfg.ReadTimeout.Duration; d > 0 {
		conn.SetReadDeadline(time.Now().Add(d))
	}
	if d := s.cfg.WriteTimeout.Duration; d > 0 {
		conn.SetWriteDeadline(time.Now().Add(d))
	}

	ctx := newContext(conn)
	handler.ServeHTTP(ctx)

	if err := ctx.Flush(); err != nil {
		s.Logger.Debug("flush failed",
			Field{"remote_ip", ctx.RemoteIP},
			Field{"error", err},
		)
		return
	}
	if ctx.Response.Started() {
		discardInput(conn, ctx.Reader())
	}
}

// discardInput half-closes conn and reads off whatever the client is still
// sending, bounded by lingerTimeout and maxLingerBytes.
func discardInput(conn net.Conn, r *bufio.Reader) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite()
	}
	conn.SetReadDeadline(time.Now().Add(lingerTimeout))
	io.CopyN(io.Discard, r, maxLingerBytes)
}

// serveRequest parses the request line, resolves the target and writes
// the response.
func (s *Server) serveRequest(ctx *Context) {
	req, err := request.Parse(ctx.Reader())
	if err != nil {
		switch {
		case errors.Is(err, request.ErrNoRequest):
			ctx.Abandoned = true
		case request.IsMalformed(err):
			ctx.Error(response.StatusBadRequest)
		default:
			ctx.Abandoned = true
			ctx.Err = err
		}
		return
	}
	ctx.Request = req

	target := s.resolver.Resolve(req.Target)
	ctx.Target = target

	switch target.Kind {
	case resolve.Rejected:
		ctx.Error(response.StatusForbidden)
	case resolve.Redirect:
		if err := ctx.Response.Redirect(redirectLocation(ctx.BaseURL(), target.RawPath)); err != nil {
			ctx.Err = fmt.Errorf("send redirect: %w", err)
		}
	case resolve.Directory:
		s.serveDirectory(ctx, target.Path)
	case resolve.File:
		s.serveFile(ctx, target.Path)
	default:
		ctx.Error(response.StatusNotFound)
	}
}

// redirectLocation appends the missing slash to the path as the client
// sent it.
func redirectLocation(base, rawPath string) string {
	if !strings.HasPrefix(rawPath, "/") {
		rawPath = "/" + rawPath
	}
	if !strings.HasSuffix(rawPath, "/") {
		rawPath += "/"
	}
	return base + rawPath
}

func (s *Server) serveDirectory(ctx *Context, dir string) {
	page, err := s.renderer.Render(dir, s.resolver.Root())
	if err != nil {
		s.Logger.Warn("listing failed", Field{"dir", dir}, Field{"error", err})
		switch {
		case errors.Is(err, fs.ErrNotExist):
			ctx.Error(response.StatusNotFound)
		case errors.Is(err, fs.ErrPermission):
			ctx.Error(response.StatusForbidden)
		default:
			ctx.Error(response.StatusInternalServerError)
		}
		return
	}

	if err := ctx.Response.Success(contenttype.TextHTML, page); err != nil {
		ctx.Err = fmt.Errorf("send listing: %w", err)
	}
}

// serveFile streams path in CopyBufferSize chunks. A file that can no
// longer be opened is a 404.
func (s *Server) serveFile(ctx *Context, path string) {
	f, err := os.Open(path)
	if err != nil {
		s.Logger.Debug("open failed", Field{"path", path}, Field{"error", err})
		ctx.Error(response.StatusNotFound)
		return
	}
	defer f.Close()

	buf := s.buffers.Get()
	defer s.buffers.Put(buf)

	if _, err := ctx.Response.SuccessFrom(contenttype.Classify(path), f, *buf); err != nil {
		ctx.Err = fmt.Errorf("send %s: %w", path, err)
	}
}
