package response

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/fileserver/internal/headers"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 6, 0, time.UTC)

func newTestWriter(buf *bytes.Buffer) *Writer {
	w := NewWriter(buf)
	w.now = func() time.Time { return fixedNow }
	w.SetServerAddress("localhost", 8080)
	return w
}

func TestWriterStatusLine(t *testing.T) {
	tests := []struct {
		code StatusCode
		want string
	}{
		{StatusOK, "HTTP/1.0 200 OK\r\n"},
		{StatusMovedPermanently, "HTTP/1.0 301 Moved Permanently\r\n"},
		{StatusBadRequest, "HTTP/1.0 400 Bad Request\r\n"},
		{StatusForbidden, "HTTP/1.0 403 Forbidden\r\n"},
		{StatusNotFound, "HTTP/1.0 404 Not Found\r\n"},
		{StatusInternalServerError, "HTTP/1.0 500 Internal Server Error\r\n"},
	}

	for _, tt := range tests {
		buf := &bytes.Buffer{}
		w := NewWriter(buf)
		require.NoError(t, w.WriteStatusLine(tt.code))
		assert.Equal(t, tt.want, buf.String())
		assert.Equal(t, tt.code, w.StatusCode())
	}
}

func TestSuccessWireFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newTestWriter(buf)

	require.NoError(t, w.Success("text/plain", "hello"))

	want := "HTTP/1.0 200 OK\r\n" +
		"Content-Type: text/plain\r\n" +
		"Date: Sat, 09 Mar 2024 14:05:06 GMT\r\n" +
		"Server: FileServer 1.0\r\n" +
		"\r\n" +
		"hello"
	assert.Equal(t, want, buf.String())
	assert.NotContains(t, buf.String(), "Content-Length")
	assert.Equal(t, int64(5), w.BodyBytes())
}

func TestSuccessDateIsGMT(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	loc := time.FixedZone("UTC+9", 9*3600)
	w.now = func() time.Time { return time.Date(2024, 3, 10, 0, 0, 0, 0, loc) }

	require.NoError(t, w.Success("text/html", ""))
	assert.Contains(t, buf.String(), "Date: Sat, 09 Mar 2024 15:00:00 GMT\r\n")
}

func TestSuccessFromStreamsInChunks(t *testing.T) {
	data := bytes.Repeat([]byte("0123456789"), 1000)

	out := &countingWriter{}
	w := NewWriter(out)

	n, err := w.SuccessFrom("image/gif", bytes.NewReader(data), make([]byte, 64))
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), n)

	_, body, found := strings.Cut(out.buf.String(), "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, string(data), body)

	// one write for the status line, one per header line, one for the
	// blank line, then one per chunk
	for _, size := range out.sizes {
		assert.LessOrEqual(t, size, 64)
	}
}

func TestSuccessFromEmptyFile(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newTestWriter(buf)

	n, err := w.SuccessFrom("text/plain", strings.NewReader(""), make([]byte, 16))
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.True(t, strings.HasSuffix(buf.String(), "Server: FileServer 1.0\r\n\r\n"))
}

func TestSuccessFromReadError(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newTestWriter(buf)

	boom := errors.New("disk gone")
	r := io.MultiReader(strings.NewReader("partial"), &failingReader{err: boom})

	n, err := w.SuccessFrom("text/plain", r, make([]byte, 4))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(7), n)
	assert.True(t, w.HadError())
	assert.Contains(t, buf.String(), "partial")
}

func TestSuccessFromWriteError(t *testing.T) {
	w := NewWriter(&limitedWriter{limit: 200})

	_, err := w.SuccessFrom("text/plain", strings.NewReader(strings.Repeat("x", 1000)), make([]byte, 32))
	require.Error(t, err)
	assert.ErrorIs(t, err, errShortWrite)
	assert.True(t, w.HadError())
}

func TestRedirectWireFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newTestWriter(buf)

	require.NoError(t, w.Redirect("http://127.0.0.1:8080/reports/"))

	want := "HTTP/1.0 301 Moved Permanently\r\n" +
		"Location: http://127.0.0.1:8080/reports/\r\n" +
		"\r\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, StatusMovedPermanently, w.StatusCode())
}

func TestRedirectRejectsHeaderInjection(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newTestWriter(buf)

	err := w.Redirect("http://host/\r\nSet-Cookie: x=1")
	require.Error(t, err)
	assert.NotContains(t, buf.String(), "Set-Cookie")
}

func TestErrorWireFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newTestWriter(buf)

	require.NoError(t, w.Error(StatusNotFound, ""))

	got := buf.String()
	head, body, found := strings.Cut(got, "\r\n\r\n")
	require.True(t, found)

	assert.Equal(t, "HTTP/1.0 404 Not Found", head)
	assert.True(t, strings.HasPrefix(body, "<!DOCTYPE HTML PUBLIC \"-//IETF//DTD HTML 2.0//EN\">\r\n"))
	assert.Contains(t, body, "<TITLE>404 Not Found</TITLE>")
	assert.Contains(t, body, "<H1>Not Found</H1>")
	assert.Contains(t, body, "The requested URL was not found on this server.<P>")
	assert.Contains(t, body, "<ADDRESS>FileServer 1.0 at localhost Port 8080</ADDRESS>")
	assert.True(t, strings.HasSuffix(body, "</BODY></HTML>\r\n"))
}

func TestErrorDefaultMessages(t *testing.T) {
	tests := []struct {
		code StatusCode
		want string
	}{
		{StatusBadRequest, "Your browser sent a request that this server could not understand."},
		{StatusForbidden, "You don&#39;t have permission to access the requested URL."},
		{StatusNotFound, "The requested URL was not found on this server."},
	}

	for _, tt := range tests {
		buf := &bytes.Buffer{}
		w := newTestWriter(buf)
		require.NoError(t, w.Error(tt.code, ""))
		assert.Contains(t, buf.String(), tt.want)
	}
}

func TestErrorEscapesMessage(t *testing.T) {
	buf := &bytes.Buffer{}
	w := newTestWriter(buf)
	w.SetServerAddress("<evil>", 1)

	require.NoError(t, w.Error(StatusBadRequest, `<script>alert("x")</script>`))

	got := buf.String()
	assert.NotContains(t, got, "<script>")
	assert.Contains(t, got, "&lt;script&gt;")
	assert.Contains(t, got, "FileServer 1.0 at &lt;evil&gt; Port 1")
}

func TestWriterStateValidation(t *testing.T) {
	// headers before status
	w := NewWriter(&bytes.Buffer{})
	assert.ErrorIs(t, w.WriteHeaders(headers.NewHeaders()), ErrStatusNotWritten)

	// body before headers
	w = NewWriter(&bytes.Buffer{})
	require.NoError(t, w.WriteStatusLine(StatusOK))
	assert.ErrorIs(t, w.WriteBody([]byte("test")), ErrHeadersNotWritten)

	_, err := w.WriteBodyFrom(strings.NewReader("test"), make([]byte, 4))
	assert.ErrorIs(t, err, ErrHeadersNotWritten)

	// second status line
	w = NewWriter(&bytes.Buffer{})
	require.NoError(t, w.Success("text/plain", "a"))
	assert.ErrorIs(t, w.Error(StatusNotFound, ""), ErrStatusWritten)
	assert.True(t, w.Started())
}

func TestWriteBodyRepeatedly(t *testing.T) {
	buf := &bytes.Buffer{}
	w := NewWriter(buf)
	require.NoError(t, w.WriteStatusLine(StatusOK))
	require.NoError(t, w.WriteHeaders(nil))
	require.NoError(t, w.WriteBody([]byte("Hello, ")))
	require.NoError(t, w.WriteBody([]byte("World!")))

	assert.Equal(t, "HTTP/1.0 200 OK\r\n\r\nHello, World!", buf.String())
	assert.Equal(t, int64(13), w.BodyBytes())
}

func TestStatusCodeClasses(t *testing.T) {
	assert.True(t, StatusOK.IsSuccess())
	assert.True(t, StatusMovedPermanently.IsRedirect())
	assert.True(t, StatusForbidden.IsClientError())
	assert.True(t, StatusInternalServerError.IsServerError())
	assert.True(t, StatusNotFound.IsError())
	assert.False(t, StatusOK.IsError())

	assert.Equal(t, "404 Not Found", StatusNotFound.StatusLine())
	assert.Equal(t, "Unknown Status", StatusText(StatusCode(599)))
}

type countingWriter struct {
	buf   bytes.Buffer
	sizes []int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	c.sizes = append(c.sizes, len(p))
	return c.buf.Write(p)
}

type failingReader struct {
	err error
}

func (f *failingReader) Read([]byte) (int, error) {
	return 0, f.err
}

var errShortWrite = errors.New("peer closed")

// limitedWriter accepts limit bytes and then fails, like a peer that hung up.
type limitedWriter struct {
	limit   int
	written int
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	room := l.limit - l.written
	if room <= 0 {
		return 0, errShortWrite
	}
	if len(p) > room {
		l.written += room
		return room, errShortWrite
	}
	l.written += len(p)
	return len(p), nil
}
