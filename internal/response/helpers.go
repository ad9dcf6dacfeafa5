package response

import (
	"fmt"
	"io"

	"golang.org/x/net/html"

	"github.com/Brownie44l1/fileserver/internal/headers"
)

// successHeaders builds the header block shared by every 200 response.
func (w *Writer) successHeaders(contentType string) *headers.Headers {
	h := headers.NewHeaders()
	h.Set("Content-Type", contentType)
	h.Set("Date", w.now().UTC().Format(TimeFormat))
	h.Set("Server", ServerName)
	return h
}

func (w *Writer) startSuccess(contentType string) error {
	if err := w.WriteStatusLine(StatusOK); err != nil {
		return err
	}
	return w.WriteHeaders(w.successHeaders(contentType))
}

// Success writes a 200 response with an in-memory body.
func (w *Writer) Success(contentType, body string) error {
	if err := w.startSuccess(contentType); err != nil {
		return err
	}
	return w.WriteBody([]byte(body))
}

// SuccessFrom writes a 200 response whose body is streamed from r using buf
// as the copy buffer. It returns the number of body bytes sent.
func (w *Writer) SuccessFrom(contentType string, r io.Reader, buf []byte) (int64, error) {
	if err := w.startSuccess(contentType); err != nil {
		return 0, err
	}
	return w.WriteBodyFrom(r, buf)
}

// Redirect writes a 301 pointing at location. There is no body.
func (w *Writer) Redirect(location string) error {
	if err := w.WriteStatusLine(StatusMovedPermanently); err != nil {
		return err
	}

	h := headers.NewHeaders()
	h.Set("Location", location)
	return w.WriteHeaders(h)
}

// Error writes an error status with no headers and a small HTML page.
// An empty message is replaced by the default sentence for code.
func (w *Writer) Error(code StatusCode, message string) error {
	if message == "" {
		message = defaultMessage[code]
	}

	if err := w.WriteStatusLine(code); err != nil {
		return err
	}
	if err := w.WriteHeaders(nil); err != nil {
		return err
	}
	return w.WriteBody([]byte(w.errorPage(code, message)))
}

func (w *Writer) errorPage(code StatusCode, message string) string {
	title := html.EscapeString(StatusText(code))
	return fmt.Sprintf("<!DOCTYPE HTML PUBLIC \"-//IETF//DTD HTML 2.0//EN\">\r\n"+
		"<HTML><HEAD>\r\n"+
		"<TITLE>%d %s</TITLE>\r\n"+
		"</HEAD><BODY>\r\n"+
		"<H1>%s</H1>\r\n"+
		"%s<P>\r\n"+
		"<HR><ADDRESS>%s at %s Port %d</ADDRESS>\r\n"+
		"</BODY></HTML>\r\n",
		code, title,
		title,
		html.EscapeString(message),
		ServerName, html.EscapeString(w.host), w.port)
}
