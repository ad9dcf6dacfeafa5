// Package contenttype maps file names to the small set of MIME types the
// file server knows about. It is a suffix table, not a MIME database.
package contenttype

import "strings"

const (
	TextHTML    = "text/html"
	TextPlain   = "text/plain"
	ImageGIF    = "image/gif"
	ImageJPEG   = "image/jpeg"
	OctetStream = "application/octet-stream"
)

// suffixes is checked in order; matching is case-sensitive.
var suffixes = []struct {
	suffix string
	ctype  string
}{
	{".html", TextHTML},
	{".htm", TextHTML},
	{".txt", TextPlain},
	{".java", TextPlain},
	{".gif", ImageGIF},
	{".class", OctetStream},
	{".jpg", ImageJPEG},
	{".jpeg", ImageJPEG},
}

// Classify returns the content type for path. Unknown suffixes are served
// as text/plain.
func Classify(path string) string {
	for _, s := range suffixes {
		if strings.HasSuffix(path, s.suffix) {
			return s.ctype
		}
	}
	return TextPlain
}
