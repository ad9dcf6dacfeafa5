// Package listing renders the HTML index page served for directories.
//
// The page is a static shell (markup, style, sorting script) followed by one
// addRow(...) script call per child. Rows appear in directory enumeration
// order; sorting happens in the browser.
package listing

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed index.html.tmpl
var indexSource string

var indexTemplate = template.Must(template.New("index").Parse(indexSource))

// DefaultDateLayout is used when Options.DateLayout is empty.
const DefaultDateLayout = "2006-01-02 15:04:05"

// Entry is one row of the listing.
type Entry struct {
	Name          string
	URL           string // Name, path-escaped
	IsDir         bool
	Size          int64 // 0 for directories
	SizeString    string
	ModTimeMillis int64
	ModTimeString string
}

// Options tune how sizes and dates are presented.
type Options struct {
	Language   language.Tag
	DateLayout string
	Location   *time.Location
}

// Renderer produces listing pages.
type Renderer struct {
	printer  *message.Printer
	lang     string
	layout   string
	location *time.Location
}

func NewRenderer(opts Options) *Renderer {
	tag := opts.Language
	if tag == language.Und {
		tag = language.English
	}
	layout := opts.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	base, _ := tag.Base()
	return &Renderer{
		printer:  message.NewPrinter(tag),
		lang:     base.String(),
		layout:   layout,
		location: loc,
	}
}

type page struct {
	Lang     string
	Location string
	Parent   string
	Entries  []Entry
}

// Render renders dir with default Options.
func Render(dir, root string) (string, error) {
	return NewRenderer(Options{}).Render(dir, root)
}

// Render builds the listing page for dir, which must lie inside root. The
// page title shows dir relative to root.
func (r *Renderer) Render(dir, root string) (string, error) {
	location, err := urlLocation(dir, root)
	if err != nil {
		return "", err
	}

	entries, err := r.ReadEntries(dir)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	err = indexTemplate.Execute(&sb, page{
		Lang:     r.lang,
		Location: location,
		Parent:   parentOf(location),
		Entries:  entries,
	})
	if err != nil {
		return "", fmt.Errorf("render listing: %w", err)
	}
	return sb.String(), nil
}

// ReadEntries lists the immediate children of dir in enumeration order.
// Children that disappear while being listed are skipped.
func (r *Renderer) ReadEntries(dir string) ([]Entry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("open directory: %w", err)
	}
	defer f.Close()

	dirents, err := f.ReadDir(-1)
	if err != nil {
		return nil, fmt.Errorf("read directory: %w", err)
	}

	entries := make([]Entry, 0, len(dirents))
	for _, de := range dirents {
		// Stat follows symlinks so linked directories list as directories.
		info, err := os.Stat(filepath.Join(dir, de.Name()))
		if err != nil {
			if info, err = de.Info(); err != nil {
				continue
			}
		}
		entries = append(entries, r.entry(info))
	}
	return entries, nil
}

func (r *Renderer) entry(info os.FileInfo) Entry {
	mod := info.ModTime()
	e := Entry{
		Name:          info.Name(),
		URL:           url.PathEscape(info.Name()),
		IsDir:         info.IsDir(),
		ModTimeMillis: mod.UnixMilli(),
		ModTimeString: mod.In(r.location).Format(r.layout),
	}
	if !e.IsDir {
		e.Size = info.Size()
		e.SizeString = readableFileSize(r.printer, e.Size)
	}
	return e
}

// ReadableFileSize is ReadableFileSize formatted for the renderer's language.
func (r *Renderer) ReadableFileSize(size int64) string {
	return readableFileSize(r.printer, size)
}

// urlLocation turns dir into the slash-terminated URL path it is served at.
func urlLocation(dir, root string) (string, error) {
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", fmt.Errorf("directory outside document root: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("directory %s outside document root %s", dir, root)
	}
	if rel == "." {
		return "/", nil
	}
	return "/" + rel + "/", nil
}

func parentOf(location string) string {
	if location == "/" {
		return "/"
	}
	parent := path.Dir(strings.TrimSuffix(location, "/"))
	if parent == "/" {
		return parent
	}
	return parent + "/"
}
