// Package resolve maps request targets onto the document root and decides
// what kind of response they get.
package resolve

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies a resolved request target.
type Kind int

const (
	NotFound Kind = iota
	File
	Directory
	Redirect // directory requested without the trailing slash
	Rejected // traversal or hidden-file request
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not-found"
	case File:
		return "file"
	case Directory:
		return "directory"
	case Redirect:
		return "redirect"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Target is the outcome of resolving one request target.
type Target struct {
	Kind Kind

	// Path is the filesystem path. Set for File, Directory and Redirect.
	Path string

	// URLPath is the decoded request path with a leading slash, query removed.
	URLPath string

	// RawPath is the request path as received, query removed. Redirects
	// echo it back so the client's own escaping is preserved.
	RawPath string
}

// Resolver resolves targets against a fixed document root.
type Resolver struct {
	root     string
	realRoot string
}

// NewResolver returns a Resolver for root, which should be an absolute,
// clean path.
func NewResolver(root string) *Resolver {
	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		realRoot = root
	}
	return &Resolver{root: root, realRoot: realRoot}
}

// Root returns the document root.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve is shorthand for NewResolver(root).Resolve(rawTarget).
func Resolve(rawTarget, root string) Target {
	return NewResolver(root).Resolve(rawTarget)
}

// Resolve applies the access policy to rawTarget:
//
//  1. raw target containing "..", "/.ht" or ending in "~" is Rejected
//  2. the query is dropped and %-escapes decoded; the decoded path gets the
//     same check, and undecodable paths are Rejected
//  3. the path is joined onto the root; if following symlinks leaves the
//     root the target is Rejected
//  4. a directory without trailing slash is a Redirect, with one is a
//     Directory, a regular file is a File, anything else NotFound
func (r *Resolver) Resolve(rawTarget string) Target {
	if blocked(rawTarget) {
		return Target{Kind: Rejected, RawPath: rawTarget}
	}

	rawPath := rawTarget
	if i := strings.IndexByte(rawPath, '?'); i >= 0 {
		rawPath = rawPath[:i]
	}

	decoded, err := url.PathUnescape(rawPath)
	if err != nil || strings.ContainsRune(decoded, 0) {
		return Target{Kind: Rejected, RawPath: rawPath}
	}

	t := Target{
		URLPath: "/" + strings.TrimPrefix(decoded, "/"),
		RawPath: rawPath,
	}
	if blocked(t.URLPath) {
		t.Kind = Rejected
		return t
	}

	candidate := filepath.Join(r.root, filepath.FromSlash(decoded))

	info, err := os.Stat(candidate)
	if err != nil {
		t.Kind = NotFound
		return t
	}

	realPath, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		t.Kind = NotFound
		return t
	}
	if !within(r.realRoot, realPath) {
		t.Kind = Rejected
		return t
	}

	t.Path = candidate
	switch {
	case info.IsDir() && !strings.HasSuffix(decoded, "/"):
		t.Kind = Redirect
	case info.IsDir():
		t.Kind = Directory
	case info.Mode().IsRegular() && !strings.HasSuffix(decoded, "/"):
		t.Kind = File
	default:
		t.Kind = NotFound
		t.Path = ""
	}
	return t
}

// blocked is the substring policy: parent references, .ht* control files
// and editor backups.
func blocked(p string) bool {
	return strings.Contains(p, "..") ||
		strings.Contains(p, "/.ht") ||
		strings.HasSuffix(p, "~")
}

func within(root, p string) bool {
	if p == root {
		return true
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(p, prefix)
}
