// Command tcplistener prints how each incoming request line is parsed and
// how its target resolves against a document root, and echoes the same
// report back to the client. Useful for checking access rules by hand:
//
//	go run ./cmd/tcplistener -root ./public
//	curl -s http://localhost:42069/reports
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/Brownie44l1/fileserver/internal/contenttype"
	"github.com/Brownie44l1/fileserver/internal/request"
	"github.com/Brownie44l1/fileserver/internal/resolve"
	"github.com/Brownie44l1/fileserver/internal/response"
)

func main() {
	port := flag.Int("port", 42069, "port to listen on")
	root := flag.String("root", ".", "document root to resolve against")
	flag.Parse()

	absRoot, err := filepath.Abs(*root)
	if err != nil {
		fmt.Fprintln(os.Stderr, "bad root:", err)
		os.Exit(1)
	}
	resolver := resolve.NewResolver(absRoot)

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", *port))
	if err != nil {
		fmt.Fprintln(os.Stderr, "listen:", err)
		os.Exit(1)
	}
	defer listener.Close()
	fmt.Printf("Listening on port %d, root %s\n", *port, absRoot)

	for {
		conn, err := listener.Accept()
		if err != nil {
			fmt.Println("Accept error:", err)
			continue
		}

		handleConnection(conn, resolver)
	}
}

func handleConnection(conn net.Conn, resolver *resolve.Resolver) {
	defer conn.Close()

	report := inspect(bufio.NewReader(conn), resolver)
	fmt.Print(report)

	w := bufio.NewWriter(conn)
	response.NewWriter(w).Success(contenttype.TextPlain, report)
	w.Flush()
}

func inspect(r *bufio.Reader, resolver *resolve.Resolver) string {
	var sb strings.Builder

	req, err := request.Parse(r)
	if err != nil {
		fmt.Fprintf(&sb, "Parse error: %v (malformed=%t)\n", err, request.IsMalformed(err))
		return sb.String()
	}

	sb.WriteString("Request Line\n")
	fmt.Fprintf(&sb, "Method: %s\n", req.Method)
	fmt.Fprintf(&sb, "Target: %s\n", req.Target)
	fmt.Fprintf(&sb, "Version: %s\n", req.Version)

	t := resolver.Resolve(req.Target)
	sb.WriteString("Resolution\n")
	fmt.Fprintf(&sb, "Kind: %s\n", t.Kind)
	fmt.Fprintf(&sb, "URL path: %s\n", t.URLPath)
	if t.Path != "" {
		fmt.Fprintf(&sb, "File: %s\n", t.Path)
	}
	if t.Kind == resolve.File {
		fmt.Fprintf(&sb, "Content-Type: %s\n", contenttype.Classify(t.Path))
	}
	return sb.String()
}
