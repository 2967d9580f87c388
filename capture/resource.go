// Package capture parses on-disk captures of HTTP responses, the kind
// produced by `wget -p --save-headers <url>`, into cache entries. A
// capture file holds a status line, header lines, a blank-line
// separator and the raw body; the directory layout below the capture
// root maps to (host, path) keys.
package capture

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/replay-cache/replay-cache/core"
)

// ErrMalformed reports a capture file that cannot be parsed into a
// header block and a body. Malformed captures abort the whole
// bootstrap rather than being skipped.
var ErrMalformed = errors.New("malformed capture file")

// Header conventions understood by the parser. Both are consumed
// during parsing and never stored in the resulting entry.
const (
	// originalURLHeader overrides the (host, path) derived from the
	// file's location under the capture root.
	originalURLHeader = "x-original-url"
	// pushURLHeader names another resource to load into the cache
	// alongside this one. May repeat.
	pushURLHeader = "x-push-url"
)

// A ResourceFile is one parsed capture file. Body is a view into the
// raw file contents; Response copies everything the cache entry needs,
// so the ResourceFile can be dropped once the entry is built.
type ResourceFile struct {
	name     string
	contents []byte
	body     []byte
	headers  core.HeaderBlock
	host     string
	path     string
	pushURLs []string
}

// Load reads and parses the capture file name inside root.
func Load(root, name string) (*ResourceFile, error) {
	contents, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return nil, err
	}
	return Parse(filepath.ToSlash(rel), contents)
}

// Parse parses raw capture bytes. base is the file's path relative to
// the capture root, slash-separated. When the capture carries no URL
// override, the first segment of base is the host and the remaining
// segments form the URL path.
func Parse(base string, contents []byte) (*ResourceFile, error) {
	r := &ResourceFile{name: base, contents: contents}
	if err := r.parse(); err != nil {
		return nil, fmt.Errorf("%s: %w", base, err)
	}
	return r, nil
}

func (r *ResourceFile) Name() string { return r.name }

func (r *ResourceFile) Host() string { return r.host }

func (r *ResourceFile) Path() string { return r.path }

func (r *ResourceFile) Headers() core.HeaderBlock { return r.headers }

func (r *ResourceFile) Body() []byte { return r.body }

func (r *ResourceFile) PushURLs() []string { return r.pushURLs }

// Response builds a cache entry from the parsed file. The entry owns
// all of its storage and shares nothing with the file buffer.
func (r *ResourceFile) Response() core.Response {
	return core.Response{
		Headers: r.headers.Clone(),
		Body:    append([]byte(nil), r.body...),
	}
}

func (r *ResourceFile) parse() error {
	headerBlock, body, ok := splitHeadersBody(r.contents)
	if !ok {
		return fmt.Errorf("%w: no header/body separator", ErrMalformed)
	}
	r.body = body

	var originalURL string
	for i, line := range splitLines(headerBlock) {
		if i == 0 {
			code, err := parseStatusLine(line)
			if err != nil {
				return err
			}
			r.headers.Add(core.StatusHeader, strconv.Itoa(code))
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return fmt.Errorf("%w: header line without colon: %q", ErrMalformed, line)
		}
		name = strings.ToLower(strings.TrimSpace(name))
		value = strings.TrimSpace(value)
		switch name {
		case originalURLHeader:
			originalURL = value
		case pushURLHeader:
			r.pushURLs = append(r.pushURLs, removeScheme(value))
		default:
			r.headers.Add(name, value)
		}
	}

	if originalURL != "" {
		r.host, r.path = SplitHostPath(removeScheme(originalURL))
	} else {
		r.host, r.path = SplitHostPath(r.name)
	}
	if r.host == "" {
		return fmt.Errorf("%w: no host for %q", ErrMalformed, r.name)
	}
	return nil
}

// splitHeadersBody cuts the capture at the first blank-line separator.
// The returned body is a view into contents, not a copy.
func splitHeadersBody(contents []byte) (header, body []byte, ok bool) {
	if i := bytes.Index(contents, []byte("\r\n\r\n")); i != -1 {
		return contents[:i], contents[i+4:], true
	}
	if i := bytes.Index(contents, []byte("\n\n")); i != -1 {
		return contents[:i], contents[i+2:], true
	}
	return nil, nil, false
}

func splitLines(block []byte) []string {
	lines := strings.Split(string(block), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// parseStatusLine extracts the numeric code from a status line such as
// "HTTP/1.1 200 OK".
func parseStatusLine(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: unparsable status line: %q", ErrMalformed, line)
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: unparsable status code: %q", ErrMalformed, line)
	}
	return code, nil
}

// SplitHostPath splits a scheme-less URL ("host/some/path") into its
// host and path components. The path always starts with a slash.
func SplitHostPath(url string) (host, path string) {
	host, path, found := strings.Cut(url, "/")
	if !found {
		return host, "/"
	}
	return host, "/" + path
}

// removeScheme strips a leading URL scheme, if any.
func removeScheme(url string) string {
	if i := strings.Index(url, "://"); i != -1 {
		return url[i+3:]
	}
	return url
}
