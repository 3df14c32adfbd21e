package wire

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"strconv"
	"strings"

	xunicode "golang.org/x/text/encoding/unicode"
)

// ErrMalformedRequestLine is returned when the first line has fewer than
// two whitespace-separated fields.
var ErrMalformedRequestLine = errors.New("wire: malformed request line")

// Request is the part of an HTTP/1.1 request the router needs.
type Request struct {
	Method        string
	Path          string
	Headers       []string // raw header lines, in order, uninterpreted
	ContentLength uint64
	Body          string
}

// ReadRequest reads one request from r.
//
// Only Content-Length is interpreted. A value that does not parse as an
// unsigned integer counts as zero. The body is read from the same buffered
// reader with no size cap and no deadline; if the peer sends fewer bytes
// than declared the body is left empty. Invalid UTF-8 in the body is
// replaced with U+FFFD.
//
// io.EOF is returned if the peer closed before sending a request line.
func ReadRequest(r *bufio.Reader) (*Request, error) {
	line, err := readLine(r)
	if err != nil {
		return nil, err
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return nil, ErrMalformedRequestLine
	}
	req := &Request{Method: fields[0], Path: fields[1]}

	for {
		line, err := readLine(r)
		if err != nil || line == "" {
			break
		}
		req.Headers = append(req.Headers, line)
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			req.ContentLength = parseContentLength(line)
		}
	}

	if req.ContentLength > 0 {
		var buf bytes.Buffer
		// CopyN grows the buffer as bytes arrive instead of trusting the
		// declared length up front.
		if _, err := io.CopyN(&buf, r, int64(req.ContentLength)); err == nil {
			req.Body = decodeBody(buf.Bytes())
		}
	}
	return req, nil
}

// readLine returns the next line without its terminator. A final line
// without a newline is still returned.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// parseContentLength takes the text between the first and second colon.
// A single leading '+' is allowed.
func parseContentLength(line string) uint64 {
	parts := strings.Split(line, ":")
	if len(parts) < 2 {
		return 0
	}
	digits := strings.TrimPrefix(strings.TrimSpace(parts[1]), "+")
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil || n > uint64(1<<63-1) {
		return 0
	}
	return n
}

// decodeBody replaces invalid sequences with U+FFFD. The UTF-8 decoder
// never fails on bad input, so its error is ignored.
func decodeBody(b []byte) string {
	s, _ := xunicode.UTF8.NewDecoder().String(string(b))
	return s
}
