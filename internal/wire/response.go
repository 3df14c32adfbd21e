package wire

import (
	"bufio"
	"fmt"
	"io"

	"github.com/dreamware/loctrack/internal/value"
)

// Content types used by the tracker
const (
	ContentTypeText = "text/plain"
	ContentTypeJSON = "application/json"
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Response is a complete reply. The connection is always closed after it
// is written.
type Response struct {
	Status      int
	ContentType string
	Body        []byte
}

// Text builds a text/plain response.
func Text(status int, body string) Response {
	return Response{Status: status, ContentType: ContentTypeText, Body: []byte(body)}
}

// JSON builds an application/json response from a rendered value.
func JSON(status int, v value.Value) Response {
	return Response{Status: status, ContentType: ContentTypeJSON, Body: []byte(value.Render(v))}
}

// HTML builds an HTML response.
func HTML(status int, page []byte) Response {
	return Response{Status: status, ContentType: ContentTypeHTML, Body: page}
}

// StatusText returns the reason phrase written on the status line.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	case 503:
		return "Service Unavailable"
	default:
		return "Unknown"
	}
}

// WriteResponse writes the status line, the fixed header set and the body.
// Every response carries permissive CORS headers and Connection: close.
func WriteResponse(w io.Writer, resp Response) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", resp.Status, StatusText(resp.Status))
	fmt.Fprintf(bw, "Content-Type: %s\r\n", resp.ContentType)
	fmt.Fprintf(bw, "Content-Length: %d\r\n", len(resp.Body))
	bw.WriteString("Access-Control-Allow-Origin: *\r\n")
	bw.WriteString("Access-Control-Allow-Methods: GET, POST, DELETE, OPTIONS\r\n")
	bw.WriteString("Access-Control-Allow-Headers: Content-Type\r\n")
	bw.WriteString("Connection: close\r\n")
	bw.WriteString("\r\n")
	bw.Write(resp.Body)
	return bw.Flush()
}
