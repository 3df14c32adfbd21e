// Package wire reads and writes the tracker's HTTP/1.1-shaped messages
// directly on a byte stream.
//
// Each connection carries exactly one exchange:
//
//	request line   METHOD SP PATH [SP VERSION]
//	headers        until an empty line; only Content-Length is interpreted
//	body           exactly Content-Length bytes, if any
//
// The response is always written with a fixed header set (content type,
// length, permissive CORS, Connection: close) and the connection is then
// closed by the caller. There is no keep-alive, chunked encoding or query
// string handling; the path is passed through verbatim.
package wire
