package wire

import (
	"bufio"
	"errors"
	"io"
	"net/http"
)

// Handler produces the response for one request.
type Handler interface {
	ServeWire(req *Request) Response
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(req *Request) Response

// ServeWire calls f(req).
func (f HandlerFunc) ServeWire(req *Request) Response { return f(req) }

// Serve runs exactly one request/response exchange on rw. It does not
// close rw; the caller owns the connection.
//
// A peer that disconnects before sending anything gets no response. A
// malformed request line gets a 400 without reaching h.
func Serve(rw io.ReadWriter, h Handler) error {
	req, err := ReadRequest(bufio.NewReader(rw))
	switch {
	case errors.Is(err, io.EOF):
		return nil
	case errors.Is(err, ErrMalformedRequestLine):
		return WriteResponse(rw, Text(http.StatusBadRequest, "Bad Request"))
	case err != nil:
		return err
	}
	return WriteResponse(rw, h.ServeWire(req))
}
