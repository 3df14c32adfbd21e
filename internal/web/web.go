// Package web holds the static page served at the root path.
package web

import _ "embed"

//go:embed index.html
var index []byte

// Index returns the page served for GET /.
func Index() []byte { return index }
