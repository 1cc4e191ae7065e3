// Package blob abstracts the attachment store. The core only ever keeps the
// durable URL a Put returns and treats it as opaque.
package blob

import (
	"context"
	"io"
)

// Store uploads a local file handle and returns a durable URL.
type Store interface {
	Put(ctx context.Context, name string, r io.Reader) (url string, err error)
}
