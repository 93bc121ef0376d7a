//go:generate mockgen -package mocks -destination mocks/interface.go -source=interface.go
package s3

import (
	"io"
)

// BasicClient writes and removes objects under a single bucket and prefix.
type BasicClient interface {
	Lister
	BufferPutter
	Deleter
}

type Lister interface {
	List(key string) (keys []string, err error)
}

// BufferPutter can be used to put a file to S3 since File implements Read and Seek.
type BufferPutter interface {
	BufferPut(key string, buf io.ReadSeeker) (err error)
}

type Deleter interface {
	Delete(key string) error
}
