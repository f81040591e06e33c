package fileio

import (
	"compress/gzip"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Compressor describes a stream compression scheme that can wrap the
// file handle used by Dump and Load. Its extensions participate in
// Infer: a trailing ".gz" or ".zst" selects the compressor before the
// format extension is examined.
type Compressor struct {
	// Name identifies the compressor in errors and CLI output.
	Name string

	// Exts lists the file extensions (without the dot) recognized during
	// inference. The first one is the canonical extension for output.
	Exts []string

	wrapWriter func(io.Writer) (io.WriteCloser, error)
	wrapReader func(io.Reader) (io.ReadCloser, error)
}

// WrapWriter returns a writer that compresses everything written to it
// and flushes the stream when closed.
func (c *Compressor) WrapWriter(w io.Writer) (io.WriteCloser, error) {
	return c.wrapWriter(w)
}

// WrapReader returns a reader that transparently decompresses the
// underlying stream.
func (c *Compressor) WrapReader(r io.Reader) (io.ReadCloser, error) {
	return c.wrapReader(r)
}

func (c *Compressor) String() string { return c.Name }

// Gzip compresses with compress/gzip at the default level.
var Gzip = &Compressor{
	Name: "gzip",
	Exts: []string{"gz"},
	wrapWriter: func(w io.Writer) (io.WriteCloser, error) {
		return gzip.NewWriter(w), nil
	},
	wrapReader: func(r io.Reader) (io.ReadCloser, error) {
		return gzip.NewReader(r)
	},
}

// Zstd compresses with github.com/klauspost/compress/zstd.
var Zstd = &Compressor{
	Name: "zstd",
	Exts: []string{"zst", "zstd"},
	wrapWriter: func(w io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(w)
	},
	wrapReader: func(r io.Reader) (io.ReadCloser, error) {
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	},
}

// Compressors returns the built-in compressors in inference order.
func Compressors() []*Compressor {
	return []*Compressor{Gzip, Zstd}
}
