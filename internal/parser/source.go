package parser

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"
)

// OpenFile opens path for reading. Files ending in `.xz` are decompressed
// on the fly.
func OpenFile(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, ".xz") {
		return f, nil
	}

	zr, err := xz.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open xz stream: %w", err)
	}
	return &xzFile{Reader: zr, file: f}, nil
}

type xzFile struct {
	*xz.Reader
	file *os.File
}

func (x *xzFile) Close() error {
	return x.file.Close()
}
