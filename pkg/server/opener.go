package server

import (
	"io"
	"os"

	"github.com/spf13/afero"

	"github.com/bft-labs/labship/internal/domain"
	"github.com/bft-labs/labship/pkg/routing"
)

// destOpener routes a filename and opens its destination, creating the
// destination directory on demand. An existing file is truncated.
type destOpener struct {
	fs     afero.Fs
	router *routing.Router
}

func (o destOpener) Open(name string) (io.WriteCloser, domain.Destination, error) {
	dst, err := o.router.Resolve(name)
	if err != nil {
		return nil, dst, err
	}
	if err := o.fs.MkdirAll(dst.Dir, 0o755); err != nil {
		return nil, dst, domain.NewError(domain.KindIO, "create directory", dst.Dir, err)
	}
	f, err := o.fs.OpenFile(dst.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, dst, domain.NewError(domain.KindIO, "open destination", dst.Path, err)
	}
	return f, dst, nil
}
