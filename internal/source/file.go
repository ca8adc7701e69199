package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// File opens locations on the local filesystem.
type File struct{}

func (File) Stat(_ context.Context, location string) (Info, error) {
	path, err := filepath.Abs(location)
	if err != nil {
		return Info{}, fmt.Errorf("resolve %s: %w", location, err)
	}
	info := Info{Location: location, Path: path}

	// A path that cannot be reached, such as one under an untraversable
	// directory, does not exist as far as the caller can tell.
	st, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, fs.ErrPermission) {
		return info, nil
	}
	if err != nil {
		return info, err
	}
	info.Exists = true
	info.Size = st.Size()
	info.ModTime = st.ModTime()
	return info, nil
}

func (File) Open(_ context.Context, location string) (io.ReadCloser, error) {
	f, err := os.Open(location)
	if err != nil {
		return nil, err
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%s: is a directory", location)
	}
	return f, nil
}

var _ Opener = File{}
