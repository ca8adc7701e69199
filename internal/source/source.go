// Package source opens CSV bytes from a local file or an HTTP(S) URL.
package source

import (
	"context"
	"io"
	"strings"
	"time"
)

// Info describes a location after it has been checked for existence.
type Info struct {
	Location string    `json:"location"`
	Path     string    `json:"path"`
	Exists   bool      `json:"exists"`
	Size     int64     `json:"size,omitempty"`
	ModTime  time.Time `json:"mod_time,omitempty"`
}

// Opener checks and opens locations.
// A location that does not exist is reported by Stat with Exists=false, not
// as an error.
type Opener interface {
	Stat(ctx context.Context, location string) (Info, error)
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	l := strings.ToLower(location)
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// Router sends remote locations to HTTP and everything else to File.
type Router struct {
	File Opener
	HTTP Opener
}

// NewRouter returns a Router using the given HTTP opener for URLs.
func NewRouter(remote Opener) *Router {
	return &Router{File: File{}, HTTP: remote}
}

// For picks the opener responsible for location.
func (r *Router) For(location string) Opener {
	if IsRemote(location) && r.HTTP != nil {
		return r.HTTP
	}
	if r.File == nil {
		return File{}
	}
	return r.File
}

func (r *Router) Stat(ctx context.Context, location string) (Info, error) {
	return r.For(location).Stat(ctx, location)
}

func (r *Router) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	return r.For(location).Open(ctx, location)
}

var _ Opener = (*Router)(nil)
