package extract

import "errors"

// ErrNoPages is returned when a document rasterizes to zero pages.
var ErrNoPages = errors.New("document has no pages")

// ErrUnsupportedFormat is returned for uploads that no rasterizer accepts.
var ErrUnsupportedFormat = errors.New("unsupported document format")
