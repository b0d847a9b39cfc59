package app

import (
	"io"
	"log"
)

// DefaultMaxDepth is the nesting limit applied when WithMaxDepth is not given.
const DefaultMaxDepth = 512

// Option configures decoding.
//
// Example:
//
//	node, err := app.DecodeBencode(data,
//	    app.WithMaxDepth(64),
//	    app.WithLogger(log.New(os.Stderr, "bencode: ", 0)),
//	)
type Option func(*decodeOptions)

type decodeOptions struct {
	maxDepth int         // list/dictionary levels allowed
	logger   *log.Logger // debug trace, discarded by default
}

func defaultOptions() *decodeOptions {
	return &decodeOptions{
		maxDepth: DefaultMaxDepth,
		logger:   log.New(io.Discard, "bencode: ", log.LstdFlags),
	}
}

func buildOptions(opts []Option) *decodeOptions {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMaxDepth limits how many lists and dictionaries may be nested inside
// each other. Values below 1 fall back to DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(o *decodeOptions) {
		if depth < 1 {
			depth = DefaultMaxDepth
		}
		o.maxDepth = depth
	}
}

// WithLogger sends a trace of the decoder's steps to logger. A nil logger
// keeps tracing disabled.
func WithLogger(logger *log.Logger) Option {
	return func(o *decodeOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}
