package store

import (
	"log/slog"
	"time"
)

// Kind selects a storage backend
type Kind string

const (
	KindAuto   Kind = ""       // Pick from the file extension
	KindJSON   Kind = "json"   // Single JSON document
	KindSQLite Kind = "sqlite" // SQLite database
)

type options struct {
	kind        Kind
	fs          FileSystem
	lockFactory FileLockFactory
	logger      *slog.Logger
	timeFunc    func() time.Time
}

// Option configures a backend
type Option func(*options)

// WithKind forces a backend instead of guessing from the path
func WithKind(kind Kind) Option {
	return func(o *options) {
		o.kind = kind
	}
}

// WithFileSystem sets a custom FileSystem for the JSON backend
func WithFileSystem(fs FileSystem) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithFileLockFactory sets a custom FileLockFactory for the JSON backend
func WithFileLockFactory(factory FileLockFactory) Option {
	return func(o *options) {
		o.lockFactory = factory
	}
}

// WithLogger sets the logger for load diagnostics
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithTimeFunc sets a custom clock for document metadata, for tests
func WithTimeFunc(fn func() time.Time) Option {
	return func(o *options) {
		o.timeFunc = fn
	}
}

func newOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.fs == nil {
		o.fs = OSFileSystem{}
	}
	if o.lockFactory == nil {
		o.lockFactory = FlockFactory{}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.timeFunc == nil {
		o.timeFunc = time.Now
	}
	return o
}
