package host

import "io"

// Stats carries the outcome of one compilation pass as reported by the
// build tool.
type Stats struct {
	Errors []string
}

// HasErrors reports whether the compilation produced errors.
func (s Stats) HasErrors() bool {
	return len(s.Errors) > 0
}

// CompileEvent is the "environment finished compiling" notification the
// build tool delivers after every compilation pass.
type CompileEvent struct {
	Environment  string
	FirstCompile bool
	Watch        bool
	Stats        Stats
}

// Info describes the pieces of the host build tool the lifecycle manager
// reads back: the bundler identifier injected into child environments and
// the output streams child output is forwarded to.
type Info struct {
	BundlerType string
	Stdout      io.Writer
	Stderr      io.Writer
}
