package sink

import "errors"

var (
	// ErrOutputExists indicates a file target that already exists while
	// overwriting was not requested. The existing file is left untouched.
	ErrOutputExists = errors.New("output file exists")

	// ErrUnsupportedFormat indicates a file target whose extension maps
	// to no known output format.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
