package segment

import "errors"

// ErrInvalidArgument indicates a request that violates a planning rule:
// wrong file count for the selected mode, or a non-positive length/skip.
// It is raised before any file is probed.
var ErrInvalidArgument = errors.New("invalid argument")
