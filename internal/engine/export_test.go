package engine

// Export internal functions for testing.
// This file is only compiled during tests (suffix _test.go).

// ParseDuration exports parseDuration for testing.
var ParseDuration = parseDuration

// ParseTimeComponents exports parseTimeComponents for testing.
var ParseTimeComponents = parseTimeComponents

// FormatTime exports formatTime for testing.
var FormatTime = formatTime

// PlayArgs exports playArgs for testing.
var PlayArgs = playArgs

// --- Dependency injection exports ---

// CommandRunner exports commandRunner interface for testing.
type CommandRunner = commandRunner

// EnvProvider exports envProvider interface for testing.
type EnvProvider = envProvider

// FileStatter exports fileStatter interface for testing.
type FileStatter = fileStatter
