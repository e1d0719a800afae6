package cli

// Export internal functions for testing.

// RunMix exports runMix for testing.
var RunMix = runMix

// ParseMixOptions exports parseMixOptions for testing.
var ParseMixOptions = parseMixOptions

// MixOptions exports mixOptions for testing.
type MixOptions = mixOptions

// RawMixFlags exports rawMixFlags for testing.
type RawMixFlags = rawMixFlags

// SelectMode exports selectMode for testing.
var SelectMode = selectMode

// SecondsToDuration exports secondsToDuration for testing.
var SecondsToDuration = secondsToDuration

// ResolveBitrate exports resolveBitrate for testing.
var ResolveBitrate = resolveBitrate

// ResolveParallel exports resolveParallel for testing.
var ResolveParallel = resolveParallel

// RunSetup exports runSetup for testing.
var RunSetup = runSetup

// PromptToolPath exports promptToolPath for testing.
var PromptToolPath = promptToolPath

// RunConfigSet exports runConfigSet for testing.
var RunConfigSet = runConfigSet

// RunConfigGet exports runConfigGet for testing.
var RunConfigGet = runConfigGet

// RunConfigList exports runConfigList for testing.
var RunConfigList = runConfigList

// RunConfigPath exports runConfigPath for testing.
var RunConfigPath = runConfigPath
