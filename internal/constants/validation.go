package constants

// DeploysSliceInitialCapacity is the initial capacity for deploy slices
const DeploysSliceInitialCapacity = 64

// EnvVarSplitLimit is the limit for splitting environment variable strings (KEY=VALUE)
const EnvVarSplitLimit = 2
