package constants

// DefaultGitRef is the default Git branch a service tracks when the
// blueprint does not declare one.
const DefaultGitRef = "main"

// BlueprintFileName is the canonical blueprint file name.
const BlueprintFileName = "slipway.yaml"

// BlueprintFileNames are the file names probed, in order, when no
// blueprint path is given. render.yaml is read for compatibility since
// the schema is the same shape.
var BlueprintFileNames = []string{"slipway.yaml", "slipway.yml", "render.yaml"}

// BlueprintFilePermissions is the file system permissions for blueprint
// files. Blueprints are committed to repositories, so world-readable.
const BlueprintFilePermissions = 0o644
