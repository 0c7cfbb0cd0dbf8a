package constants

// ConfigDirName is the name of the configuration directory in the user's home directory.
const ConfigDirName = "." + ProjectName

// ConfigFileName is the name of the global configuration file.
const ConfigFileName = "config.yaml"

// SecretsFileName is the name of the out-of-band secret store file.
const SecretsFileName = "secrets.yaml"

// RegistryFileName is the name of the service registry state file.
const RegistryFileName = "services.json"

// ConfigDirPath returns the full path to the global configuration directory.
func ConfigDirPath(homeDir string) string {
	return homeDir + "/" + ConfigDirName
}

// ConfigFilePath returns the full path to the global configuration file.
func ConfigFilePath(homeDir string) string {
	return ConfigDirPath(homeDir) + "/" + ConfigFileName
}

// SecretsFilePath returns the full path to the secret store file.
func SecretsFilePath(homeDir string) string {
	return ConfigDirPath(homeDir) + "/" + SecretsFileName
}

// ConfigDirPermissions is the file system permissions for config directory (0750).
const ConfigDirPermissions = 0o750

// ConfigFilePermissions is the file system permissions for config file (0600).
const ConfigFilePermissions = 0o600

// SecretsFilePermissions is the file system permissions for the secret store.
// Secret values live here instead of in blueprint files, so owner-only.
const SecretsFilePermissions = 0o600

// DefaultListenAddr is the default bind address for the local daemon.
const DefaultListenAddr = "127.0.0.1"

// DefaultListenPort is the default port for the local daemon.
const DefaultListenPort = 8035

// DefaultDeployParallelism is the default number of concurrent deploys.
const DefaultDeployParallelism = 2

// DefaultLogBufferSize is the number of log events retained per deploy.
const DefaultLogBufferSize = 2000
