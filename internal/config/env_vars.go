package config

import "os"

const (
	appNameVar     = "APP_NAME"
	folderEnvVar   = "FOLDER"
	cacheSecretVar = "SESSION_CACHE_SECRET"
)

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetSessionCacheSecret() string
	GetEnv() string
}

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Social Client")
}

func (EnvVars) GetDataFolder() string {
	return GetEnv(folderEnvVar, "./data")
}

// GetSessionCacheSecret returns the passphrase used to derive the key that
// encrypts the on-disk session cache.
func (EnvVars) GetSessionCacheSecret() string {
	return GetEnv(cacheSecretVar, "go-social-client")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
