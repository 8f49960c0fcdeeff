package config

type Config interface {
	EnvConfig
	APIConfig
	IdentityConfig
	MediaConfig
}

type mainConfig struct {
	EnvVars
	API
	Identity
	Media
}

func New() Config {
	return mainConfig{}
}
