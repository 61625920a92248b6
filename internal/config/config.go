package config

type Config interface {
	EnvConfig
	SecurityConfig
	DatabaseConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type DatabaseConfig interface {
	GetDatabaseDSN() string
	GetRedisAddr() string
}

type mainConfig struct {
	EnvVars
	Security
	Database
}

func New() Config {
	return mainConfig{}
}
