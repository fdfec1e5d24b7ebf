package models

import "time"

// Config represents the application configuration
type Config struct {
	API      APIConfig
	Agent    AgentConfig
	Retry    RetryConfig
	Listener ListenerConfig
	Database DatabaseConfig
	Dev      DevServerConfig
}

// APIConfig holds backend-of-record connection settings
type APIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	Token        string
	TokenFile    string
	NetworksFile string
	Network      string
}

// AgentConfig selects the signing agent. RPCURL wins over KeyHex when both are set.
type AgentConfig struct {
	RPCURL string
	KeyHex string
}

// RetryConfig bounds retries of read/verify calls
type RetryConfig struct {
	MaxRetries uint64
	Base       time.Duration
}

// ListenerConfig holds notification poller settings
type ListenerConfig struct {
	PollingInterval time.Duration
}

// DatabaseConfig holds reference-backend database settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// DevServerConfig holds reference-backend settings
type DevServerConfig struct {
	ListenAddr   string
	JWTSecret    string
	TokenTTL     time.Duration
	ChallengeTTL time.Duration
}
