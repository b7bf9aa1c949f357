package store

import "time"

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// boot knobs, zero picks the defaults in openPG
	ConnectRetries int
	PingTimeout    time.Duration

	// TxRetries bounds reruns of a transaction that hit a serialization failure or deadlock
	TxRetries int
}

// CHConfig configures clickhouse connectivity
// Role and Tag end up in system.query_log client info
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string
	Tag     string
}
