package config

import "time"

// Patch defaults.
const (
	DefaultPatchValidate = false
)

// Diff defaults.
const (
	DefaultDiffTimeout  = time.Second
	DefaultDiffLineMode = false
	DefaultDiffCleanup  = true
)

// Output defaults.
const (
	DefaultOutputFormat = "table"
	DefaultOutputColor  = true
)

// Server defaults.
const (
	DefaultServerHost            = "127.0.0.1"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 30 * time.Second
	DefaultServerIdleTimeout     = 60 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second
	DefaultServerMaxBodyBytes    = 8 << 20 // 8 MiB.

	DefaultServerStateDir         = ""
	DefaultServerSnapshotCodec    = "gob"
	DefaultServerSnapshotCompress = true
)

// Logging defaults.
const (
	DefaultLoggingLevel  = "info"
	DefaultLoggingFormat = "text"
)

// Telemetry defaults.
const (
	DefaultTelemetryEndpoint    = ""
	DefaultTelemetryInsecure    = false
	DefaultTelemetrySampleRatio = 1.0
	DefaultTelemetryServiceName = "textpatch"
)
