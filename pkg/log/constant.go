package log

const (
	// ModeProduction selects zap's production encoder config.
	ModeProduction = "production"
	// ModeDevelopment selects zap's development encoder config.
	ModeDevelopment = "development"
	// EncodingConsole is human-readable output.
	EncodingConsole = "console"
	// EncodingJSON is one JSON object per line.
	EncodingJSON = "json"
)

// Level names accepted in ZapConfig.Level.
const (
	LevelDebug  = "debug"
	LevelInfo   = "info"
	LevelWarn   = "warn"
	LevelError  = "error"
	LevelFatal  = "fatal"
	LevelPanic  = "panic"
	LevelDPanic = "dpanic"
)

const timeFormat = "2006-01-02 15:04:05.000"
