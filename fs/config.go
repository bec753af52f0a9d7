package fs

// Config is the global logging config. It is filled from the
// configmap by the command line layer before any Fs is made.
var Config = NewConfig()

// ConfigInfo is the process wide config
type ConfigInfo struct {
	LogLevel   LogLevel `config:"log_level"`
	UseJSONLog bool     `config:"use_json_log"`
}

// NewConfig creates a new config with everything set to the default
// value.
func NewConfig() *ConfigInfo {
	return &ConfigInfo{
		LogLevel: LogLevelNotice,
	}
}
