package logger

// Console implements a console based logger.
type Console struct {
	Enabled          bool `mapstructure:"enabled"`
	UseConsoleWriter bool `mapstructure:"use_console_writer"`
}

// LogFile implements a rolling file based logger.
type LogFile struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`

	AccessLog string `mapstructure:"access"`
	InfoLog   string `mapstructure:"info"`
	ErrorLog  string `mapstructure:"error"`

	MaxSize    int `mapstructure:"maxsize"` // megabytes
	MaxBackups int `mapstructure:"maxbackups"`
	MaxAge     int `mapstructure:"maxage"` // days
}

// Log implements the logger config.
type Log struct {
	LogLevel string `mapstructure:"loglevel"` // trace, debug, info, warn, error.

	// EnableAccessLogToConsole writes the HTTP access log to stdout as well.
	// Has no effect when Console.Enabled is false.
	EnableAccessLogToConsole bool `mapstructure:"access_log_to_console"`
	ReportCaller             bool `mapstructure:"report_caller"`

	AppName     string `mapstructure:"appname"`
	ServiceName string `mapstructure:"servicename"`

	Console Console `mapstructure:"console"`
	File    LogFile `mapstructure:"file"`
}
