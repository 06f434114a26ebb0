package log

// LoggerConfig controls level, output format and optional file rotation.
type LoggerConfig struct {
	Level   string           `mapstructure:"level" yaml:"level"`
	Pattern string           `mapstructure:"pattern" yaml:"pattern"`
	Time    string           `mapstructure:"time" yaml:"time"`
	File    *FileAppenderOpt `mapstructure:"file,omitempty" yaml:"file,omitempty"`
}

// FileAppenderOpt configures the rotating file appender.
type FileAppenderOpt struct {
	Filename   string `mapstructure:"filename" yaml:"filename"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // MB
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

func defaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:   "info",
		Pattern: "%time [%level]%field %msg\n",
		Time:    "2006-01-02 15:04:05",
	}
}
