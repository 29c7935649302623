package log

import (
	"io"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation limits for log files.
const (
	// MaxFileSizeMB is the size a log file grows to before it is rotated.
	MaxFileSizeMB = 10
	// MaxBackups is the number of rotated files kept.
	MaxBackups = 2
	// MaxAgeDays is how long rotated files are kept.
	MaxAgeDays = 28
)

// NewFileWriter returns a writer that appends to path and rotates it by size.
// Rotated files are gzip compressed. The parent directory is created on
// first write.
func NewFileWriter(path string) io.WriteCloser {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    MaxFileSizeMB,
		MaxBackups: MaxBackups,
		MaxAge:     MaxAgeDays,
		Compress:   true,
	}
}
