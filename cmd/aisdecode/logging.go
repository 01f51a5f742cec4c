package main

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"aisdecode/internal/config"
)

// setupLogging sends the standard logger to stderr, the in-memory buffer
// served by /api/logs and, when configured, a rotated file. The returned
// closer releases the file.
func setupLogging(cfg config.LogConfig, extra io.Writer) io.Closer {
	writers := []io.Writer{os.Stderr}
	if extra != nil {
		writers = append(writers, extra)
	}
	var rotator *lumberjack.Logger
	if cfg.File != "" {
		rotator = &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxAge:     cfg.MaxAgeDays,
			MaxBackups: cfg.MaxBackups,
			Compress:   cfg.Compress,
		}
		writers = append(writers, rotator)
	}
	log.SetOutput(io.MultiWriter(writers...))
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if rotator == nil {
		return nopCloser{}
	}
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
