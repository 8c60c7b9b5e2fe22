package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/MatusOllah/slogcolor"
)

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func setupLogger(level string) error {
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	handler := slogcolor.NewHandler(os.Stderr, &slogcolor.Options{
		Level:      lvl,
		TimeFormat: time.DateTime,
	})
	slog.SetDefault(slog.New(handler))
	return nil
}
