package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/tracelog"
	"github.com/ogurasousui/org-directory/internal/platform/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:            "localhost",
		Port:            15432,
		User:            "org",
		Password:        "secret",
		Name:            "org_directory",
		SSLMode:         "disable",
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
	}
}

func TestBuildPoolConfig(t *testing.T) {
	t.Parallel()

	poolCfg, err := BuildPoolConfig(testDatabaseConfig(), nil)
	if err != nil {
		t.Fatalf("BuildPoolConfig returned error: %v", err)
	}

	if poolCfg.MaxConns != 20 {
		t.Errorf("expected MaxConns 20, got %d", poolCfg.MaxConns)
	}

	if poolCfg.MinConns != 5 {
		t.Errorf("expected MinConns 5, got %d", poolCfg.MinConns)
	}

	if poolCfg.MaxConnLifetime != 30*time.Minute {
		t.Errorf("unexpected MaxConnLifetime: %v", poolCfg.MaxConnLifetime)
	}

	if poolCfg.ConnConfig.Database != "org_directory" || poolCfg.ConnConfig.Port != 15432 {
		t.Errorf("unexpected connection target: %s:%d", poolCfg.ConnConfig.Database, poolCfg.ConnConfig.Port)
	}

	if poolCfg.ConnConfig.Tracer != nil {
		t.Errorf("expected no tracer without logger, got %T", poolCfg.ConnConfig.Tracer)
	}
}

func TestBuildPoolConfig_TraceLevelFollowsLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		level zapcore.Level
		want  tracelog.LogLevel
	}{
		{name: "debug traces every query", level: zapcore.DebugLevel, want: tracelog.LogLevelTrace},
		{name: "info traces failures only", level: zapcore.InfoLevel, want: tracelog.LogLevelWarn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			core, _ := observer.New(tt.level)
			poolCfg, err := BuildPoolConfig(testDatabaseConfig(), zap.New(core))
			if err != nil {
				t.Fatalf("BuildPoolConfig returned error: %v", err)
			}

			tl, ok := poolCfg.ConnConfig.Tracer.(*tracelog.TraceLog)
			if !ok {
				t.Fatalf("expected *tracelog.TraceLog, got %T", poolCfg.ConnConfig.Tracer)
			}
			if tl.LogLevel != tt.want {
				t.Errorf("expected trace level %v, got %v", tt.want, tl.LogLevel)
			}
		})
	}
}

func TestZapTraceLogger_MapsLevels(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	l := zapTraceLogger(zap.New(core))

	ctx := context.Background()
	l.Log(ctx, tracelog.LogLevelInfo, "Query", map[string]any{"sql": "SELECT 1"})
	l.Log(ctx, tracelog.LogLevelError, "Query", map[string]any{"err": "boom"})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Level != zapcore.DebugLevel || entries[0].ContextMap()["sql"] != "SELECT 1" {
		t.Errorf("unexpected info mapping: %+v", entries[0])
	}
	if entries[1].Level != zapcore.ErrorLevel {
		t.Errorf("expected error level, got %v", entries[1].Level)
	}
}
