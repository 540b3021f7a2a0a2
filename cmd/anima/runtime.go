package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Origin-of-Miracles/Anima/agent"
	"github.com/Origin-of-Miracles/Anima/internal/logutil"
	"github.com/Origin-of-Miracles/Anima/memory"
	"github.com/Origin-of-Miracles/Anima/persona"
	"github.com/Origin-of-Miracles/Anima/providers/openai"
	"github.com/Origin-of-Miracles/Anima/throttle"
)

// runtime is the wired process: one registry, one throttle, one store,
// shared by every subcommand.
type runtime struct {
	logger   *slog.Logger
	registry *agent.Registry
	throttle *throttle.Throttle
}

func runtimeFromViper(ctx context.Context) (*runtime, error) {
	logger, err := logutil.FromViper()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	client := openai.New(openai.Config{
		BaseURL:     viper.GetString("llm.base_url"),
		APIKey:      viper.GetString("llm.api_key"),
		Model:       viper.GetString("llm.model"),
		MaxTokens:   viper.GetInt("llm.max_tokens"),
		Temperature: viper.GetFloat64("llm.temperature"),
		Timeout:     viper.GetDuration("llm.request_timeout"),
	})

	store, err := storeFromViper(ctx)
	if err != nil {
		return nil, err
	}

	personas, err := persona.NewDirStore(expandPath(viper.GetString("personas.dir")), persona.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("load personas: %w", err)
	}

	th := throttle.New(
		viper.GetInt("throttle.max_concurrent"),
		viper.GetInt("throttle.requests_per_minute"),
		throttle.WithLogger(logger),
		throttle.WithAcquireTimeout(viper.GetDuration("throttle.acquire_timeout")),
	)

	registry := agent.NewRegistry(client, personas, store,
		agent.WithRegistryThrottle(th),
		agent.WithRegistryLogger(logger),
	)

	return &runtime{logger: logger, registry: registry, throttle: th}, nil
}

func storeFromViper(ctx context.Context) (memory.Store, error) {
	backend := strings.ToLower(strings.TrimSpace(viper.GetString("memory.backend")))
	switch backend {
	case "", "file":
		store, err := memory.NewFileStore(expandPath(viper.GetString("memory.dir")))
		if err != nil {
			return nil, fmt.Errorf("open memory dir: %w", err)
		}
		return store, nil
	case "redis":
		store, err := memory.NewRedisStoreFromAddr(ctx,
			viper.GetString("memory.redis.addr"),
			viper.GetString("memory.redis.password"),
			viper.GetInt("memory.redis.db"),
		)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown memory.backend: %s", backend)
	}
}

func expandPath(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err == nil && strings.TrimSpace(home) != "" {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}
