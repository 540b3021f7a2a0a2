package main

import (
	"time"

	"github.com/spf13/viper"
)

func initViperDefaults() {
	// Completion endpoint.
	viper.SetDefault("llm.base_url", "https://api.openai.com/v1")
	viper.SetDefault("llm.api_key", "")
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.request_timeout", 30*time.Second)

	// Shared request throttle.
	viper.SetDefault("throttle.max_concurrent", 5)
	viper.SetDefault("throttle.requests_per_minute", 60)
	viper.SetDefault("throttle.acquire_timeout", 30*time.Second)

	// Memory persistence: backend file|redis.
	viper.SetDefault("memory.backend", "file")
	viper.SetDefault("memory.dir", "~/.anima/memory")
	viper.SetDefault("memory.redis.addr", "127.0.0.1:6379")
	viper.SetDefault("memory.redis.password", "")
	viper.SetDefault("memory.redis.db", 0)

	// Persona definitions.
	viper.SetDefault("personas.dir", "~/.anima/personas")

	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.add_source", false)
	viper.SetDefault("trace", false)
}
