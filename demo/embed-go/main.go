// Command embed-go shows how to embed the anima runtime in a Go program
// without the CLI: wire a completion client, a memory store and a persona
// source, then talk to a persona through the registry.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Origin-of-Miracles/Anima/agent"
	"github.com/Origin-of-Miracles/Anima/memory"
	"github.com/Origin-of-Miracles/Anima/mood"
	"github.com/Origin-of-Miracles/Anima/persona"
	"github.com/Origin-of-Miracles/Anima/providers/openai"
	"github.com/Origin-of-Miracles/Anima/throttle"
)

func main() {
	var (
		personaID = flag.String("persona", "arona", "Persona id to talk to.")
		message   = flag.String("message", "你好，今天过得怎么样？", "Message to send.")
		model     = flag.String("model", "gpt-4o-mini", "Model name.")
		baseURL   = flag.String("base-url", "https://api.openai.com/v1", "OpenAI-compatible base URL.")
		apiKey    = flag.String("api-key", os.Getenv("OPENAI_API_KEY"), "API key (defaults to OPENAI_API_KEY).")
		dataDir   = flag.String("data-dir", "./anima-data", "Directory for personas and memory.")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := openai.New(openai.Config{
		BaseURL: *baseURL,
		APIKey:  *apiKey,
		Model:   *model,
	})

	store, err := memory.NewFileStore(*dataDir + "/memory")
	if err != nil {
		fail(err)
	}
	personas, err := persona.NewDirStore(*dataDir + "/personas")
	if err != nil {
		fail(err)
	}

	registry := agent.NewRegistry(client, personas, store,
		agent.WithRegistryThrottle(throttle.New(throttle.DefaultMaxConcurrent, throttle.DefaultRequestsPerMinute)),
	)

	// Optional: hand the agent some context about its surroundings.
	a, err := registry.Get(ctx, *personaID)
	if err != nil {
		fail(err)
	}
	a.SetPerception(&agent.Perception{TimeOfDay: "傍晚"})

	result, err := registry.Chat(ctx, *personaID, *message)
	if err != nil {
		fail(err)
	}
	fmt.Println(result.Content)

	snap, desc, err := registry.Mood(ctx, *personaID)
	if err != nil {
		fail(err)
	}
	fmt.Printf("mood: %s (%s, intensity %.2f)\n", desc, snap.State, snap.Intensity)

	// A gift nudges the mood; the change lands in memory as an emotion entry.
	if err := registry.TriggerMood(ctx, *personaID, mood.TriggerReceivedGift, 1); err != nil {
		fail(err)
	}

	if err := registry.EndSession(ctx, *personaID); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
