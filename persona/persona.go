// Package persona loads and serves the character definitions the agents
// speak as. Definitions live as YAML files in a personas directory, one
// file per character.
package persona

import (
	"strings"
)

// ExampleDialogue is a single few-shot exchange injected on the first turn
// of a conversation.
type ExampleDialogue struct {
	User      string `yaml:"user"`
	Assistant string `yaml:"assistant"`
}

// Persona is one character definition.
type Persona struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name"`
	NameEn string `yaml:"name_en,omitempty"`
	School string `yaml:"school,omitempty"`
	Club   string `yaml:"club,omitempty"`
	Role   string `yaml:"role,omitempty"`

	PersonalityTraits []string `yaml:"personality_traits,omitempty"`
	SpeechPatterns    []string `yaml:"speech_patterns,omitempty"`

	SystemPrompt     string            `yaml:"system_prompt,omitempty"`
	ExampleDialogues []ExampleDialogue `yaml:"example_dialogues,omitempty"`

	// Per-persona completion overrides; zero values defer to the global
	// provider configuration.
	ModelOverride       string   `yaml:"model_override,omitempty"`
	TemperatureOverride *float64 `yaml:"temperature_override,omitempty"`
}

// BuildSystemPrompt returns the configured system prompt, or generates one
// from the structured fields when none is set.
func (p Persona) BuildSystemPrompt() string {
	if p.SystemPrompt != "" {
		return p.SystemPrompt
	}

	var b strings.Builder
	b.WriteString("你是" + p.Name)
	if p.NameEn != "" {
		b.WriteString("（" + p.NameEn + "）")
	}
	b.WriteString("。")

	if p.School != "" {
		b.WriteString("你来自" + p.School + "。")
	}
	if p.Club != "" {
		b.WriteString("你是" + p.Club + "的成员。")
	}
	if p.Role != "" {
		b.WriteString("你的身份是" + p.Role + "。")
	}

	if len(p.PersonalityTraits) > 0 {
		b.WriteString("\n\n【性格特点】\n")
		for _, trait := range p.PersonalityTraits {
			b.WriteString("- " + trait + "\n")
		}
	}
	if len(p.SpeechPatterns) > 0 {
		b.WriteString("\n【说话风格】\n")
		for _, pattern := range p.SpeechPatterns {
			b.WriteString("- " + pattern + "\n")
		}
	}
	return b.String()
}

func (p Persona) String() string {
	return "Persona{id=" + p.ID + ", name=" + p.Name + "}"
}
