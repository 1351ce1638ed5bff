package config

import (
	_ "embed"
	"fmt"

	"github.com/magiconair/properties"
)

//go:embed zemon.properties
var defaultPrompts string

// Prompts holds the text templates used by the chat pipeline.
type Prompts struct {
	SystemPrompt       string
	ClassifierPrompt   string // one %s: the user message
	SearchInstructions string // one %s: the formatted search block
	SearchFailedNote   string
	ApologyGeneric     string
	ApologySearch      string
	ApologyThrottled   string
	AnswerContext      string // %s: results as JSON, %s: the query
}

// LoadPrompts parses the embedded defaults and, when path is set, overlays
// the keys found in that file.
func LoadPrompts(path string) (Prompts, error) {
	props, err := properties.LoadString(defaultPrompts)
	if err != nil {
		return Prompts{}, fmt.Errorf("parse default prompts: %w", err)
	}
	if path != "" {
		override, err := properties.LoadFile(path, properties.UTF8)
		if err != nil {
			return Prompts{}, fmt.Errorf("load prompts %s: %w", path, err)
		}
		props.Merge(override)
	}
	return Prompts{
		SystemPrompt:       props.GetString("system_prompt", ""),
		ClassifierPrompt:   props.GetString("classifier_prompt", ""),
		SearchInstructions: props.GetString("search_instructions", ""),
		SearchFailedNote:   props.GetString("search_failed_note", ""),
		ApologyGeneric:     props.GetString("apology_generic", ""),
		ApologySearch:      props.GetString("apology_search", ""),
		ApologyThrottled:   props.GetString("apology_throttled", ""),
		AnswerContext:      props.GetString("answer_context", ""),
	}, nil
}

// DefaultPrompts returns the embedded templates. It panics only if the
// embedded file is malformed.
func DefaultPrompts() Prompts {
	p, err := LoadPrompts("")
	if err != nil {
		panic(err)
	}
	return p
}
