// Package domain contains pure, dependency-light domain models and types
// for the panel evaluation service.
package domain

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// PlaceholderInstruction is substituted when a judge's metaprompt parses as
// valid JSON but carries no instruction text. A partially configured judge
// is usable; only a structurally broken metaprompt is an error.
const PlaceholderInstruction = "System Prompt Missing"

// Package-level validator instance for spec validation.
// Uses go-playground/validator v10 for struct tag-based validation.
var validate = validator.New()

// JudgeSpec is the persisted configuration for a single judge: identity,
// the model endpoint it runs against, and its instruction payload.
// A JudgeSpec is immutable once loaded into an evaluator.
type JudgeSpec struct {
	// ID uniquely identifies the judge within the document store.
	ID string `json:"id" validate:"required"`

	// Name is the judge's display name, rendered verbatim in the
	// combined report.
	Name string `json:"name" validate:"required,max=64"`

	// Model references the LLM endpoint or model identifier this judge
	// evaluates with. Execution settings are resolved from the shared
	// execution context under this key, falling back to the context's
	// default when no settings are registered for it.
	Model string `json:"model" validate:"required"`

	// Metaprompt is a JSON-encoded instruction payload. It must be valid
	// JSON; at minimum it should carry a "text" field with the system
	// instruction. A missing text field is tolerated, malformed JSON
	// is not.
	Metaprompt string `json:"metaprompt" validate:"required"`
}

// Metaprompt is the structured instruction payload decoded from
// JudgeSpec.Metaprompt.
type Metaprompt struct {
	// Text is the system instruction handed to the LLM.
	Text string `json:"text"`

	// Format optionally marks the expected output shape of the judge's
	// verdict (e.g. "json").
	Format string `json:"format,omitempty"`
}

// Validate checks the spec's structural invariants, including that the
// metaprompt parses as JSON. Violations are construction-time errors, not
// runtime ones.
func (j JudgeSpec) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("judge %q: %w", j.ID, err)
	}
	if _, err := j.ParseMetaprompt(); err != nil {
		return err
	}
	return nil
}

// ParseMetaprompt decodes the instruction payload. It returns a ConfigError
// when the payload is not valid JSON. An absent or empty text field is not
// an error; the placeholder instruction is substituted instead so partially
// configured judges still evaluate.
func (j JudgeSpec) ParseMetaprompt() (Metaprompt, error) {
	var meta Metaprompt
	if err := json.Unmarshal([]byte(j.Metaprompt), &meta); err != nil {
		return Metaprompt{}, NewConfigError(j.ID, "metaprompt", fmt.Errorf("%w: %v", ErrInvalidMetaprompt, err))
	}
	if meta.Text == "" {
		meta.Text = PlaceholderInstruction
	}
	return meta, nil
}

// Instruction returns the system instruction text for this judge,
// or a ConfigError when the metaprompt cannot be decoded.
func (j JudgeSpec) Instruction() (string, error) {
	meta, err := j.ParseMetaprompt()
	if err != nil {
		return "", err
	}
	return meta.Text, nil
}

// PanelSpec (an "assembly") is a named collection of judges plus role
// labels, evaluated together against one prompt. It is fetched from the
// document store for the duration of a single evaluation call and never
// mutated by the core.
type PanelSpec struct {
	// ID uniquely identifies the panel within the document store.
	ID string `json:"id" validate:"required"`

	// Judges are the member judge specs. A panel with zero judges is
	// legal and yields the empty-report sentinel.
	Judges []JudgeSpec `json:"judges"`

	// Roles are free-form labels describing the panel's intended use.
	Roles []string `json:"roles" validate:"dive,max=64"`
}

// Validate checks the panel's invariants and those of every member judge.
func (p PanelSpec) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("panel %q: %w", p.ID, err)
	}
	for _, j := range p.Judges {
		if err := j.Validate(); err != nil {
			return fmt.Errorf("panel %q: %w", p.ID, err)
		}
	}
	return nil
}
