package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/goliatone/go-formcalc/pkg/form"
)

const doneOption = "[done]"

// Session edits a form interactively: pick a field, enter a value, see the
// recalculated values, repeat until done.
type Session struct {
	Driver PromptDriver
	Form   *form.Memory
	Render func(map[string]any) (string, error)
}

// Run loops until the user picks done or aborts. Abort is not an error.
func (s Session) Run(ctx context.Context) error {
	if s.Driver == nil || s.Form == nil {
		return errors.New("cli: session requires a driver and a form")
	}
	render := s.Render
	if render == nil {
		render = EncodeValues
	}

	for {
		options := append(s.Form.RegisteredFields(), doneOption)
		idx, err := s.Driver.Select(ctx, SelectConfig{
			Message:      "Field to change",
			Options:      options,
			DefaultIndex: len(options) - 1,
			PageSize:     15,
		})
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cli: select field: %w", err)
		}
		if idx < 0 || idx >= len(options) || options[idx] == doneOption {
			return nil
		}

		name := options[idx]
		current, _ := s.Form.Get(name)
		raw, err := s.Driver.Input(ctx, InputConfig{
			Message: name,
			Default: EncodeValue(current),
			Help:    "JSON value; bare text is taken as a string",
		})
		if errors.Is(err, ErrAborted) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cli: input %s: %w", name, err)
		}

		if err := s.Form.Change(name, ParseValue(raw)); err != nil {
			if infoErr := s.Driver.Info(ctx, fmt.Sprintf("change %s: %v", name, err)); infoErr != nil {
				return infoErr
			}
			continue
		}

		out, err := render(s.Form.Values())
		if err != nil {
			return err
		}
		if err := s.Driver.Info(ctx, out); err != nil {
			return err
		}
	}
}
