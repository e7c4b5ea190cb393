package card

import (
	"fmt"
	"strings"
)

// ValidationResult lists blocking errors and advisory warnings for a card.
type ValidationResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
}

// Validate checks the structural health of a card. Token-budget checks are
// layered on by the caller, which owns the estimator.
func Validate(c *Card) ValidationResult {
	var errors, warnings []string

	if strings.TrimSpace(c.Data.Name) == "" {
		errors = append(errors, "Character name is required")
	}

	if c.Data.FirstMes == "" && len(c.Data.AlternateGreetings) == 0 {
		warnings = append(warnings, "Card has no greeting messages (first_mes or alternate_greetings)")
	}

	if c.Data.Description == "" {
		warnings = append(warnings, "Card has no description")
	}

	if book := c.Data.CharacterBook; book != nil {
		for i, entry := range book.Entries {
			constant := entry.Constant != nil && *entry.Constant
			if !constant && len(entry.Keys) == 0 {
				warnings = append(warnings, fmt.Sprintf("Lorebook entry %d has no keys and is not constant", i))
			}
			if entry.Content == "" {
				warnings = append(warnings, fmt.Sprintf("Lorebook entry %d has empty content", i))
			}
		}
	}

	return ValidationResult{
		Valid:    len(errors) == 0,
		Errors:   errors,
		Warnings: warnings,
	}
}
