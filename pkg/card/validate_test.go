package card

import (
	"strings"
	"testing"
)

func TestValidateRequiresName(t *testing.T) {
	c := &Card{Data: CardData{Name: "   "}}
	result := Validate(c)

	if result.Valid {
		t.Error("card without a name should be invalid")
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "name") {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
}

func TestValidateWarnings(t *testing.T) {
	c := &Card{Data: CardData{Name: "Aria"}}
	result := Validate(c)

	if !result.Valid {
		t.Fatalf("missing greeting and description are warnings, not errors: %v", result.Errors)
	}
	if len(result.Warnings) != 2 {
		t.Errorf("expected greeting + description warnings, got %v", result.Warnings)
	}
}

func TestValidateHealthyCard(t *testing.T) {
	c := &Card{Data: CardData{
		Name:        "Aria",
		Description: "a bard",
		FirstMes:    "hello",
	}}
	result := Validate(c)

	if !result.Valid || len(result.Warnings) != 0 {
		t.Errorf("healthy card flagged: errors=%v warnings=%v", result.Errors, result.Warnings)
	}
}

func TestValidateAlternateGreetingCountsAsGreeting(t *testing.T) {
	c := &Card{Data: CardData{
		Name:               "Aria",
		Description:        "a bard",
		AlternateGreetings: []string{"hi"},
	}}
	result := Validate(c)

	for _, w := range result.Warnings {
		if strings.Contains(w, "greeting") {
			t.Errorf("alternate greeting should satisfy the greeting check: %v", result.Warnings)
		}
	}
}

func TestValidateLorebookEntries(t *testing.T) {
	constant := true
	c := &Card{Data: CardData{
		Name:        "Aria",
		Description: "a bard",
		FirstMes:    "hello",
		CharacterBook: &Lorebook{Entries: []LorebookEntry{
			{Content: "keyless and not constant"},
			{Constant: &constant, Content: "constant needs no keys"},
			{Keys: []string{"k"}, Content: ""},
		}},
	}}

	result := Validate(c)
	if !result.Valid {
		t.Fatalf("lorebook issues are warnings: %v", result.Errors)
	}

	var keyless, empty int
	for _, w := range result.Warnings {
		if strings.Contains(w, "no keys") {
			keyless++
		}
		if strings.Contains(w, "empty content") {
			empty++
		}
	}
	if keyless != 1 {
		t.Errorf("keyless warnings = %d, want 1 (constant entry exempt)", keyless)
	}
	if empty != 1 {
		t.Errorf("empty content warnings = %d, want 1", empty)
	}
}
