// Package token estimates token usage for character-card content without a
// model-specific tokenizer. The heuristic matches what the frontend shows:
// CJK characters cost 1/0.7 tokens each, everything else 1/4.
package token

import (
	"strconv"
	"strings"
	"unicode"

	"cardforge-be/pkg/card"
)

// DefaultBudget is the context budget cards are measured against.
const DefaultBudget = 8000

// WarningLevel grades how close a card is to its token budget.
type WarningLevel string

const (
	LevelNone    WarningLevel = ""
	LevelWarning WarningLevel = "warning"
	LevelDanger  WarningLevel = "danger"
)

var cjkRanges = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x3000, Hi: 0x303f, Stride: 1}, // CJK symbols and punctuation
		{Lo: 0x3040, Hi: 0x309f, Stride: 1}, // Hiragana
		{Lo: 0x30a0, Hi: 0x30ff, Stride: 1}, // Katakana
		{Lo: 0x3400, Hi: 0x4dbf, Stride: 1}, // CJK extension A
		{Lo: 0x4e00, Hi: 0x9fff, Stride: 1}, // CJK unified ideographs
		{Lo: 0xac00, Hi: 0xd7af, Stride: 1}, // Hangul
		{Lo: 0xf900, Hi: 0xfaff, Stride: 1}, // CJK compatibility ideographs
		{Lo: 0xff00, Hi: 0xffef, Stride: 1}, // Fullwidth forms
	},
}

// Estimate returns the estimated token count for a text string.
func Estimate(text string) int {
	if text == "" {
		return 0
	}

	cjk := 0
	total := 0
	for _, r := range text {
		total++
		if unicode.Is(cjkRanges, r) {
			cjk++
		}
	}

	return int(float64(cjk)/0.7 + float64(total-cjk)/4)
}

// LorebookEstimate breaks down an estimate per enabled entry.
type LorebookEstimate struct {
	Total   int            `json:"total"`
	Entries map[string]int `json:"entries"`
}

// EstimateLorebook sums content plus keys for every enabled entry. Disabled
// entries cost nothing; they are never injected into context.
func EstimateLorebook(book *card.Lorebook) LorebookEstimate {
	result := LorebookEstimate{Entries: map[string]int{}}
	if book == nil {
		return result
	}

	for i, entry := range book.Entries {
		if !entry.Enabled {
			continue
		}

		tokens := Estimate(entry.Content)
		if len(entry.Keys) > 0 {
			tokens += Estimate(strings.Join(entry.Keys, " "))
		}
		if len(entry.SecondaryKeys) > 0 {
			tokens += Estimate(strings.Join(entry.SecondaryKeys, " "))
		}

		id := entryId(entry, i)
		result.Entries[id] = tokens
		result.Total += tokens
	}
	return result
}

func entryId(entry card.LorebookEntry, index int) string {
	switch id := entry.Id.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatInt(int64(id), 10)
	case int:
		return strconv.Itoa(id)
	}
	return "entry_" + strconv.Itoa(index)
}

// EstimateCard returns a per-field breakdown plus a "total" entry.
func EstimateCard(c *card.Card) map[string]int {
	data := c.Data
	breakdown := map[string]int{}

	textFields := []struct {
		name  string
		value string
	}{
		{"name", data.Name},
		{"description", data.Description},
		{"first_mes", data.FirstMes},
		{"personality", data.Personality},
		{"scenario", data.Scenario},
		{"mes_example", data.MesExample},
		{"system_prompt", data.SystemPrompt},
		{"post_history_instructions", data.PostHistoryInstructions},
		{"creator_notes", data.CreatorNotes},
	}
	for _, field := range textFields {
		if field.value != "" {
			breakdown[field.name] = Estimate(field.value)
		}
	}

	if len(data.AlternateGreetings) > 0 {
		total := 0
		for _, g := range data.AlternateGreetings {
			total += Estimate(g)
		}
		breakdown["alternate_greetings"] = total
	}

	if len(data.GroupOnlyGreetings) > 0 {
		total := 0
		for _, g := range data.GroupOnlyGreetings {
			total += Estimate(g)
		}
		breakdown["group_only_greetings"] = total
	}

	if data.CharacterBook != nil {
		breakdown["character_book"] = EstimateLorebook(data.CharacterBook).Total
	}

	total := 0
	for _, v := range breakdown {
		total += v
	}
	breakdown["total"] = total

	return breakdown
}

// Warning grades currentTokens against budget: none below 70%, warning from
// 70%, danger from 90%.
func Warning(currentTokens, budget int) WarningLevel {
	if budget <= 0 {
		return LevelNone
	}

	percentage := float64(currentTokens) / float64(budget) * 100
	switch {
	case percentage >= 90:
		return LevelDanger
	case percentage >= 70:
		return LevelWarning
	}
	return LevelNone
}
