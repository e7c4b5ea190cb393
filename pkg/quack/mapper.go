package quack

import (
	"fmt"
	"strings"
	"time"

	"cardforge-be/pkg/card"
)

const defaultBookName = "Quack Lore"

// FormatAttrs renders Quack character attributes as "[Label: Value]" lines.
// Greeting HTML elsewhere is preserved byte for byte; attrs are the one
// place the importer reformats content.
func FormatAttrs(attrs []map[string]interface{}, visibleOnly bool) string {
	var lines []string
	for _, attr := range attrs {
		if visibleOnly {
			if visible, ok := attr["isVisible"].(bool); ok && !visible {
				continue
			}
		}
		label := stringValue(attr["label"])
		value := stringValue(attr["value"])
		if label != "" && value != "" {
			lines = append(lines, fmt.Sprintf("[%s: %s]", label, value))
		}
	}
	return strings.Join(lines, "\n")
}

// ExtractPersonality returns the value of the attr labeled "personality".
func ExtractPersonality(attrs []map[string]interface{}) string {
	for _, attr := range attrs {
		if strings.EqualFold(stringValue(attr["label"]), "personality") {
			return stringValue(attr["value"])
		}
	}
	return ""
}

// ExtractGreetings picks first_mes and alternate greetings. Priority:
// an explicit alternate_greetings field, then prologue.greetings, then
// firstMes alone. Greeting strings pass through untouched.
func ExtractGreetings(info map[string]interface{}) (string, []string) {
	firstMes := stringValue(info["firstMes"])

	if alts := stringSlice(info["alternate_greetings"]); len(alts) > 0 {
		return firstMes, alts
	}

	prologue, _ := info["prologue"].(map[string]interface{})
	rawGreetings, _ := prologue["greetings"].([]interface{})

	var values []string
	for _, g := range rawGreetings {
		switch v := g.(type) {
		case map[string]interface{}:
			values = append(values, stringValue(v["value"]))
		case string:
			values = append(values, v)
		}
	}

	if len(values) > 0 {
		if firstMes == "" {
			return values[0], values[1:]
		}
		return firstMes, values
	}
	return firstMes, []string{}
}

// ExtractTags collects tags, falling back to image generation tags, and
// always includes "QuackAI" so imported cards are identifiable.
func ExtractTags(info, char map[string]interface{}) []string {
	tags := stringSlice(info["tags"])

	if len(tags) == 0 {
		generate, _ := char["generateImage"].(map[string]interface{})
		allTags, _ := generate["allTags"].([]interface{})
		for _, raw := range allTags {
			tag, ok := raw.(map[string]interface{})
			if !ok {
				continue
			}
			label := stringValue(tag["label"])
			if label == "" {
				label = stringValue(tag["value"])
			}
			if label != "" {
				tags = append(tags, label)
			}
		}
	}

	for _, t := range tags {
		if t == "QuackAI" {
			return tags
		}
	}
	return append([]string{"QuackAI"}, tags...)
}

// MapLorebookEntry converts one Quack lorebook entry. Constant entries
// survive with empty keys; selective is set only when secondary keys exist.
func MapLorebookEntry(entry map[string]interface{}, index int) card.LorebookEntry {
	keys := stringSlice(entry["keywords"])
	if len(keys) == 0 {
		keys = stringSlice(entry["triggerKeywords"])
	}

	constant, _ := entry["constant"].(bool)

	if len(keys) == 0 && !constant {
		if name := stringValue(entry["name"]); name != "" {
			keys = []string{name}
		}
	}

	secondaryKeys := stringSlice(entry["secondaryKeys"])
	if len(secondaryKeys) == 0 {
		secondaryKeys = stringSlice(entry["secondary_keys"])
	}
	selective := len(secondaryKeys) > 0

	position := "before_char"
	if pos, ok := entry["position"].(float64); ok && pos == 1 {
		position = "after_char"
	}

	extensions := map[string]interface{}{}
	if v, ok := entry["matchWholeWords"]; ok {
		extensions["match_whole_words"] = v
	}
	if v, ok := entry["scanDepth"]; ok {
		extensions["scan_depth"] = v
	}
	if v, ok := entry["depth"]; ok && !isZeroValue(v) {
		extensions["depth"] = v
	}
	if v, ok := entry["role"]; ok && !isZeroValue(v) {
		extensions["role"] = v
	}

	enabled := true
	if v, ok := entry["enabled"].(bool); ok {
		enabled = v
	}

	caseSensitive := false
	priority := 10
	return card.LorebookEntry{
		Keys:           keys,
		Content:        stringValue(entry["content"]),
		Extensions:     extensions,
		Enabled:        enabled,
		InsertionOrder: index + 1,
		CaseSensitive:  &caseSensitive,
		UseRegex:       false,
		Constant:       &constant,
		Name:           stringValue(entry["name"]),
		Priority:       &priority,
		Id:             index + 1,
		Selective:      &selective,
		SecondaryKeys:  secondaryKeys,
		Position:       position,
	}
}

// MapLorebook converts a list of Quack entries into a CCv3 world book.
func MapLorebook(entries []map[string]interface{}, bookName string) *card.Lorebook {
	if bookName == "" {
		bookName = defaultBookName
	}

	mapped := make([]card.LorebookEntry, 0, len(entries))
	for i, entry := range entries {
		mapped = append(mapped, MapLorebookEntry(entry, i))
	}

	scanDepth := 50
	tokenBudget := 500
	recursive := false
	return &card.Lorebook{
		Name:              bookName,
		Description:       "",
		ScanDepth:         &scanDepth,
		TokenBudget:       &tokenBudget,
		RecursiveScanning: &recursive,
		Extensions:        map[string]interface{}{},
		Entries:           mapped,
	}
}

// MapToV3 converts fetched Quack character data into a Character Card V3.
func MapToV3(info map[string]interface{}, lorebookEntries []map[string]interface{}) *card.Card {
	charList, _ := info["charList"].([]interface{})
	char := map[string]interface{}{}
	if len(charList) > 0 {
		if c, ok := charList[0].(map[string]interface{}); ok {
			char = c
		}
	}

	name := stringValue(char["name"])
	if name == "" {
		name = stringValue(info["name"])
	}
	if name == "" {
		name = "Unknown"
	}

	var allAttrs []map[string]interface{}
	for _, key := range []string{"attrs", "adviseAttrs", "customAttrs"} {
		if raw, ok := char[key].([]interface{}); ok {
			for _, item := range raw {
				if attr, ok := item.(map[string]interface{}); ok {
					allAttrs = append(allAttrs, attr)
				}
			}
		}
	}

	intro := stringValue(info["intro"])
	if intro == "" {
		intro = stringValue(char["intro"])
	}

	description := intro
	if attrBlock := FormatAttrs(allAttrs, true); attrBlock != "" {
		if intro != "" {
			description = intro + "\n\n" + attrBlock
		} else {
			description = attrBlock
		}
	}

	firstMes, alternateGreetings := ExtractGreetings(info)

	var book *card.Lorebook
	if len(lorebookEntries) > 0 {
		book = MapLorebook(lorebookEntries, defaultBookName)
	} else if inline := InlineBookEntries(info); len(inline) > 0 {
		book = MapLorebook(inline, defaultBookName)
	}

	creator := stringValue(info["authorName"])
	if creator == "" {
		creator = stringValue(info["author"])
	}

	now := time.Now().Unix()
	return &card.Card{
		Spec:        card.SpecV3,
		SpecVersion: card.SpecVersionV3,
		Data: card.CardData{
			Name:                    name,
			Description:             description,
			Personality:             ExtractPersonality(allAttrs),
			Scenario:                "",
			FirstMes:                firstMes,
			MesExample:              "",
			CreatorNotes:            stringValue(info["charCreatorNotes"]),
			SystemPrompt:            "",
			PostHistoryInstructions: "",
			AlternateGreetings:      alternateGreetings,
			Tags:                    ExtractTags(info, char),
			Creator:                 creator,
			CharacterVersion:        "1.0",
			Extensions:              map[string]interface{}{},
			CharacterBook:           book,
			GroupOnlyGreetings:      []string{},
			Assets: []card.Asset{
				{Type: "icon", Uri: "ccdefault:", Name: "main", Ext: "png"},
			},
			CreationDate:     &now,
			ModificationDate: &now,
		},
	}
}

// MapLorebookOnly converts just the world book, for imports where the user
// wants the lore without the character.
func MapLorebookOnly(entries []map[string]interface{}, bookName string) *card.Lorebook {
	return MapLorebook(entries, bookName)
}

// InlineBookEntries flattens the entryList of every inline characterbook in
// a pasted export.
func InlineBookEntries(info map[string]interface{}) []map[string]interface{} {
	books, _ := info["characterbooks"].([]interface{})
	var entries []map[string]interface{}
	for _, raw := range books {
		book, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		list, _ := book["entryList"].([]interface{})
		for _, item := range list {
			if entry, ok := item.(map[string]interface{}); ok {
				entries = append(entries, entry)
			}
		}
	}
	return entries
}

func stringValue(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	}
	return ""
}

func stringSlice(v interface{}) []string {
	raw, ok := v.([]interface{})
	if !ok {
		return nil
	}
	var result []string
	for _, item := range raw {
		switch s := item.(type) {
		case string:
			if s != "" {
				result = append(result, s)
			}
		case float64:
			result = append(result, fmt.Sprintf("%v", s))
		}
	}
	return result
}

func isZeroValue(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	}
	return false
}
