package card

import (
	"cardforge-be/pkg/document"
)

// IsV2Format reports whether a decoded card document is in the legacy V2
// shape rather than V3.
func IsV2Format(doc document.Document) bool {
	if doc["spec"] == SpecV3 {
		return false
	}
	if doc["spec_version"] == SpecVersionV3 {
		return false
	}
	if nested, ok := doc["data"].(map[string]interface{}); ok {
		if nested["spec"] == SpecV3 {
			return false
		}
		if _, hasName := nested["name"]; hasName {
			return true
		}
	}
	_, hasName := doc["name"]
	return hasName
}

// MigrateV2ToV3 converts a V2 card document to V3. Migration is performed on
// the raw document so unknown fields pass straight through; known fields get
// V3 defaults when absent.
func MigrateV2ToV3(doc document.Document) document.Document {
	source := doc
	if nested, ok := doc["data"].(map[string]interface{}); ok {
		source = nested
	}

	data := document.Clone(source)
	applyDataDefaults(data)

	if book, ok := data["character_book"].(map[string]interface{}); ok {
		migrateLorebook(book)
	} else if data["character_book"] != nil {
		// A non-object character_book is unusable; normalize to absent.
		delete(data, "character_book")
	}

	if assets, ok := data["assets"].([]interface{}); ok {
		migrateAssets(assets)
	}

	return document.Document{
		"spec":         SpecV3,
		"spec_version": SpecVersionV3,
		"data":         data,
	}
}

// applyDataDefaults fills in V3-required fields that V2 cards may omit.
func applyDataDefaults(data map[string]interface{}) {
	stringDefaults := []string{
		"name", "description", "creator", "character_version", "mes_example",
		"system_prompt", "post_history_instructions", "first_mes",
		"personality", "scenario", "creator_notes",
	}
	for _, key := range stringDefaults {
		if _, ok := data[key].(string); !ok {
			data[key] = ""
		}
	}

	listDefaults := []string{"tags", "alternate_greetings", "group_only_greetings"}
	for _, key := range listDefaults {
		if _, ok := data[key].([]interface{}); !ok {
			data[key] = []interface{}{}
		}
	}

	if _, ok := data["extensions"].(map[string]interface{}); !ok {
		data["extensions"] = map[string]interface{}{}
	}
}

func migrateLorebook(book map[string]interface{}) {
	for _, key := range []string{"name", "description"} {
		if _, ok := book[key].(string); !ok {
			book[key] = ""
		}
	}
	if _, ok := book["extensions"].(map[string]interface{}); !ok {
		book["extensions"] = map[string]interface{}{}
	}

	entries, ok := book["entries"].([]interface{})
	if !ok {
		book["entries"] = []interface{}{}
		return
	}

	kept := make([]interface{}, 0, len(entries))
	for _, raw := range entries {
		entry, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := entry["keys"].([]interface{}); !ok {
			entry["keys"] = []interface{}{}
		}
		if _, ok := entry["content"].(string); !ok {
			entry["content"] = ""
		}
		if _, ok := entry["extensions"].(map[string]interface{}); !ok {
			entry["extensions"] = map[string]interface{}{}
		}
		if _, ok := entry["enabled"].(bool); !ok {
			entry["enabled"] = true
		}
		if _, ok := entry["insertion_order"]; !ok {
			entry["insertion_order"] = 0
		}
		if _, ok := entry["use_regex"].(bool); !ok {
			entry["use_regex"] = false
		}
		if _, ok := entry["secondary_keys"].([]interface{}); !ok {
			entry["secondary_keys"] = []interface{}{}
		}
		kept = append(kept, entry)
	}
	book["entries"] = kept
}

func migrateAssets(assets []interface{}) {
	for _, raw := range assets {
		asset, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		if _, ok := asset["type"].(string); !ok {
			asset["type"] = "icon"
		}
		if _, ok := asset["uri"].(string); !ok {
			asset["uri"] = "ccdefault:"
		}
		if _, ok := asset["name"].(string); !ok {
			asset["name"] = "main"
		}
		if _, ok := asset["ext"].(string); !ok {
			asset["ext"] = "png"
		}
	}
}
