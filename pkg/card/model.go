// Package card implements Character Card V3 parsing, migration, validation
// and PNG embedding.
//
// Cards travel through the system in two shapes. The raw document
// (document.Document) is the source of truth: it preserves every field the
// file carried, known to the V3 spec or not. The typed model below is a
// structured view decoded from the document for validation, token estimation
// and mapping; fields absent from it still survive in the document.
package card

import (
	"bytes"
	"encoding/json"

	"cardforge-be/pkg/document"
)

const (
	SpecV3        = "chara_card_v3"
	SpecVersionV3 = "3.0"
)

// LorebookEntry is a world-book entry.
type LorebookEntry struct {
	Keys           []string               `json:"keys"`
	Content        string                 `json:"content"`
	Extensions     map[string]interface{} `json:"extensions"`
	Enabled        bool                   `json:"enabled"`
	InsertionOrder int                    `json:"insertion_order"`
	CaseSensitive  *bool                  `json:"case_sensitive,omitempty"`
	UseRegex       bool                   `json:"use_regex"`
	Constant       *bool                  `json:"constant,omitempty"`
	Name           string                 `json:"name,omitempty"`
	Priority       *int                   `json:"priority,omitempty"`
	Id             interface{}            `json:"id,omitempty"` // int or string per spec
	Comment        string                 `json:"comment,omitempty"`
	Selective      *bool                  `json:"selective,omitempty"`
	SecondaryKeys  []string               `json:"secondary_keys"`
	Position       string                 `json:"position,omitempty"` // "before_char" | "after_char"
}

// Lorebook is a card's world book.
type Lorebook struct {
	Name              string                 `json:"name"`
	Description       string                 `json:"description"`
	ScanDepth         *int                   `json:"scan_depth,omitempty"`
	TokenBudget       *int                   `json:"token_budget,omitempty"`
	RecursiveScanning *bool                  `json:"recursive_scanning,omitempty"`
	Extensions        map[string]interface{} `json:"extensions"`
	Entries           []LorebookEntry        `json:"entries"`
}

// Asset is a character asset reference (icon, background, ...).
type Asset struct {
	Type string `json:"type"`
	Uri  string `json:"uri"`
	Name string `json:"name"`
	Ext  string `json:"ext"`
}

// CardData holds the V3 data block.
type CardData struct {
	Name                     string                 `json:"name"`
	Description              string                 `json:"description"`
	Tags                     []string               `json:"tags"`
	Creator                  string                 `json:"creator"`
	CharacterVersion         string                 `json:"character_version"`
	MesExample               string                 `json:"mes_example"`
	Extensions               map[string]interface{} `json:"extensions"`
	SystemPrompt             string                 `json:"system_prompt"`
	PostHistoryInstructions  string                 `json:"post_history_instructions"`
	FirstMes                 string                 `json:"first_mes"`
	AlternateGreetings       []string               `json:"alternate_greetings"`
	Personality              string                 `json:"personality"`
	Scenario                 string                 `json:"scenario"`
	CreatorNotes             string                 `json:"creator_notes"`
	CharacterBook            *Lorebook              `json:"character_book,omitempty"`
	Assets                   []Asset                `json:"assets,omitempty"`
	Nickname                 *string                `json:"nickname,omitempty"`
	CreatorNotesMultilingual map[string]string      `json:"creator_notes_multilingual,omitempty"`
	Source                   []string               `json:"source,omitempty"`
	GroupOnlyGreetings       []string               `json:"group_only_greetings"`
	CreationDate             *int64                 `json:"creation_date,omitempty"`
	ModificationDate         *int64                 `json:"modification_date,omitempty"`
}

// Card is the Character Card V3 root.
type Card struct {
	Spec        string   `json:"spec"`
	SpecVersion string   `json:"spec_version"`
	Data        CardData `json:"data"`
}

// FromDocument decodes the typed view of a raw card document.
func FromDocument(doc document.Document) (*Card, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var c Card
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// ToDocument converts a typed card back to its raw document form.
func (c *Card) ToDocument() (document.Document, error) {
	raw, err := MarshalCompact(c)
	if err != nil {
		return nil, err
	}
	var doc document.Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// MarshalCompact serializes v without HTML escaping and without the
// trailing newline json.Encoder appends. Greetings frequently carry HTML
// that must survive byte-identically, so the default &lt;-style escaping of
// encoding/json is disabled.
func MarshalCompact(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
