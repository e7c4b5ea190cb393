package card

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"cardforge-be/pkg/document"
	"cardforge-be/pkg/png"
)

// v3OnlyFields are stripped from the flattened chara chunk; V2 consumers do
// not understand them.
var v3OnlyFields = []string{
	"group_only_greetings",
	"nickname",
	"creator_notes_multilingual",
	"source",
	"creation_date",
	"modification_date",
}

// ExportError wraps failures while embedding a card into a PNG.
type ExportError struct {
	Reason string
	Err    error
}

func (e *ExportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ExportError) Unwrap() error { return e.Err }

// ExportOptions controls PNG embedding.
type ExportOptions struct {
	IncludeV2Compat        bool
	UpdateModificationDate bool
}

// DefaultExportOptions matches the original defaults: write both chunks and
// refresh the modification date.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{IncludeV2Compat: true, UpdateModificationDate: true}
}

// ExportToPNG embeds the card document into pngData as a ccv3 tEXt chunk,
// optionally alongside a V2-compatible chara chunk. The base image's IDAT
// data passes through untouched.
func ExportToPNG(pngData []byte, doc document.Document, opts ExportOptions) ([]byte, error) {
	prepared := document.Clone(doc)

	if opts.UpdateModificationDate {
		document.SetByString(prepared, "data.modification_date", time.Now().Unix(), true)
	}

	v3Json, err := MarshalCompact(prepared)
	if err != nil {
		return nil, &ExportError{Reason: "failed to serialize card", Err: err}
	}

	result, err := png.InjectTextChunk(pngData, "ccv3", string(v3Json), true)
	if err != nil {
		return nil, &ExportError{Reason: "failed to export card", Err: err}
	}

	if opts.IncludeV2Compat {
		v2Json, err := prepareV2Json(prepared)
		if err != nil {
			return nil, &ExportError{Reason: "failed to serialize V2 chunk", Err: err}
		}
		result, err = png.InjectTextChunk(result, "chara", v2Json, true)
		if err != nil {
			return nil, &ExportError{Reason: "failed to export card", Err: err}
		}
	}

	return result, nil
}

// prepareV2Json flattens the V3 structure to the legacy layout: data fields
// at root level, V3-only fields dropped.
func prepareV2Json(doc document.Document) (string, error) {
	flat := document.Document{}
	if data, ok := doc["data"].(map[string]interface{}); ok {
		flat = document.Clone(document.Document(data))
	}
	for _, key := range v3OnlyFields {
		delete(flat, key)
	}

	out, err := MarshalCompact(flat)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// VerifyExport re-imports an exported PNG and checks it against the original
// document. Non-strict mode compares the fields users would notice losing;
// strict mode compares everything except the refreshed modification date.
func VerifyExport(exported []byte, original document.Document, strict bool) error {
	reimported, err := ImportPNG(exported)
	if err != nil {
		return fmt.Errorf("failed to re-import: %w", err)
	}

	checks := []string{"data.name", "data.first_mes", "data.description"}
	for _, path := range checks {
		origVal, _ := document.GetByString(original, path)
		reimpVal, _ := document.GetByString(reimported.Document, path)
		if !document.Equal(origVal, reimpVal) {
			return fmt.Errorf("%s content mismatch after export", path)
		}
	}

	if strict {
		a := document.Clone(original)
		b := document.Clone(reimported.Document)
		document.SetByString(a, "data.modification_date", nil, true)
		document.SetByString(b, "data.modification_date", nil, true)
		if !document.Equal(a, b) {
			return fmt.Errorf("exported card differs from original")
		}
	}
	return nil
}

// ExportFilename builds "{Name}_{Date}_{Time}.png", sanitized.
func ExportFilename(doc document.Document) string {
	name, _ := document.GetString(doc, document.ParsePath("data.name"))
	if name == "" {
		name = "character"
	}

	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == ' ' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	safe := strings.TrimSpace(sb.String())
	if runes := []rune(safe); len(runes) > 50 {
		safe = string(runes[:50])
	}

	return fmt.Sprintf("%s_%s.png", safe, time.Now().Format("20060102_150405"))
}
