package card

import (
	"bytes"
	"encoding/json"
	"fmt"

	"cardforge-be/pkg/document"
	"cardforge-be/pkg/png"
)

// FileType classifies an uploaded file.
type FileType string

const (
	FileTypePng   FileType = "png"
	FileTypeJson  FileType = "json"
	FileTypeImage FileType = "image"
)

// SourceFormat records which card format the input carried.
type SourceFormat string

const (
	SourceV2 SourceFormat = "v2"
	SourceV3 SourceFormat = "v3"
)

// ImportError wraps anything that goes wrong while reading a card file.
type ImportError struct {
	Reason string
	Err    error
}

func (e *ImportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ImportError) Unwrap() error { return e.Err }

func importErr(reason string, err error) *ImportError {
	return &ImportError{Reason: reason, Err: err}
}

// ParsedCard is the result of a successful import.
type ParsedCard struct {
	Card         *Card
	Document     document.Document
	SourceFormat SourceFormat
	HasImage     bool
}

// DetectFileType sniffs magic bytes: PNG, common image formats, or JSON.
func DetectFileType(data []byte) FileType {
	if len(data) >= 8 && bytes.Equal(data[:8], png.Signature) {
		return FileTypePng
	}
	if len(data) >= 3 && bytes.Equal(data[:3], []byte{0xff, 0xd8, 0xff}) {
		return FileTypeImage // JPEG
	}
	if len(data) >= 12 && bytes.Equal(data[:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")) {
		return FileTypeImage
	}
	if len(data) >= 6 && (bytes.Equal(data[:6], []byte("GIF87a")) || bytes.Equal(data[:6], []byte("GIF89a"))) {
		return FileTypeImage
	}
	if len(data) >= 2 && bytes.Equal(data[:2], []byte("BM")) {
		return FileTypeImage
	}

	stripped := bytes.TrimLeft(data, " \t\r\n")
	if len(stripped) > 0 && (stripped[0] == '{' || stripped[0] == '[') {
		return FileTypeJson
	}
	return FileTypeImage
}

// ImportJSON parses a card from JSON bytes, migrating V2 to V3 when needed.
func ImportJSON(data []byte) (*ParsedCard, error) {
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, importErr("invalid JSON", err)
	}
	if doc == nil {
		return nil, importErr("JSON must be an object", nil)
	}
	return importDocument(doc)
}

func importDocument(doc document.Document) (*ParsedCard, error) {
	if doc["spec"] == SpecV3 {
		if _, ok := doc["data"].(map[string]interface{}); !ok {
			return nil, importErr("V3 card missing 'data' field", nil)
		}
		typed, err := FromDocument(doc)
		if err != nil {
			return nil, importErr("invalid V3 card structure", err)
		}
		return &ParsedCard{Card: typed, Document: doc, SourceFormat: SourceV3}, nil
	}

	if IsV2Format(doc) {
		migrated := MigrateV2ToV3(doc)
		typed, err := FromDocument(migrated)
		if err != nil {
			return nil, importErr("failed to migrate V2 card", err)
		}
		return &ParsedCard{Card: typed, Document: migrated, SourceFormat: SourceV2}, nil
	}

	return nil, importErr("unrecognized card format: missing 'spec' or 'name' field", nil)
}

// ImportPNG extracts the embedded card from a PNG, preferring the ccv3 chunk
// over chara.
func ImportPNG(data []byte) (*ParsedCard, error) {
	keyword, payload, err := png.CardData(data)
	if err != nil {
		return nil, importErr("invalid PNG file", err)
	}

	parsed, err := ImportJSON([]byte(payload))
	if err != nil {
		return nil, err
	}
	parsed.HasImage = true

	// A ccv3 chunk is V3 territory even when the payload itself looked V2.
	if keyword == "ccv3" && parsed.SourceFormat == SourceV2 {
		parsed.SourceFormat = SourceV3
	}
	return parsed, nil
}

// Import reads a card from any supported input: PNG, JSON, or another image
// format (converted to PNG first, then read; conversion strips no chunks
// because non-PNG inputs never carry card chunks in the first place).
func Import(data []byte) (*ParsedCard, error) {
	switch DetectFileType(data) {
	case FileTypeJson:
		return ImportJSON(data)

	case FileTypeImage:
		pngData, err := ConvertImageToPng(data)
		if err != nil {
			return nil, err
		}
		parsed, err := ImportPNG(pngData)
		if err != nil {
			return nil, importErr("image converted to PNG but contains no card data", err)
		}
		return parsed, nil

	default:
		return ImportPNG(data)
	}
}
