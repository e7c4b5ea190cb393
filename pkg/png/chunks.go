// Package png reads and writes PNG text chunks (tEXt, iTXt, zTXt) for
// character-card embedding. IDAT chunks are never decompressed, resampled or
// re-encoded: every operation is a binary append/replace on text chunks only.
package png

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"io"
)

var Signature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

var (
	ErrInvalidPng = errors.New("not a valid PNG file: invalid signature")
	ErrNoCardData = errors.New("PNG contains no character card data (no ccv3 or chara chunk)")
)

// Chunk is a raw PNG chunk: four-character type plus payload.
type Chunk struct {
	Type string
	Data []byte
}

// ReadChunks parses all chunks from raw PNG bytes. Parsing stops at IEND;
// trailing garbage after it is ignored. Truncated trailing chunks are
// dropped rather than rejected.
func ReadChunks(data []byte) ([]Chunk, error) {
	if len(data) < 8 || !bytes.Equal(data[:8], Signature) {
		return nil, ErrInvalidPng
	}

	var chunks []Chunk
	pos := 8

	for pos < len(data) {
		if pos+8 > len(data) {
			break
		}
		length := int(binary.BigEndian.Uint32(data[pos : pos+4]))
		chunkType := string(data[pos+4 : pos+8])

		if pos+12+length > len(data) {
			break
		}
		chunkData := data[pos+8 : pos+8+length]
		chunks = append(chunks, Chunk{Type: chunkType, Data: chunkData})
		pos += 12 + length

		if chunkType == "IEND" {
			break
		}
	}

	return chunks, nil
}

// Build reassembles a complete PNG file from chunks, recomputing each CRC.
func Build(chunks []Chunk) []byte {
	var buf bytes.Buffer
	buf.Write(Signature)

	for _, c := range chunks {
		var header [4]byte
		binary.BigEndian.PutUint32(header[:], uint32(len(c.Data)))
		buf.Write(header[:])
		buf.WriteString(c.Type)
		buf.Write(c.Data)

		crc := crc32.NewIEEE()
		crc.Write([]byte(c.Type))
		crc.Write(c.Data)
		var crcBytes [4]byte
		binary.BigEndian.PutUint32(crcBytes[:], crc.Sum32())
		buf.Write(crcBytes[:])
	}

	return buf.Bytes()
}

// ExtractIDAT returns the raw compressed pixel data chunks. Used to verify
// IDAT integrity before and after text-chunk operations.
func ExtractIDAT(data []byte) ([][]byte, error) {
	chunks, err := ReadChunks(data)
	if err != nil {
		return nil, err
	}
	var idat [][]byte
	for _, c := range chunks {
		if c.Type == "IDAT" {
			idat = append(idat, c.Data)
		}
	}
	return idat, nil
}

// decodeText decodes a tEXt chunk: keyword\0text, where the text payload is
// conventionally base64-encoded card JSON. Falls back to the raw payload
// when it is not valid base64.
func decodeText(data []byte) (keyword, text string, ok bool) {
	nul := bytes.IndexByte(data, 0)
	if nul == -1 {
		return "", "", false
	}
	keyword = string(data[:nul])
	payload := data[nul+1:]

	decoded, err := base64.StdEncoding.DecodeString(string(payload))
	if err != nil {
		return keyword, string(payload), true
	}
	return keyword, string(decoded), true
}

// decodeInternational decodes an iTXt chunk:
// keyword\0compressionFlag\0compressionMethod\0languageTag\0translatedKeyword\0text
func decodeInternational(data []byte) (keyword, text string, ok bool) {
	nul := bytes.IndexByte(data, 0)
	if nul == -1 {
		return "", "", false
	}
	keyword = string(data[:nul])
	rest := data[nul+1:]

	if len(rest) < 2 {
		return "", "", false
	}
	compressed := rest[0] == 1
	rest = rest[2:]

	langNul := bytes.IndexByte(rest, 0)
	if langNul == -1 {
		return "", "", false
	}
	rest = rest[langNul+1:]

	transNul := bytes.IndexByte(rest, 0)
	if transNul == -1 {
		return "", "", false
	}
	payload := rest[transNul+1:]

	if compressed {
		inflated, err := inflate(payload)
		if err != nil {
			return "", "", false
		}
		payload = inflated
	}
	return keyword, string(payload), true
}

// decodeCompressed decodes a zTXt chunk: keyword\0compressionMethod\0deflated.
func decodeCompressed(data []byte) (keyword, text string, ok bool) {
	nul := bytes.IndexByte(data, 0)
	if nul == -1 || nul+2 > len(data) {
		return "", "", false
	}
	keyword = string(data[:nul])

	inflated, err := inflate(data[nul+2:])
	if err != nil {
		return "", "", false
	}
	return keyword, string(inflated), true
}

func inflate(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}

func decodeAnyText(c Chunk) (keyword, text string, ok bool) {
	switch c.Type {
	case "tEXt":
		return decodeText(c.Data)
	case "iTXt":
		return decodeInternational(c.Data)
	case "zTXt":
		return decodeCompressed(c.Data)
	}
	return "", "", false
}

// ReadTextChunks returns all decoded text chunks keyed by keyword. The map
// is empty (never nil) for a PNG without text chunks.
func ReadTextChunks(data []byte) (map[string]string, error) {
	chunks, err := ReadChunks(data)
	if err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, c := range chunks {
		if keyword, text, ok := decodeAnyText(c); ok {
			result[keyword] = text
		}
	}
	return result, nil
}

// buildTextChunkData encodes keyword\0base64(text), the tEXt layout used by
// card tooling across the ecosystem.
func buildTextChunkData(keyword, text string) []byte {
	encoded := base64.StdEncoding.EncodeToString([]byte(text))
	out := make([]byte, 0, len(keyword)+1+len(encoded))
	out = append(out, keyword...)
	out = append(out, 0)
	out = append(out, encoded...)
	return out
}

// InjectTextChunk writes a tEXt chunk with the given keyword into the PNG,
// replacing an existing chunk with the same keyword when replace is true.
// New chunks land immediately before IEND. All other chunks pass through
// byte-identical.
func InjectTextChunk(data []byte, keyword, text string, replace bool) ([]byte, error) {
	chunks, err := ReadChunks(data)
	if err != nil {
		return nil, err
	}

	newChunk := Chunk{Type: "tEXt", Data: buildTextChunkData(keyword, text)}

	out := make([]Chunk, 0, len(chunks)+1)
	replaced := false
	for _, c := range chunks {
		if replace && c.Type == "tEXt" {
			if kw, _, ok := decodeText(c.Data); ok && kw == keyword {
				out = append(out, newChunk)
				replaced = true
				continue
			}
		}
		out = append(out, c)
	}

	if !replaced {
		inserted := false
		for i, c := range out {
			if c.Type == "IEND" {
				out = append(out[:i], append([]Chunk{newChunk}, out[i:]...)...)
				inserted = true
				break
			}
		}
		if !inserted {
			out = append(out, newChunk)
		}
	}

	return Build(out), nil
}

// RemoveTextChunk strips any text chunk (tEXt, iTXt, zTXt) carrying keyword.
func RemoveTextChunk(data []byte, keyword string) ([]byte, error) {
	chunks, err := ReadChunks(data)
	if err != nil {
		return nil, err
	}

	out := make([]Chunk, 0, len(chunks))
	for _, c := range chunks {
		if kw, _, ok := decodeAnyText(c); ok && kw == keyword {
			continue
		}
		out = append(out, c)
	}
	return Build(out), nil
}

// CardData extracts embedded character-card JSON, preferring the ccv3 chunk
// over the legacy chara chunk. The first return is the chunk keyword found.
func CardData(data []byte) (string, string, error) {
	chunks, err := ReadTextChunks(data)
	if err != nil {
		return "", "", err
	}
	if payload, ok := chunks["ccv3"]; ok {
		return "ccv3", payload, nil
	}
	if payload, ok := chunks["chara"]; ok {
		return "chara", payload, nil
	}
	return "", "", ErrNoCardData
}
