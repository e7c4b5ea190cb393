package card

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"

	"cardforge-be/pkg/png"
)

// testPng builds a valid 1x1 RGBA PNG with no text chunks.
func testPng() []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:4], 1)
	binary.BigEndian.PutUint32(ihdr[4:8], 1)
	ihdr[8] = 8
	ihdr[9] = 6

	var idat bytes.Buffer
	w := zlib.NewWriter(&idat)
	w.Write([]byte{0, 0, 0, 0, 0})
	w.Close()

	return png.Build([]png.Chunk{
		{Type: "IHDR", Data: ihdr},
		{Type: "IDAT", Data: idat.Bytes()},
		{Type: "IEND", Data: nil},
	})
}

func v3Doc(name string) map[string]interface{} {
	return map[string]interface{}{
		"spec":         SpecV3,
		"spec_version": SpecVersionV3,
		"data": map[string]interface{}{
			"name":        name,
			"description": "a test character",
			"first_mes":   "hello",
		},
	}
}
