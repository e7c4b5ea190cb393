package card

import (
	"bytes"
	"image"

	// Register decoders for the image formats users actually upload.
	_ "image/gif"
	_ "image/jpeg"
	stdpng "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ConvertImageToPng re-encodes a JPEG/GIF/WebP/BMP image as PNG so card
// chunks can be embedded into it later.
func ConvertImageToPng(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, importErr("failed to convert image to PNG", err)
	}

	var out bytes.Buffer
	if err := stdpng.Encode(&out, img); err != nil {
		return nil, importErr("failed to encode PNG", err)
	}
	return out.Bytes(), nil
}
