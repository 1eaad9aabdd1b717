package capture

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/png"
)

const pngDataURLPrefix = "data:image/png;base64,"

// EncodeDataURL encodes img as a lossless PNG data URL at native resolution.
func EncodeDataURL(img image.Image) (string, error) {
	if img == nil {
		return "", errors.New("encode frame: nil image")
	}
	if img.Bounds().Empty() {
		return "", errors.New("encode frame: empty image")
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return pngDataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
