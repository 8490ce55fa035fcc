package images

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngDataURI(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 7), G: uint8(y * 11), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func TestComputeBlurHashFromDataURI(t *testing.T) {
	hash, err := ComputeBlurHashFromDataURI(pngDataURI(t, 32, 24))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)

	// Same input, same hash.
	again, err := ComputeBlurHashFromDataURI(pngDataURI(t, 32, 24))
	require.NoError(t, err)
	assert.Equal(t, hash, again)
}

func TestComputeBlurHashResizesLargeImages(t *testing.T) {
	hash, err := ComputeBlurHashFromDataURI(pngDataURI(t, 640, 480))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
}

func TestComputeBlurHashRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"plain text":     "not a data uri",
		"wrong mime":     "data:text/plain;base64,aGVsbG8=",
		"not base64":     "data:image/png;base64,%%%%",
		"not an image":   "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("junk")),
		"missing marker": "data:image/png,rawbytes",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ComputeBlurHashFromDataURI(input)
			assert.Error(t, err)
		})
	}
}
