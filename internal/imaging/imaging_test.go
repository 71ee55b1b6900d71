package imaging

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
)

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestDecodeBase64(t *testing.T) {
	raw := encodePNG(t, 4, 4)
	b64 := base64.StdEncoding.EncodeToString(raw)

	got, err := DecodeBase64(b64)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("plain base64 roundtrip mismatch")
	}

	// camera widgets send data URIs
	got, err = DecodeBase64("data:image/png;base64," + b64)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, raw) {
		t.Fatal("data-URI roundtrip mismatch")
	}

	if _, err := DecodeBase64("data:image/png;base64"); err == nil {
		t.Fatal("malformed data URI should fail")
	}
	if _, err := DecodeBase64("not base64 at all!"); err == nil {
		t.Fatal("garbage input should fail")
	}
}

func TestProcess_ReencodesAsJPEG(t *testing.T) {
	out, err := Process(encodePNG(t, 32, 32))
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 32 {
		t.Fatalf("small image should keep its size, got %v", img.Bounds())
	}
}

func TestProcess_DownscalesLargeImages(t *testing.T) {
	out, err := Process(encodePNG(t, MaxDimension*2, MaxDimension))
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != MaxDimension {
		t.Fatalf("want width %d, got %d", MaxDimension, img.Bounds().Dx())
	}
	if img.Bounds().Dy() != MaxDimension/2 {
		t.Fatalf("aspect ratio not kept: %v", img.Bounds())
	}
}

func TestProcess_RejectsNonImages(t *testing.T) {
	if _, err := Process([]byte("<html><body>hi</body></html>")); err == nil {
		t.Fatal("HTML should be rejected")
	}
	if _, err := Process([]byte("GIF89a\x01\x00\x01\x00")); err == nil {
		t.Fatal("GIF should be rejected")
	}
}
