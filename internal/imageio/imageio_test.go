package imageio

import (
    "bytes"
    "image"
    "image/color"
    "image/png"
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "yuvconv/internal/frame"
)

func opaque(w, h int) *image.NRGBA {
    img := image.NewNRGBA(image.Rect(0, 0, w, h))
    for y := 0; y < h; y++ {
        for x := 0; x < w; x++ {
            img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 40), G: uint8(y * 60), B: uint8(x + y), A: 255})
        }
    }
    return img
}

func TestDecodePNG(t *testing.T) {
    var buf bytes.Buffer
    require.NoError(t, png.Encode(&buf, opaque(5, 3)))
    f, name, err := Decode(&buf)
    require.NoError(t, err)
    assert.Equal(t, "png", name)
    assert.Equal(t, frame.RGBA8, f.Format)
    require.NoError(t, f.Validate())
    assert.Equal(t, []byte{40, 60, 2, 255}, f.Planes[0].Row(1)[4:8])
}

func TestDecodeOffsetBounds(t *testing.T) {
    src := opaque(6, 4).SubImage(image.Rect(2, 1, 6, 4))
    f, err := FromImage(src)
    require.NoError(t, err)
    assert.Equal(t, 4, f.Width)
    assert.Equal(t, 3, f.Height)
    assert.Equal(t, []byte{80, 60, 3, 255}, f.Planes[0].Row(0)[:4])
}

func TestDecodeRejectsGarbage(t *testing.T) {
    _, _, err := Decode(bytes.NewReader([]byte("not an image")))
    assert.ErrorIs(t, err, ErrDecode)

    _, err = DecodeFile(filepath.Join(t.TempDir(), "missing.png"))
    assert.ErrorIs(t, err, frame.ErrFileNotFound)
}

func TestWriteFrameRoundTrip(t *testing.T) {
    dir := t.TempDir()
    want, err := FromImage(opaque(7, 5))
    require.NoError(t, err)
    for _, name := range []string{"a.png", "a.qoi"} {
        path := filepath.Join(dir, name)
        require.NoError(t, WriteFrame(path, want))
        got, err := DecodeFile(path)
        require.NoError(t, err, name)
        assert.True(t, want.Planes[0].Equal(got.Planes[0]), name)
    }
}

func TestWritePlaneGray(t *testing.T) {
    p, err := frame.NewPlane(3, 2, 1)
    require.NoError(t, err)
    copy(p.Row(0), []byte{0, 128, 255})
    copy(p.Row(1), []byte{16, 32, 64})
    path := filepath.Join(t.TempDir(), "y.png")
    require.NoError(t, WritePlane(path, p))

    fd, err := os.Open(path)
    require.NoError(t, err)
    defer fd.Close()
    img, err := png.Decode(fd)
    require.NoError(t, err)
    gray, ok := img.(*image.Gray)
    require.True(t, ok)
    assert.Equal(t, []byte{16, 32, 64}, gray.Pix[gray.Stride:gray.Stride+3])

    rgba, err := frame.NewPlane(3, 2, 4)
    require.NoError(t, err)
    _, err = Gray(rgba)
    assert.ErrorIs(t, err, frame.ErrUnsupportedPixelFormat)
}

func TestEncodeFileRejectsUnknownExtension(t *testing.T) {
    path := filepath.Join(t.TempDir(), "a.tga")
    err := EncodeFile(path, opaque(1, 1))
    assert.ErrorIs(t, err, ErrFormat)
    _, statErr := os.Stat(path)
    assert.True(t, os.IsNotExist(statErr))

    _, err = Image(&frame.Frame{Format: frame.YUV444Chunky})
    assert.ErrorIs(t, err, frame.ErrUnsupportedPixelFormat)
}

func TestFormatFor(t *testing.T) {
    for path, want := range map[string]string{"x.PNG": "png", "x.jpg": "jpeg", "x.jpeg": "jpeg", "x.gif": "gif", "x.qoi": "qoi"} {
        got, err := FormatFor(path)
        require.NoError(t, err)
        assert.Equal(t, want, got)
    }
}
