package planestore

import (
    "bytes"
    "os"
    "path/filepath"
    "testing"

    "github.com/klauspost/compress/zstd"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "yuvconv/internal/frame"
)

func sequence(n int) []byte {
    b := make([]byte, n)
    for i := range b { b[i] = byte(i*7 + 3) }
    return b
}

func TestFrameSize(t *testing.T) {
    n, err := FrameSize(800, 600, frame.Sub422)
    require.NoError(t, err)
    assert.Equal(t, 800*600*2, n)

    n, err = FrameSize(640, 480, frame.Sub444)
    require.NoError(t, err)
    assert.Equal(t, 640*480*3, n)

    n, err = FrameSize(5, 2, frame.Sub422)
    require.NoError(t, err)
    assert.Equal(t, (5+2+2)*2, n)

    _, err = FrameSize(1, 2, frame.Sub422)
    assert.ErrorIs(t, err, frame.ErrInvalidDimensions)
    _, err = FrameSize(4, 2, frame.Subsampling(3))
    assert.ErrorIs(t, err, frame.ErrUnsupportedPixelFormat)
    _, err = FrameSize(1<<16, 1<<16, frame.Sub444)
    assert.ErrorIs(t, err, frame.ErrAllocationFailure)
}

func TestSplitLayout(t *testing.T) {
    // 4x2 4:2:2: Y is 8 bytes, Cb and Cr are 4 bytes each.
    data := sequence(16)
    f, err := Split(data, 4, 2, frame.Sub422)
    require.NoError(t, err)
    require.NoError(t, f.Validate())
    assert.Equal(t, frame.YUV422Planar, f.Format)

    y, cb, cr := f.Planes[0], f.Planes[1], f.Planes[2]
    assert.Equal(t, 4, y.Width)
    assert.Equal(t, 2, cb.Width)
    assert.Greater(t, y.Stride, y.Width)
    assert.Equal(t, data[0:4], y.Row(0))
    assert.Equal(t, data[4:8], y.Row(1))
    assert.Equal(t, data[8:10], cb.Row(0))
    assert.Equal(t, data[10:12], cb.Row(1))
    assert.Equal(t, data[12:14], cr.Row(0))
    assert.Equal(t, data[14:16], cr.Row(1))
}

func TestSplitTruncated(t *testing.T) {
    _, err := Split(make([]byte, 15), 4, 2, frame.Sub422)
    assert.ErrorIs(t, err, frame.ErrTruncatedInput)
}

func TestRoundTripBytes(t *testing.T) {
    for _, tc := range []struct {
        w, h int
        sub  frame.Subsampling
    }{
        {8, 4, frame.Sub422},
        {7, 3, frame.Sub422},
        {5, 5, frame.Sub444},
        {33, 2, frame.Sub444},
    } {
        n, err := FrameSize(tc.w, tc.h, tc.sub)
        require.NoError(t, err)
        data := sequence(n)
        f, err := Split(data, tc.w, tc.h, tc.sub)
        require.NoError(t, err)
        out, err := WritePlanar(f)
        require.NoError(t, err)
        assert.Equal(t, data, out, "%dx%d %v", tc.w, tc.h, tc.sub)
    }
}

func TestWritePlanarDiscardsPadding(t *testing.T) {
    mk := func(w, stride int, fill byte) *frame.Plane {
        p, err := frame.NewPlaneStride(w, 2, 1, stride)
        require.NoError(t, err)
        for i := range p.Pix { p.Pix[i] = 0xFF }
        for y := 0; y < 2; y++ {
            for x := range p.Row(y) { p.Row(y)[x] = fill + byte(y) }
        }
        return p
    }
    f := &frame.Frame{Width: 4, Height: 2, Format: frame.YUV422Planar,
        Planes: []*frame.Plane{mk(4, 9, 10), mk(2, 5, 20), mk(2, 2, 30)}}
    out, err := WritePlanar(f)
    require.NoError(t, err)
    assert.Equal(t, []byte{10, 10, 10, 10, 11, 11, 11, 11, 20, 20, 21, 21, 30, 30, 31, 31}, out)

    var buf bytes.Buffer
    n, err := WritePlanarTo(&buf, f)
    require.NoError(t, err)
    assert.EqualValues(t, 16, n)
    assert.Equal(t, out, buf.Bytes())
}

func TestWritePlanarRejectsChunky(t *testing.T) {
    p, _ := frame.NewPlane(4, 1, 2)
    _, err := WritePlanar(&frame.Frame{Width: 4, Height: 1, Format: frame.YUV422Chunky, Planes: []*frame.Plane{p}})
    assert.ErrorIs(t, err, frame.ErrUnsupportedPixelFormat)
}

func TestReadPlanarFile(t *testing.T) {
    dir := t.TempDir()
    n, _ := FrameSize(6, 4, frame.Sub422)
    data := sequence(n)
    path := filepath.Join(dir, "frame422p.yuv")
    require.NoError(t, os.WriteFile(path, data, 0o644))

    f, err := ReadPlanar(path, 6, 4, frame.Sub422)
    require.NoError(t, err)

    out := filepath.Join(dir, "copy.yuv")
    written, err := WritePlanarFile(out, f)
    require.NoError(t, err)
    assert.EqualValues(t, n, written)
    got, err := os.ReadFile(out)
    require.NoError(t, err)
    assert.Equal(t, data, got)
}

func TestReadPlanarErrors(t *testing.T) {
    dir := t.TempDir()
    _, err := ReadPlanar(filepath.Join(dir, "missing.yuv"), 4, 4, frame.Sub444)
    assert.ErrorIs(t, err, frame.ErrFileNotFound)

    short := filepath.Join(dir, "short.yuv")
    require.NoError(t, os.WriteFile(short, make([]byte, 10), 0o644))
    _, err = ReadPlanar(short, 4, 4, frame.Sub444)
    assert.ErrorIs(t, err, frame.ErrTruncatedInput)
}

func TestCompressedRoundTrip(t *testing.T) {
    dir := t.TempDir()
    n, _ := FrameSize(16, 8, frame.Sub444)
    data := sequence(n)
    f, err := Split(data, 16, 8, frame.Sub444)
    require.NoError(t, err)

    path := filepath.Join(dir, "frame444p.yuv.zst")
    _, err = WritePlanarFile(path, f)
    require.NoError(t, err)

    raw, err := os.ReadFile(path)
    require.NoError(t, err)
    dec, err := zstd.NewReader(nil)
    require.NoError(t, err)
    defer dec.Close()
    plain, err := dec.DecodeAll(raw, nil)
    require.NoError(t, err)
    assert.Equal(t, data, plain)

    back, err := ReadPlanar(path, 16, 8, frame.Sub444)
    require.NoError(t, err)
    for i := range f.Planes {
        assert.True(t, f.Planes[i].Equal(back.Planes[i]))
    }
}

func TestWritePlanarFileLeavesNoPartialOutput(t *testing.T) {
    dir := t.TempDir()
    path := filepath.Join(dir, "out.yuv")
    bad := &frame.Frame{Width: 4, Height: 2, Format: frame.YUV444Planar}
    _, err := WritePlanarFile(path, bad)
    require.Error(t, err)
    _, statErr := os.Stat(path)
    assert.True(t, os.IsNotExist(statErr))
    entries, err := os.ReadDir(dir)
    require.NoError(t, err)
    assert.Empty(t, entries)
}
