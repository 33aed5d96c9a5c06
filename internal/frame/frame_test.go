package frame

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestNewPlaneAlignsStride(t *testing.T) {
    p, err := NewPlane(5, 3, 1)
    require.NoError(t, err)
    assert.Equal(t, 16, p.Stride)
    assert.Len(t, p.Pix, 16*3)
    assert.Equal(t, 5, p.RowBytes())
    assert.Len(t, p.Row(2), 5)
    require.NoError(t, p.Validate())
}

func TestNewPlaneRejectsBadSizes(t *testing.T) {
    _, err := NewPlane(0, 4, 1)
    assert.ErrorIs(t, err, ErrInvalidDimensions)

    _, err = NewPlaneStride(8, 2, 2, 15)
    assert.ErrorIs(t, err, ErrInvalidDimensions)

    _, err = NewPlane(1<<20, 1<<20, 1)
    assert.ErrorIs(t, err, ErrAllocationFailure)
}

func TestWrapPlaneLength(t *testing.T) {
    _, err := WrapPlane(make([]byte, 11), 4, 3, 1, 4)
    assert.ErrorIs(t, err, ErrTruncatedInput)

    p, err := WrapPlane(make([]byte, 12), 4, 3, 1, 4)
    require.NoError(t, err)
    assert.Equal(t, 4, p.Stride)
}

func TestReshapeKeepsRowBytes(t *testing.T) {
    p, err := NewPlane(3, 2, 2)
    require.NoError(t, err)
    q, err := p.Reshape(6, 1)
    require.NoError(t, err)
    assert.Equal(t, p.RowBytes(), q.RowBytes())
    q.Row(1)[5] = 9
    assert.Equal(t, byte(9), p.Row(1)[5])

    _, err = p.Reshape(5, 1)
    assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestCropAndPacked(t *testing.T) {
    p, err := NewPlaneStride(3, 2, 1, 8)
    require.NoError(t, err)
    copy(p.Row(0), []byte{1, 2, 3})
    copy(p.Row(1), []byte{4, 5, 6})
    assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, p.Packed())

    c, err := p.Crop(2)
    require.NoError(t, err)
    assert.Equal(t, []byte{1, 2, 4, 5}, c.Packed())

    _, err = p.Crop(4)
    assert.ErrorIs(t, err, ErrInvalidDimensions)
}

func TestPlaneEqualIgnoresPadding(t *testing.T) {
    a, _ := NewPlaneStride(2, 2, 1, 2)
    b, _ := NewPlaneStride(2, 2, 1, 7)
    copy(a.Pix, []byte{1, 2, 3, 4})
    copy(b.Row(0), []byte{1, 2})
    copy(b.Row(1), []byte{3, 4})
    b.Pix[6] = 0xEE
    assert.True(t, a.Equal(b))
    b.Row(1)[0] = 0
    assert.False(t, a.Equal(b))
}

func TestFrameValidate(t *testing.T) {
    mk := func(w, h, ch int) *Plane {
        p, err := NewPlane(w, h, ch)
        require.NoError(t, err)
        return p
    }
    cases := []struct {
        name string
        f    *Frame
        err  error
    }{
        {"422 planar", &Frame{Width: 6, Height: 2, Format: YUV422Planar, Planes: []*Plane{mk(6, 2, 1), mk(3, 2, 1), mk(3, 2, 1)}}, nil},
        {"422 odd width floors", &Frame{Width: 5, Height: 2, Format: YUV422Planar, Planes: []*Plane{mk(5, 2, 1), mk(2, 2, 1), mk(2, 2, 1)}}, nil},
        {"422 full width chroma", &Frame{Width: 6, Height: 2, Format: YUV422Planar, Planes: []*Plane{mk(6, 2, 1), mk(6, 2, 1), mk(6, 2, 1)}}, ErrInvalidDimensions},
        {"444 planar", &Frame{Width: 6, Height: 2, Format: YUV444Planar, Planes: []*Plane{mk(6, 2, 1), mk(6, 2, 1), mk(6, 2, 1)}}, nil},
        {"height mismatch", &Frame{Width: 6, Height: 2, Format: YUV444Planar, Planes: []*Plane{mk(6, 2, 1), mk(6, 3, 1), mk(6, 2, 1)}}, ErrInvalidDimensions},
        {"chunky 422", &Frame{Width: 4, Height: 1, Format: YUV422Chunky, Planes: []*Plane{mk(4, 1, 2)}}, nil},
        {"chunky 422 odd", &Frame{Width: 3, Height: 1, Format: YUV422Chunky, Planes: []*Plane{mk(3, 1, 2)}}, ErrInvalidDimensions},
        {"rgba", &Frame{Width: 4, Height: 1, Format: RGBA8, Planes: []*Plane{mk(4, 1, 4)}}, nil},
        {"unknown", &Frame{Width: 4, Height: 1, Format: FormatUnknown, Planes: []*Plane{mk(4, 1, 4)}}, ErrUnsupportedPixelFormat},
    }
    for _, tc := range cases {
        t.Run(tc.name, func(t *testing.T) {
            err := tc.f.Validate()
            if tc.err == nil {
                assert.NoError(t, err)
            } else {
                assert.ErrorIs(t, err, tc.err)
            }
        })
    }
}

func TestParsers(t *testing.T) {
    f, err := ParsePixelFormat("YUV422P")
    require.NoError(t, err)
    assert.Equal(t, YUV422Planar, f)
    _, err = ParsePixelFormat("nv12")
    assert.ErrorIs(t, err, ErrUnsupportedPixelFormat)

    s, err := ParseSubsampling("4:2:2")
    require.NoError(t, err)
    assert.Equal(t, Sub422, s)
    assert.Equal(t, 2, s.ChromaWidth(5))
    assert.Equal(t, 5, Sub444.ChromaWidth(5))

    o, err := ParseChannelOrder("CbYCrY")
    require.NoError(t, err)
    assert.Equal(t, Order2vuy, o)
    assert.Equal(t, "cbycry", o.String())
    _, err = ParseChannelOrder("yuv")
    assert.ErrorIs(t, err, ErrUnsupportedPixelFormat)
}

func TestDescriptorValidate(t *testing.T) {
    for _, f := range []PixelFormat{RGBA8, YUV422Planar, YUV444Planar, YUV422Chunky, YUV444Chunky} {
        d, err := f.Descriptor()
        require.NoError(t, err)
        if f.Planar() { continue }
        assert.NoError(t, d.Validate(), f.String())
    }
    bad := Descriptor{Channels: 4, HSub: Sub422, Order: ChannelOrder{ChanY, ChanY, ChanY, ChanCr}, Depth: 8}
    assert.ErrorIs(t, bad.Validate(), ErrUnsupportedPixelFormat)
    deep := Descriptor{Channels: 3, HSub: Sub444, Order: OrderV308, Depth: 10}
    assert.ErrorIs(t, deep.Validate(), ErrUnsupportedPixelFormat)
}
