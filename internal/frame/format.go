package frame

import (
    "fmt"
    "strings"
)

// PixelFormat tags the layout of a Frame's planes.
type PixelFormat int

const (
    FormatUnknown PixelFormat = iota
    RGBA8
    YUV422Planar
    YUV444Planar
    YUV422Chunky
    YUV444Chunky
)

var formatNames = map[PixelFormat]string{
    FormatUnknown: "unknown",
    RGBA8:         "rgba8",
    YUV422Planar:  "yuv422p",
    YUV444Planar:  "yuv444p",
    YUV422Chunky:  "yuv422",
    YUV444Chunky:  "yuv444",
}

func (f PixelFormat) String() string {
    if s, ok := formatNames[f]; ok { return s }
    return fmt.Sprintf("PixelFormat(%d)", int(f))
}

// ParsePixelFormat is the inverse of String.
func ParsePixelFormat(s string) (PixelFormat, error) {
    s = strings.ToLower(strings.TrimSpace(s))
    for f, name := range formatNames {
        if f != FormatUnknown && name == s { return f, nil }
    }
    return FormatUnknown, fmt.Errorf("%w: %q", ErrUnsupportedPixelFormat, s)
}

// Planar reports whether the format stores one channel per plane.
func (f PixelFormat) Planar() bool { return f == YUV422Planar || f == YUV444Planar }

// Subsampling returns the chroma subsampling of a YCbCr format.
func (f PixelFormat) Subsampling() (Subsampling, bool) {
    switch f {
    case YUV422Planar, YUV422Chunky:
        return Sub422, true
    case YUV444Planar, YUV444Chunky:
        return Sub444, true
    }
    return 0, false
}

// Subsampling is the horizontal chroma subsampling ratio.
type Subsampling int

const (
    Sub444 Subsampling = 1
    Sub422 Subsampling = 2
)

func (s Subsampling) String() string {
    switch s {
    case Sub444:
        return "444"
    case Sub422:
        return "422"
    }
    return fmt.Sprintf("Subsampling(%d)", int(s))
}

// ParseSubsampling accepts "422", "4:2:2", "444" and "4:4:4".
func ParseSubsampling(s string) (Subsampling, error) {
    switch strings.ReplaceAll(strings.TrimSpace(s), ":", "") {
    case "422":
        return Sub422, nil
    case "444":
        return Sub444, nil
    }
    return 0, fmt.Errorf("%w: subsampling %q", ErrUnsupportedPixelFormat, s)
}

// Valid reports whether s is one of the supported ratios.
func (s Subsampling) Valid() bool { return s == Sub422 || s == Sub444 }

// ChromaWidth returns the width of a chroma plane for a luma width of w.
// Odd widths under 4:2:2 are floor-divided.
func (s Subsampling) ChromaWidth(w int) int {
    if s == Sub422 { return w / 2 }
    return w
}

// PlanarFormat and ChunkyFormat map a subsampling to its frame tags.
func (s Subsampling) PlanarFormat() PixelFormat {
    if s == Sub422 { return YUV422Planar }
    return YUV444Planar
}

func (s Subsampling) ChunkyFormat() PixelFormat {
    if s == Sub422 { return YUV422Chunky }
    return YUV444Chunky
}
