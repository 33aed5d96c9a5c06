// Package colorimetry converts between packed RGBA and chunky YCbCr with
// BT.601 matrices scaled for a video or full color range. Arithmetic is
// 16-bit fixed point; every result is rounded to nearest, clamped, then
// narrowed to 8 bits.
package colorimetry

import (
    "fmt"
    "strings"

    "yuvconv/internal/frame"
)

// ColorRange places luma and chroma on the byte range. The bias is the
// code for black luma and for zero chroma; the range max is the code for
// full-scale white and full-scale chroma. Min/Max are clamping bounds.
type ColorRange struct {
    YpBias       int `yaml:"yp_bias"`
    CbCrBias     int `yaml:"cbcr_bias"`
    YpRangeMax   int `yaml:"yp_range_max"`
    CbCrRangeMax int `yaml:"cbcr_range_max"`
    YpMax        int `yaml:"yp_max"`
    YpMin        int `yaml:"yp_min"`
    CbCrMax      int `yaml:"cbcr_max"`
    CbCrMin      int `yaml:"cbcr_min"`
}

// Presets.
var (
    // VideoRange maps luma to 16-235 and chroma to 16-240 without clamping
    // inputs to those bounds.
    VideoRange = ColorRange{YpBias: 16, CbCrBias: 128, YpRangeMax: 235, CbCrRangeMax: 240, YpMax: 255, YpMin: 0, CbCrMax: 255, CbCrMin: 1}
    // VideoRangeClamped also clamps every sample into the video range.
    VideoRangeClamped = ColorRange{YpBias: 16, CbCrBias: 128, YpRangeMax: 235, CbCrRangeMax: 240, YpMax: 235, YpMin: 16, CbCrMax: 240, CbCrMin: 16}
    FullRange         = ColorRange{YpBias: 0, CbCrBias: 128, YpRangeMax: 255, CbCrRangeMax: 255, YpMax: 255, YpMin: 0, CbCrMax: 255, CbCrMin: 0}
)

var rangeNames = map[string]ColorRange{
    "video":         VideoRange,
    "video-clamped": VideoRangeClamped,
    "full":          FullRange,
}

// ParseRange resolves a preset name.
func ParseRange(name string) (ColorRange, error) {
    if r, ok := rangeNames[strings.ToLower(strings.TrimSpace(name))]; ok { return r, nil }
    return ColorRange{}, fmt.Errorf("%w: unknown range %q", frame.ErrInvalidColorRange, name)
}

// Validate checks that every code fits a byte, the ranges are non-empty
// and the clamping bounds contain black, white and zero chroma.
func (r ColorRange) Validate() error {
    for _, v := range []int{r.YpBias, r.CbCrBias, r.YpRangeMax, r.CbCrRangeMax, r.YpMax, r.YpMin, r.CbCrMax, r.CbCrMin} {
        if v < 0 || v > 255 {
            return fmt.Errorf("%w: code %d outside 0-255 in %+v", frame.ErrInvalidColorRange, v, r)
        }
    }
    if r.YpRangeMax <= r.YpBias || r.CbCrRangeMax <= r.CbCrBias {
        return fmt.Errorf("%w: empty range in %+v", frame.ErrInvalidColorRange, r)
    }
    if r.YpMin > r.YpBias || r.YpMax < r.YpRangeMax || r.CbCrMin > r.CbCrBias || r.CbCrMax < r.CbCrRangeMax {
        return fmt.Errorf("%w: clamp bounds exclude the nominal range in %+v", frame.ErrInvalidColorRange, r)
    }
    return nil
}
