package colorimetry

import (
    "fmt"
    "math"

    "yuvconv/internal/frame"
)

// ITU-R BT.601 luma coefficients.
const (
    kr = 0.299
    kb = 0.114
    kg = 1 - kr - kb
)

// Direction selects which way a Matrix converts.
type Direction int

const (
    RGBToYCbCr Direction = iota
    YCbCrToRGB
)

func (d Direction) String() string {
    if d == RGBToYCbCr { return "rgb->ycbcr" }
    return "ycbcr->rgb"
}

const (
    fixBits = 16
    fixHalf = 1 << (fixBits - 1)
)

// Matrix is an affine transform in Q16 fixed point:
//
//	out[i] = clamp((Σj Coef[i][j]*(clamp(in[j]) - InBias[j]) + OutBias[i]<<16 + 1<<15) >> 16)
//
// For RGBToYCbCr the inputs are R, G, B and the outputs Y, Cb, Cr; for
// YCbCrToRGB the other way round. A Matrix is plain data and is never
// mutated after GenerateMatrix returns it.
type Matrix struct {
    Direction Direction
    Range     ColorRange
    Coef      [3][3]int32
    InBias    [3]int32
    OutBias   [3]int32
    InMin     [3]int32
    InMax     [3]int32
    OutMin    [3]int32
    OutMax    [3]int32
}

func toFixed(f float64) int32 { return int32(math.Floor(f*(1<<fixBits) + 0.5)) }

// GenerateMatrix derives the BT.601 transform for r in direction d. It is
// deterministic; callers generate once per (range, direction) and reuse
// the result for every pixel.
func GenerateMatrix(r ColorRange, d Direction) (Matrix, error) {
    if err := r.Validate(); err != nil { return Matrix{}, err }
    lumaScale := float64(r.YpRangeMax-r.YpBias) / 255
    chromaScale := float64(r.CbCrRangeMax-r.CbCrBias) / 127.5
    m := Matrix{Direction: d, Range: r}
    switch d {
    case RGBToYCbCr:
        // Rows are balanced so white lands exactly on YpRangeMax and any
        // gray has exactly zero chroma.
        yr, yb := toFixed(kr*lumaScale), toFixed(kb*lumaScale)
        m.Coef[0] = [3]int32{yr, toFixed(lumaScale) - yr - yb, yb}
        s := chromaScale / (2 * (1 - kb))
        cbR, cbG := toFixed(-kr*s), toFixed(-kg*s)
        m.Coef[1] = [3]int32{cbR, cbG, -(cbR + cbG)}
        s = chromaScale / (2 * (1 - kr))
        crG, crB := toFixed(-kg*s), toFixed(-kb*s)
        m.Coef[2] = [3]int32{-(crG + crB), crG, crB}
        m.OutBias = [3]int32{int32(r.YpBias), int32(r.CbCrBias), int32(r.CbCrBias)}
        m.InMin = [3]int32{0, 0, 0}
        m.InMax = [3]int32{255, 255, 255}
        m.OutMin = [3]int32{int32(r.YpMin), int32(r.CbCrMin), int32(r.CbCrMin)}
        m.OutMax = [3]int32{int32(r.YpMax), int32(r.CbCrMax), int32(r.CbCrMax)}
    case YCbCrToRGB:
        y := toFixed(1 / lumaScale)
        m.Coef[0] = [3]int32{y, 0, toFixed(2 * (1 - kr) / chromaScale)}
        m.Coef[1] = [3]int32{y, toFixed(-2 * kb * (1 - kb) / (kg * chromaScale)), toFixed(-2 * kr * (1 - kr) / (kg * chromaScale))}
        m.Coef[2] = [3]int32{y, toFixed(2 * (1 - kb) / chromaScale), 0}
        m.InBias = [3]int32{int32(r.YpBias), int32(r.CbCrBias), int32(r.CbCrBias)}
        m.InMin = [3]int32{int32(r.YpMin), int32(r.CbCrMin), int32(r.CbCrMin)}
        m.InMax = [3]int32{int32(r.YpMax), int32(r.CbCrMax), int32(r.CbCrMax)}
        m.OutMin = [3]int32{0, 0, 0}
        m.OutMax = [3]int32{255, 255, 255}
    default:
        return Matrix{}, fmt.Errorf("%w: direction %d", frame.ErrUnsupportedPixelFormat, int(d))
    }
    if err := m.selfCheck(); err != nil { return Matrix{}, err }
    return m, nil
}

// selfCheck maps black and white through the matrix. Any mismatch is a
// generation defect.
func (m *Matrix) selfCheck() error {
    r := m.Range
    black := [3]uint8{0, 0, 0}
    white := [3]uint8{255, 255, 255}
    yBlack := [3]uint8{uint8(r.YpBias), uint8(r.CbCrBias), uint8(r.CbCrBias)}
    yWhite := [3]uint8{uint8(r.YpRangeMax), uint8(r.CbCrBias), uint8(r.CbCrBias)}
    pairs := [][2][3]uint8{{black, yBlack}, {white, yWhite}}
    if m.Direction == YCbCrToRGB {
        pairs = [][2][3]uint8{{yBlack, black}, {yWhite, white}}
    }
    for _, p := range pairs {
        a, b, c := m.Apply(p[0][0], p[0][1], p[0][2])
        if got := [3]uint8{a, b, c}; got != p[1] {
            return fmt.Errorf("%w: %v maps %v to %v, want %v", frame.ErrInternalClampViolation, m.Direction, p[0], got, p[1])
        }
    }
    return nil
}

// Apply converts one sample triple.
func (m *Matrix) Apply(a, b, c uint8) (uint8, uint8, uint8) {
    in := m.bias([3]int32{int32(a), int32(b), int32(c)})
    return m.out(0, in, fixBits), m.out(1, in, fixBits), m.out(2, in, fixBits)
}

// bias clamps inputs to their bounds and removes the input bias.
func (m *Matrix) bias(in [3]int32) [3]int32 {
    for j := range in {
        in[j] = clamp(in[j], m.InMin[j], m.InMax[j]) - m.InBias[j]
    }
    return in
}

// out evaluates row i. shift is fixBits for one pixel and fixBits+1 when in
// holds the sum of two pixels, which yields their rounded average.
func (m *Matrix) out(i int, in [3]int32, shift uint) uint8 {
    // Narrow ranges give coefficients near 2^24, so sums need 64 bits.
    acc := int64(m.Coef[i][0])*int64(in[0]) + int64(m.Coef[i][1])*int64(in[1]) + int64(m.Coef[i][2])*int64(in[2])
    acc += int64(m.OutBias[i]) << shift
    acc += 1 << (shift - 1)
    acc >>= shift
    if acc < int64(m.OutMin[i]) { return uint8(m.OutMin[i]) }
    if acc > int64(m.OutMax[i]) { return uint8(m.OutMax[i]) }
    return uint8(acc)
}

func clamp(v, lo, hi int32) int32 {
    if v < lo { return lo }
    if v > hi { return hi }
    return v
}
