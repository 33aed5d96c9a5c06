package layout

import (
    "fmt"
    "strings"

    "yuvconv/internal/frame"
)

// Permutation describes a packed 4-byte pixel: byte i holds canonical
// channel Permutation[i], where the canonical order is R, G, B, A.
type Permutation [4]uint8

// Common packed orders.
var (
    OrderRGBA = Permutation{0, 1, 2, 3}
    OrderBGRA = Permutation{2, 1, 0, 3}
    OrderARGB = Permutation{3, 0, 1, 2}
    OrderABGR = Permutation{3, 2, 1, 0}
)

var permutationNames = map[string]Permutation{
    "rgba": OrderRGBA,
    "bgra": OrderBGRA,
    "argb": OrderARGB,
    "abgr": OrderABGR,
}

// ParsePermutation accepts rgba, bgra, argb and abgr in any case.
func ParsePermutation(s string) (Permutation, error) {
    if p, ok := permutationNames[strings.ToLower(strings.TrimSpace(s))]; ok { return p, nil }
    return Permutation{}, fmt.Errorf("%w: byte order %q", frame.ErrUnsupportedPixelFormat, s)
}

// Valid reports whether p uses every channel exactly once.
func (p Permutation) Valid() bool {
    var seen [4]bool
    for _, c := range p {
        if c > 3 || seen[c] { return false }
        seen[c] = true
    }
    return true
}

// Inverse returns q such that byte q[c] of a p-ordered pixel holds channel c.
func (p Permutation) Inverse() Permutation {
    var q Permutation
    for i, c := range p { q[c] = uint8(i) }
    return q
}

// Permute gathers the bytes of every 4-channel pixel of src: output byte i
// is input byte perm[i]. Sample values are never altered.
func Permute(src *frame.Plane, perm Permutation) (*frame.Plane, error) {
    if err := src.Validate(); err != nil { return nil, err }
    if src.Channels != 4 {
        return nil, fmt.Errorf("%w: permute needs 4 channels, have %d", frame.ErrUnsupportedPixelFormat, src.Channels)
    }
    if !perm.Valid() {
        return nil, fmt.Errorf("%w: byte order %v", frame.ErrUnsupportedPixelFormat, perm)
    }
    dst, err := frame.NewPlaneStride(src.Width, src.Height, 4, src.Width*4)
    if err != nil { return nil, err }
    for y := 0; y < src.Height; y++ {
        in, out := src.Row(y), dst.Row(y)
        for o := 0; o < len(out); o += 4 {
            out[o+0] = in[o+int(perm[0])]
            out[o+1] = in[o+int(perm[1])]
            out[o+2] = in[o+int(perm[2])]
            out[o+3] = in[o+int(perm[3])]
        }
    }
    return dst, nil
}
