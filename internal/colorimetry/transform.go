package colorimetry

import (
    "fmt"

    "yuvconv/internal/frame"
    "yuvconv/internal/layout"
)

// positions of Y, Cb, Cr (and the second luma of a 4:2:2 group) inside one
// chunky pixel group.
type positions struct {
    y0, y1, cb, cr int
}

func positionsFor(d frame.Descriptor) (positions, error) {
    if err := d.Validate(); err != nil { return positions{}, err }
    if d.Channels == 4 && d.HSub == frame.Sub444 {
        return positions{}, fmt.Errorf("%w: 4-channel 4:4:4 is not a YCbCr layout", frame.ErrUnsupportedPixelFormat)
    }
    p := positions{y0: d.Order.Index(frame.ChanY), cb: d.Order.Index(frame.ChanCb), cr: d.Order.Index(frame.ChanCr)}
    p.y1 = p.y0
    if d.HSub == frame.Sub422 {
        for i := p.y0 + 1; i < len(d.Order); i++ {
            if d.Order[i] == frame.ChanY { p.y1 = i }
        }
    }
    return p, nil
}

func checkPerm(perm layout.Permutation) error {
    if !perm.Valid() {
        return fmt.Errorf("%w: byte order %v", frame.ErrUnsupportedPixelFormat, perm)
    }
    return nil
}

// RGBAToYCbCr converts a packed 4-channel plane, whose byte order is perm,
// into a chunky YCbCr plane laid out as dst. For 4:2:2 each horizontal
// pixel pair shares the rounded average of its chroma, and an odd trailing
// column is dropped. Alpha is ignored.
func RGBAToYCbCr(src *frame.Plane, perm layout.Permutation, m *Matrix, dst frame.Descriptor) (*frame.Plane, error) {
    if m.Direction != RGBToYCbCr {
        return nil, fmt.Errorf("%w: %v matrix used for rgb->ycbcr", frame.ErrUnsupportedPixelFormat, m.Direction)
    }
    if err := src.Validate(); err != nil { return nil, err }
    if src.Channels != 4 {
        return nil, fmt.Errorf("%w: rgba source has %d channels", frame.ErrUnsupportedPixelFormat, src.Channels)
    }
    if err := checkPerm(perm); err != nil { return nil, err }
    pos, err := positionsFor(dst)
    if err != nil { return nil, err }
    inv := perm.Inverse()
    ri, gi, bi := int(inv[0]), int(inv[1]), int(inv[2])
    rgb := func(px []byte) [3]int32 {
        return m.bias([3]int32{int32(px[ri]), int32(px[gi]), int32(px[bi])})
    }

    if dst.HSub == frame.Sub444 {
        out, err := frame.NewPlaneStride(src.Width, src.Height, 3, src.Width*3)
        if err != nil { return nil, err }
        for y := 0; y < src.Height; y++ {
            in, o := src.Row(y), out.Row(y)
            for x := 0; x < src.Width; x++ {
                v := rgb(in[x*4 : x*4+4])
                g := o[x*3 : x*3+3]
                g[pos.y0] = m.out(0, v, fixBits)
                g[pos.cb] = m.out(1, v, fixBits)
                g[pos.cr] = m.out(2, v, fixBits)
            }
        }
        return out, nil
    }

    even := src.Width &^ 1
    if even == 0 {
        return nil, fmt.Errorf("%w: 4:2:2 needs at least 2 columns", frame.ErrInvalidDimensions)
    }
    out, err := frame.NewPlaneStride(even, src.Height, 2, even*2)
    if err != nil { return nil, err }
    for y := 0; y < src.Height; y++ {
        in, o := src.Row(y), out.Row(y)
        for x := 0; x < even; x += 2 {
            a := rgb(in[x*4 : x*4+4])
            b := rgb(in[x*4+4 : x*4+8])
            sum := [3]int32{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
            g := o[x*2 : x*2+4]
            g[pos.y0] = m.out(0, a, fixBits)
            g[pos.y1] = m.out(0, b, fixBits)
            g[pos.cb] = m.out(1, sum, fixBits+1)
            g[pos.cr] = m.out(2, sum, fixBits+1)
        }
    }
    return out, nil
}

// YCbCrToRGBA converts a chunky YCbCr plane laid out as srcDesc into a
// tightly packed 4-channel plane in byte order perm. Alpha is always the
// caller's constant.
func YCbCrToRGBA(src *frame.Plane, srcDesc frame.Descriptor, m *Matrix, perm layout.Permutation, alpha uint8) (*frame.Plane, error) {
    if m.Direction != YCbCrToRGB {
        return nil, fmt.Errorf("%w: %v matrix used for ycbcr->rgb", frame.ErrUnsupportedPixelFormat, m.Direction)
    }
    if err := src.Validate(); err != nil { return nil, err }
    if err := checkPerm(perm); err != nil { return nil, err }
    pos, err := positionsFor(srcDesc)
    if err != nil { return nil, err }
    want := srcDesc.Channels
    if srcDesc.HSub == frame.Sub422 { want = 2 }
    if src.Channels != want {
        return nil, fmt.Errorf("%w: source has %d channels, layout wants %d", frame.ErrUnsupportedPixelFormat, src.Channels, want)
    }
    out, err := frame.NewPlaneStride(src.Width, src.Height, 4, src.Width*4)
    if err != nil { return nil, err }
    put := func(px []byte, r, g, b uint8) {
        c := [4]uint8{r, g, b, alpha}
        px[0], px[1], px[2], px[3] = c[perm[0]], c[perm[1]], c[perm[2]], c[perm[3]]
    }

    if srcDesc.HSub == frame.Sub444 {
        for y := 0; y < src.Height; y++ {
            in, o := src.Row(y), out.Row(y)
            for x := 0; x < src.Width; x++ {
                g := in[x*3 : x*3+3]
                r, gg, b := m.Apply(g[pos.y0], g[pos.cb], g[pos.cr])
                put(o[x*4:x*4+4], r, gg, b)
            }
        }
        return out, nil
    }

    if src.Width%2 != 0 {
        return nil, fmt.Errorf("%w: chunky 4:2:2 width %d is odd", frame.ErrInvalidDimensions, src.Width)
    }
    for y := 0; y < src.Height; y++ {
        in, o := src.Row(y), out.Row(y)
        for x := 0; x < src.Width; x += 2 {
            g := in[x*2 : x*2+4]
            r, gg, b := m.Apply(g[pos.y0], g[pos.cb], g[pos.cr])
            put(o[x*4:x*4+4], r, gg, b)
            r, gg, b = m.Apply(g[pos.y1], g[pos.cb], g[pos.cr])
            put(o[x*4+4:x*4+8], r, gg, b)
        }
    }
    return out, nil
}
