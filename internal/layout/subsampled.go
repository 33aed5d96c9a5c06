package layout

import (
    "fmt"

    "yuvconv/internal/frame"
)

// plan422 splits a 4:2:2 group order into the two interleave stages.
type plan422 struct {
    chroma []int // stage 1: positions of Cb (0) and Cr (1)
    outer  []int // stage 2: positions of the chroma plane (0) and luma (1)
}

func plan422For(order frame.ChannelOrder) (plan422, error) {
    d := frame.Descriptor{Channels: 4, HSub: frame.Sub422, Order: order, Depth: 8}
    if err := d.Validate(); err != nil { return plan422{}, err }
    var p plan422
    switch {
    case order[1] == frame.ChanY && order[3] == frame.ChanY:
        p.outer = []int{0, 1}
        p.chroma = chromaPair(order[0])
    case order[0] == frame.ChanY && order[2] == frame.ChanY:
        p.outer = []int{1, 0}
        p.chroma = chromaPair(order[1])
    default:
        return plan422{}, fmt.Errorf("%w: 4:2:2 order %v does not alternate luma", frame.ErrUnsupportedPixelFormat, order)
    }
    return p, nil
}

// CheckOrder422 reports whether Interleave422 accepts order: two luma
// samples alternating with one Cb and one Cr.
func CheckOrder422(order frame.ChannelOrder) error {
    _, err := plan422For(order)
    return err
}

func chromaPair(first frame.Channel) []int {
    if first == frame.ChanCb { return []int{0, 1} }
    return []int{1, 0}
}

// Interleave422 builds a chunky 4:2:2 plane from planar Y, Cb and Cr in two
// stages: Cb and Cr (half width) merge into one half-width 2-channel plane,
// which is then viewed as a full-width 1-channel plane and interleaved with
// luma. With Order2vuy every 4 bytes are {Cb, Y0, Cr, Y1}.
//
// The result is 2*cb.Width pixels wide with 2 bytes per pixel. For an odd
// luma width the trailing luma column has no chroma pair and is dropped.
func Interleave422(y, cb, cr *frame.Plane, order frame.ChannelOrder) (*frame.Plane, error) {
    p, err := plan422For(order)
    if err != nil { return nil, err }
    if cb.Width != cr.Width || 2*cb.Width > y.Width || 2*cb.Width < y.Width-1 {
        return nil, fmt.Errorf("%w: luma %d with chroma %d/%d", frame.ErrInvalidDimensions, y.Width, cb.Width, cr.Width)
    }
    cbcr, err := PlanarToChunky([]*frame.Plane{cb, cr}, p.chroma)
    if err != nil { return nil, fmt.Errorf("merge chroma: %w", err) }
    even := 2 * cb.Width
    uv, err := cbcr.Reshape(even, 1)
    if err != nil { return nil, err }
    luma := y
    if y.Width != even {
        if luma, err = y.Crop(even); err != nil { return nil, err }
    }
    out, err := PlanarToChunky([]*frame.Plane{uv, luma}, p.outer)
    if err != nil { return nil, fmt.Errorf("merge luma: %w", err) }
    return out, nil
}

// Deinterleave422 reverses Interleave422, returning Y, Cb and Cr planes.
func Deinterleave422(src *frame.Plane, order frame.ChannelOrder) (y, cb, cr *frame.Plane, err error) {
    p, err := plan422For(order)
    if err != nil { return nil, nil, nil, err }
    if src.Channels != 2 || src.Width%2 != 0 {
        return nil, nil, nil, fmt.Errorf("%w: chunky 4:2:2 plane %d px x %d ch", frame.ErrInvalidDimensions, src.Width, src.Channels)
    }
    outer, err := ChunkyToPlanar(src, 2, p.outer)
    if err != nil { return nil, nil, nil, fmt.Errorf("split luma: %w", err) }
    uv, err := outer[0].Reshape(src.Width/2, 2)
    if err != nil { return nil, nil, nil, err }
    chroma, err := ChunkyToPlanar(uv, 2, p.chroma)
    if err != nil { return nil, nil, nil, fmt.Errorf("split chroma: %w", err) }
    return outer[1], chroma[0], chroma[1], nil
}

func order444(order frame.ChannelOrder) ([]int, error) {
    d := frame.Descriptor{Channels: 3, HSub: frame.Sub444, Order: order, Depth: 8}
    if err := d.Validate(); err != nil { return nil, err }
    idx := make([]int, 3)
    for k, c := range order {
        switch c {
        case frame.ChanY:
            idx[k] = 0
        case frame.ChanCb:
            idx[k] = 1
        case frame.ChanCr:
            idx[k] = 2
        }
    }
    return idx, nil
}

// Interleave444 interleaves three full-width planes into 3-byte groups in
// the given order (OrderV308 is Cr, Y, Cb).
func Interleave444(y, cb, cr *frame.Plane, order frame.ChannelOrder) (*frame.Plane, error) {
    idx, err := order444(order)
    if err != nil { return nil, err }
    return PlanarToChunky([]*frame.Plane{y, cb, cr}, idx)
}

// Deinterleave444 reverses Interleave444.
func Deinterleave444(src *frame.Plane, order frame.ChannelOrder) (y, cb, cr *frame.Plane, err error) {
    idx, err := order444(order)
    if err != nil { return nil, nil, nil, err }
    if src.Channels != 3 {
        return nil, nil, nil, fmt.Errorf("%w: chunky 4:4:4 plane has %d channels", frame.ErrUnsupportedPixelFormat, src.Channels)
    }
    planes, err := ChunkyToPlanar(src, 3, idx)
    if err != nil { return nil, nil, nil, err }
    return planes[0], planes[1], planes[2], nil
}
