// Package layout moves samples between planar buffers (one channel per
// plane) and chunky buffers (all channels of a pixel adjacent). It never
// changes sample values; it only reorders bytes.
package layout

import (
    "fmt"

    "yuvconv/internal/frame"
)

// PlanarToChunky interleaves src into one tightly packed plane. Position k of
// every output pixel comes from src[order[k]]; a nil order means 0..n-1.
// All sources must share width and height; each is read with its own stride
// and contributes its full pixel (BytesPerPixel bytes) per position.
func PlanarToChunky(src []*frame.Plane, order []int) (*frame.Plane, error) {
    if len(src) == 0 {
        return nil, fmt.Errorf("%w: no source planes", frame.ErrInvalidDimensions)
    }
    order, err := checkOrder(order, len(src))
    if err != nil { return nil, err }
    w, h := src[0].Width, src[0].Height
    channels := 0
    for i, p := range src {
        if err := p.Validate(); err != nil { return nil, fmt.Errorf("source %d: %w", i, err) }
        if p.Width != w || p.Height != h {
            return nil, fmt.Errorf("%w: source %d is %dx%d, want %dx%d", frame.ErrInvalidDimensions, i, p.Width, p.Height, w, h)
        }
        channels += p.Channels
    }
    // destination stride is tightly packed
    dst, err := frame.NewPlaneStride(w, h, channels, w*channels)
    if err != nil { return nil, err }

    bpp := make([]int, len(order))
    for k, s := range order { bpp[k] = src[s].BytesPerPixel() }
    for y := 0; y < h; y++ {
        out := dst.Row(y)
        o := 0
        for x := 0; x < w; x++ {
            for k, s := range order {
                n := bpp[k]
                copy(out[o:o+n], src[s].Row(y)[x*n:x*n+n])
                o += n
            }
        }
    }
    return dst, nil
}

// ChunkyToPlanar is the inverse of PlanarToChunky: it splits every pixel of
// src into count equal sample groups and stores group k in plane order[k].
// Destination planes get aligned strides.
func ChunkyToPlanar(src *frame.Plane, count int, order []int) ([]*frame.Plane, error) {
    if err := src.Validate(); err != nil { return nil, err }
    if count <= 0 || src.Channels%count != 0 {
        return nil, fmt.Errorf("%w: %d channels do not split into %d planes", frame.ErrUnsupportedPixelFormat, src.Channels, count)
    }
    order, err := checkOrder(order, count)
    if err != nil { return nil, err }
    per := src.Channels / count
    dst := make([]*frame.Plane, count)
    for i := range dst {
        if dst[i], err = frame.NewPlane(src.Width, src.Height, per); err != nil { return nil, err }
    }
    n := per * src.Depth / 8
    for y := 0; y < src.Height; y++ {
        in := src.Row(y)
        o := 0
        for x := 0; x < src.Width; x++ {
            for _, d := range order {
                copy(dst[d].Row(y)[x*n:x*n+n], in[o:o+n])
                o += n
            }
        }
    }
    return dst, nil
}

func checkOrder(order []int, n int) ([]int, error) {
    if order == nil {
        order = make([]int, n)
        for i := range order { order[i] = i }
        return order, nil
    }
    if len(order) != n {
        return nil, fmt.Errorf("%w: order %v for %d planes", frame.ErrUnsupportedPixelFormat, order, n)
    }
    seen := make([]bool, n)
    for _, v := range order {
        if v < 0 || v >= n || seen[v] {
            return nil, fmt.Errorf("%w: order %v is not a permutation", frame.ErrUnsupportedPixelFormat, order)
        }
        seen[v] = true
    }
    return order, nil
}
