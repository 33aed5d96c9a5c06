// Package frame holds the image model shared by the conversion stages:
// planes with explicit row strides, frames tagged with a pixel format, and
// the error kinds every stage reports.
package frame

import "fmt"

// Frame is an image made of one or more planes of equal height.
type Frame struct {
    Width, Height int
    Format        PixelFormat
    Planes        []*Plane
}

// Validate checks plane count, shared height and the per-format widths.
// 4:2:2 chroma planes must be half width; chunky 4:2:2 planes hold two
// bytes per luma sample.
func (f *Frame) Validate() error {
    if f == nil {
        return fmt.Errorf("%w: nil frame", ErrInvalidDimensions)
    }
    if f.Width <= 0 || f.Height <= 0 {
        return fmt.Errorf("%w: frame %dx%d", ErrInvalidDimensions, f.Width, f.Height)
    }
    for i, p := range f.Planes {
        if err := p.Validate(); err != nil { return fmt.Errorf("plane %d: %w", i, err) }
        if p.Height != f.Height {
            return fmt.Errorf("%w: plane %d height %d, frame %d", ErrInvalidDimensions, i, p.Height, f.Height)
        }
    }
    want := func(n int) error {
        if len(f.Planes) != n {
            return fmt.Errorf("%w: %v wants %d planes, got %d", ErrInvalidDimensions, f.Format, n, len(f.Planes))
        }
        return nil
    }
    shape := func(i, w, ch int) error {
        if p := f.Planes[i]; p.Width != w || p.Channels != ch {
            return fmt.Errorf("%w: %v plane %d is %d px x %d ch, want %d x %d", ErrInvalidDimensions, f.Format, i, p.Width, p.Channels, w, ch)
        }
        return nil
    }
    switch f.Format {
    case RGBA8:
        if err := want(1); err != nil { return err }
        return shape(0, f.Width, 4)
    case YUV422Planar, YUV444Planar:
        if err := want(3); err != nil { return err }
        sub, _ := f.Format.Subsampling()
        cw := sub.ChromaWidth(f.Width)
        if cw == 0 {
            return fmt.Errorf("%w: width %d leaves no chroma", ErrInvalidDimensions, f.Width)
        }
        if err := shape(0, f.Width, 1); err != nil { return err }
        if err := shape(1, cw, 1); err != nil { return err }
        return shape(2, cw, 1)
    case YUV422Chunky:
        if err := want(1); err != nil { return err }
        if f.Width%2 != 0 {
            return fmt.Errorf("%w: chunky 4:2:2 width %d is odd", ErrInvalidDimensions, f.Width)
        }
        return shape(0, f.Width, 2)
    case YUV444Chunky:
        if err := want(1); err != nil { return err }
        return shape(0, f.Width, 3)
    }
    return fmt.Errorf("%w: %v", ErrUnsupportedPixelFormat, f.Format)
}

// NewRGBA wraps a tightly packed RGBA8 buffer as a frame.
func NewRGBA(pix []byte, w, h int) (*Frame, error) {
    p, err := WrapPlane(pix, w, h, 4, w*4)
    if err != nil { return nil, err }
    return &Frame{Width: w, Height: h, Format: RGBA8, Planes: []*Plane{p}}, nil
}
