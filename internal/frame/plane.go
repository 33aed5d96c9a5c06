package frame

import "fmt"

// MaxFrameBytes caps a single plane allocation.
const MaxFrameBytes = 1 << 30

// rowAlign is the destination row alignment used by NewPlane.
const rowAlign = 16

// Plane is one 2-D sample buffer. Rows start every Stride bytes; only the
// first RowBytes() bytes of a row carry samples.
type Plane struct {
    Pix      []byte
    Width    int // pixels
    Height   int
    Stride   int // bytes between row starts, >= RowBytes()
    Channels int // samples per pixel
    Depth    int // bits per sample
}

// NewPlane allocates a zeroed plane with an aligned stride.
func NewPlane(w, h, channels int) (*Plane, error) {
    if w <= 0 || h <= 0 || channels <= 0 {
        return nil, fmt.Errorf("%w: %dx%d with %d channels", ErrInvalidDimensions, w, h, channels)
    }
    rb, err := mulSize(w, channels)
    if err != nil { return nil, err }
    return NewPlaneStride(w, h, channels, AlignStride(rb))
}

// NewPlaneStride allocates a zeroed plane with an explicit stride.
func NewPlaneStride(w, h, channels, stride int) (*Plane, error) {
    if w <= 0 || h <= 0 || channels <= 0 {
        return nil, fmt.Errorf("%w: %dx%d with %d channels", ErrInvalidDimensions, w, h, channels)
    }
    if stride < w*channels {
        return nil, fmt.Errorf("%w: stride %d below row of %d bytes", ErrInvalidDimensions, stride, w*channels)
    }
    n, err := mulSize(stride, h)
    if err != nil { return nil, err }
    return &Plane{Pix: make([]byte, n), Width: w, Height: h, Stride: stride, Channels: channels, Depth: 8}, nil
}

// WrapPlane adopts pix as a plane without copying.
func WrapPlane(pix []byte, w, h, channels, stride int) (*Plane, error) {
    p := &Plane{Pix: pix, Width: w, Height: h, Stride: stride, Channels: channels, Depth: 8}
    if err := p.Validate(); err != nil { return nil, err }
    return p, nil
}

// AlignStride rounds n up to the row alignment.
func AlignStride(n int) int { return (n + rowAlign - 1) &^ (rowAlign - 1) }

func mulSize(a, b int) (int, error) {
    if a <= 0 || b <= 0 {
        return 0, fmt.Errorf("%w: %d x %d", ErrInvalidDimensions, a, b)
    }
    if a > MaxFrameBytes/b {
        return 0, fmt.Errorf("%w: %d x %d bytes exceeds %d", ErrAllocationFailure, a, b, MaxFrameBytes)
    }
    return a * b, nil
}

// BytesPerPixel is Channels*Depth/8.
func (p *Plane) BytesPerPixel() int { return p.Channels * p.Depth / 8 }

// RowBytes is the number of sample bytes in one row.
func (p *Plane) RowBytes() int { return p.Width * p.BytesPerPixel() }

// Row returns the sample bytes of row y, excluding stride padding.
func (p *Plane) Row(y int) []byte {
    off := y * p.Stride
    return p.Pix[off : off+p.RowBytes()]
}

// Validate checks the buffer invariants: len(Pix) == Stride*Height and
// Stride >= RowBytes().
func (p *Plane) Validate() error {
    if p == nil {
        return fmt.Errorf("%w: nil plane", ErrInvalidDimensions)
    }
    if p.Width <= 0 || p.Height <= 0 || p.Channels <= 0 {
        return fmt.Errorf("%w: %dx%d with %d channels", ErrInvalidDimensions, p.Width, p.Height, p.Channels)
    }
    if p.Depth != 8 {
        return fmt.Errorf("%w: %d-bit samples", ErrUnsupportedPixelFormat, p.Depth)
    }
    if p.Stride < p.RowBytes() {
        return fmt.Errorf("%w: stride %d below row of %d bytes", ErrInvalidDimensions, p.Stride, p.RowBytes())
    }
    if len(p.Pix) != p.Stride*p.Height {
        return fmt.Errorf("%w: buffer holds %d bytes, want %d", ErrTruncatedInput, len(p.Pix), p.Stride*p.Height)
    }
    return nil
}

// Reshape reinterprets the plane with a different width and channel count
// covering the same row bytes. The buffer is shared.
func (p *Plane) Reshape(w, channels int) (*Plane, error) {
    q := *p
    q.Width, q.Channels = w, channels
    if q.RowBytes() != p.RowBytes() {
        return nil, fmt.Errorf("%w: reshape %dx%d to %d pixels of %d channels", ErrInvalidDimensions, p.Width, p.Channels, w, channels)
    }
    return &q, nil
}

// Crop returns a view of the leftmost w pixels of every row.
func (p *Plane) Crop(w int) (*Plane, error) {
    if w <= 0 || w > p.Width {
        return nil, fmt.Errorf("%w: crop %d of %d", ErrInvalidDimensions, w, p.Width)
    }
    q := *p
    q.Width = w
    return &q, nil
}

// Packed returns the samples as one tightly packed buffer, dropping padding.
func (p *Plane) Packed() []byte {
    rb := p.RowBytes()
    if p.Stride == rb { return p.Pix[:rb*p.Height] }
    out := make([]byte, rb*p.Height)
    for y := 0; y < p.Height; y++ {
        copy(out[y*rb:(y+1)*rb], p.Row(y))
    }
    return out
}

// Equal compares sample bytes only; stride padding is ignored.
func (p *Plane) Equal(q *Plane) bool {
    if p.Width != q.Width || p.Height != q.Height || p.BytesPerPixel() != q.BytesPerPixel() {
        return false
    }
    for y := 0; y < p.Height; y++ {
        a, b := p.Row(y), q.Row(y)
        for i := range a {
            if a[i] != b[i] { return false }
        }
    }
    return true
}
