// Package pipeline runs whole-frame conversions between planar YCbCr dumps
// and packed RGBA. The subsampling picks the stage sequence once, at
// construction; pixel content never changes which stages run.
package pipeline

import (
    "fmt"
    "io"
    "log/slog"
    "time"

    "github.com/google/uuid"

    "yuvconv/internal/colorimetry"
    "yuvconv/internal/frame"
    "yuvconv/internal/layout"
    "yuvconv/internal/planestore"
    "yuvconv/internal/rtpraw"
)

// Config is everything a conversion needs besides the pixels.
type Config struct {
    Width, Height int
    Subsampling   frame.Subsampling
    Range         colorimetry.ColorRange
    Order422      frame.ChannelOrder // chunky 4:2:2 group order
    Order444      frame.ChannelOrder // chunky 4:4:4 sample order
    Pixel         layout.Permutation // byte order of packed RGBA buffers
    Alpha         uint8              // alpha written by Decode
}

// DefaultConfig returns 800x600 video-range 4:2:2 in 2vuy order with
// opaque RGBA output.
func DefaultConfig() Config {
    return Config{
        Width:       800,
        Height:      600,
        Subsampling: frame.Sub422,
        Range:       colorimetry.VideoRange,
        Order422:    frame.Order2vuy,
        Order444:    frame.OrderV308,
        Pixel:       layout.OrderRGBA,
        Alpha:       255,
    }
}

// Validate checks the dimensions, subsampling, orders and range.
func (c Config) Validate() error {
    if c.Width <= 0 || c.Height <= 0 {
        return fmt.Errorf("%w: %dx%d", frame.ErrInvalidDimensions, c.Width, c.Height)
    }
    if !c.Subsampling.Valid() {
        return fmt.Errorf("%w: subsampling %v", frame.ErrUnsupportedPixelFormat, c.Subsampling)
    }
    if c.Subsampling == frame.Sub422 && c.Width < 2 {
        return fmt.Errorf("%w: 4:2:2 width %d leaves no chroma", frame.ErrInvalidDimensions, c.Width)
    }
    if err := c.chunky().Validate(); err != nil { return err }
    if c.Subsampling == frame.Sub422 {
        if err := layout.CheckOrder422(c.Order422); err != nil { return err }
    }
    if !c.Pixel.Valid() {
        return fmt.Errorf("%w: byte order %v", frame.ErrUnsupportedPixelFormat, c.Pixel)
    }
    return c.Range.Validate()
}

// chunky is the intermediate interleaved layout.
func (c Config) chunky() frame.Descriptor {
    if c.Subsampling == frame.Sub422 {
        return frame.Descriptor{Channels: 4, HSub: frame.Sub422, Order: c.Order422, Depth: 8}
    }
    return frame.Descriptor{Channels: 3, HSub: frame.Sub444, Order: c.Order444, Depth: 8}
}

// Assembler holds one Config and the two matrices derived from its range.
// It keeps no per-frame state, so one Assembler may convert frames from
// several goroutines.
type Assembler struct {
    cfg Config
    fwd colorimetry.Matrix
    inv colorimetry.Matrix
    log *slog.Logger
}

// New validates cfg and generates both matrices. A nil logger means
// slog.Default().
func New(cfg Config, logger *slog.Logger) (*Assembler, error) {
    if err := cfg.Validate(); err != nil { return nil, fmt.Errorf("pipeline config: %w", err) }
    if logger == nil { logger = slog.Default() }
    fwd, err := colorimetry.GenerateMatrix(cfg.Range, colorimetry.RGBToYCbCr)
    if err != nil { return nil, err }
    inv, err := colorimetry.GenerateMatrix(cfg.Range, colorimetry.YCbCrToRGB)
    if err != nil { return nil, err }
    return &Assembler{cfg: cfg, fwd: fwd, inv: inv, log: logger}, nil
}

// Config returns the configuration the Assembler was built with.
func (a *Assembler) Config() Config { return a.cfg }

// job tracks one conversion for logging.
type job struct {
    a     *Assembler
    id    string
    op    string
    start time.Time
}

func (a *Assembler) begin(op string) *job {
    return &job{a: a, id: uuid.New().String(), op: op, start: time.Now()}
}

func (j *job) stage(name string, t time.Time) {
    j.a.log.Debug("stage done", "job", j.id, "op", j.op, "stage", name, "duration", time.Since(t))
}

func (j *job) fail(stage string, err error) error {
    incFramesFailed()
    j.a.log.Warn("conversion aborted", "job", j.id, "op", j.op, "stage", stage, "err", err)
    return fmt.Errorf("%s: %s: %w", j.op, stage, err)
}

func (j *job) done(f *frame.Frame) {
    j.a.log.Info("conversion done", "job", j.id, "op", j.op, "format", f.Format.String(),
        "width", f.Width, "height", f.Height, "duration", time.Since(j.start))
}

// Decode converts a planar frame to packed RGBA in Config.Pixel byte order.
// Under 4:2:2 an odd trailing luma column is dropped.
func (a *Assembler) Decode(src *frame.Frame) (*frame.Frame, error) {
    return a.decode(a.begin("decode"), src)
}

func (a *Assembler) decode(j *job, src *frame.Frame) (*frame.Frame, error) {
    if err := a.checkInput(src, a.cfg.Subsampling.PlanarFormat()); err != nil { return nil, j.fail("input", err) }

    t := time.Now()
    var chunky *frame.Plane
    var err error
    y, cb, cr := src.Planes[0], src.Planes[1], src.Planes[2]
    if a.cfg.Subsampling == frame.Sub422 {
        chunky, err = layout.Interleave422(y, cb, cr, a.cfg.Order422)
    } else {
        chunky, err = layout.Interleave444(y, cb, cr, a.cfg.Order444)
    }
    if err != nil { return nil, j.fail("interleave", err) }
    j.stage("interleave", t)

    t = time.Now()
    rgba, err := colorimetry.YCbCrToRGBA(chunky, a.cfg.chunky(), &a.inv, a.cfg.Pixel, a.cfg.Alpha)
    if err != nil { return nil, j.fail("ycbcr->rgba", err) }
    j.stage("ycbcr->rgba", t)

    out := &frame.Frame{Width: rgba.Width, Height: rgba.Height, Format: frame.RGBA8, Planes: []*frame.Plane{rgba}}
    incFramesDecoded()
    j.done(out)
    return out, nil
}

// DecodeFile reads a planar dump of Config.Width x Config.Height and
// decodes it.
func (a *Assembler) DecodeFile(path string) (*frame.Frame, error) {
    j := a.begin("decode")
    t := time.Now()
    src, err := planestore.ReadPlanar(path, a.cfg.Width, a.cfg.Height, a.cfg.Subsampling)
    if err != nil { return nil, j.fail("read", err) }
    j.stage("read", t)
    out, err := a.decode(j, src)
    if err != nil { return nil, err }
    n, _ := planestore.FrameSize(a.cfg.Width, a.cfg.Height, a.cfg.Subsampling)
    addBytesRead(int64(n))
    return out, nil
}

// Encode converts a packed RGBA frame, whose bytes follow Config.Pixel, to
// a planar frame. Alpha is ignored. Under 4:2:2 an odd trailing column is
// dropped, so the result is 2*floor(W/2) wide.
func (a *Assembler) Encode(src *frame.Frame) (*frame.Frame, error) {
    return a.encode(a.begin("encode"), src)
}

func (a *Assembler) encode(j *job, src *frame.Frame) (*frame.Frame, error) {
    out, err := a.toPlanar(j, src)
    if err != nil { return nil, err }
    incFramesEncoded()
    j.done(out)
    return out, nil
}

func (a *Assembler) toPlanar(j *job, src *frame.Frame) (*frame.Frame, error) {
    if err := a.checkInput(src, frame.RGBA8); err != nil { return nil, j.fail("input", err) }

    t := time.Now()
    desc := a.cfg.chunky()
    chunky, err := colorimetry.RGBAToYCbCr(src.Planes[0], a.cfg.Pixel, &a.fwd, desc)
    if err != nil { return nil, j.fail("rgba->ycbcr", err) }
    j.stage("rgba->ycbcr", t)

    t = time.Now()
    var y, cb, cr *frame.Plane
    if a.cfg.Subsampling == frame.Sub422 {
        y, cb, cr, err = layout.Deinterleave422(chunky, desc.Order)
    } else {
        y, cb, cr, err = layout.Deinterleave444(chunky, desc.Order)
    }
    if err != nil { return nil, j.fail("deinterleave", err) }
    j.stage("deinterleave", t)

    out := &frame.Frame{Width: y.Width, Height: y.Height, Format: a.cfg.Subsampling.PlanarFormat(), Planes: []*frame.Plane{y, cb, cr}}
    if err := out.Validate(); err != nil { return nil, j.fail("assemble", err) }
    return out, nil
}

// EncodeFile encodes src and writes the planar dump to path. Nothing is
// written when any stage fails.
func (a *Assembler) EncodeFile(src *frame.Frame, path string) (int64, error) {
    j := a.begin("encode")
    out, err := a.toPlanar(j, src)
    if err != nil { return 0, err }
    t := time.Now()
    n, err := planestore.WritePlanarFile(path, out)
    if err != nil { return 0, j.fail("write", err) }
    j.stage("write", t)
    addBytesWritten(n)
    incFramesEncoded()
    j.done(out)
    return n, nil
}

// Planes returns the Y, Cb and Cr planes of an RGBA frame, for inspecting
// channels one at a time.
func (a *Assembler) Planes(src *frame.Frame) (y, cb, cr *frame.Plane, err error) {
    out, err := a.toPlanar(a.begin("planes"), src)
    if err != nil { return nil, nil, nil, err }
    return out.Planes[0], out.Planes[1], out.Planes[2], nil
}

// Send converts an RGBA frame to the RFC 4175 sample order, packetizes it
// with ts and writes the packets to w.
func (a *Assembler) Send(src *frame.Frame, p *rtpraw.Packetizer, ts uint32, w io.Writer) (int, error) {
    j := a.begin("send")
    if err := a.checkInput(src, frame.RGBA8); err != nil { return 0, j.fail("input", err) }

    t := time.Now()
    chunky, err := colorimetry.RGBAToYCbCr(src.Planes[0], a.cfg.Pixel, &a.fwd, rtpraw.Descriptor(a.cfg.Subsampling))
    if err != nil { return 0, j.fail("rgba->ycbcr", err) }
    j.stage("rgba->ycbcr", t)

    t = time.Now()
    pkts, err := p.Packetize(chunky, a.cfg.Subsampling, ts)
    if err != nil { return 0, j.fail("packetize", err) }
    j.stage("packetize", t)

    n, err := rtpraw.WritePackets(w, pkts)
    addPacketsSent(n)
    if err != nil { return n, j.fail("write", err) }
    a.log.Info("frame sent", "job", j.id, "packets", n, "width", chunky.Width, "height", chunky.Height, "duration", time.Since(j.start))
    return n, nil
}

func (a *Assembler) checkInput(f *frame.Frame, want frame.PixelFormat) error {
    if f == nil {
        return fmt.Errorf("%w: nil frame", frame.ErrInvalidDimensions)
    }
    if f.Format != want {
        return fmt.Errorf("%w: got %v, want %v", frame.ErrUnsupportedPixelFormat, f.Format, want)
    }
    return f.Validate()
}
