package main

import (
    "errors"
    "flag"
    "fmt"
    "io"
    "log/slog"
    "math/rand"
    "net"
    "os"
    "path/filepath"
    "sort"
    "strings"

    "yuvconv/internal/config"
    "yuvconv/internal/frame"
    "yuvconv/internal/imageio"
    "yuvconv/internal/layout"
    "yuvconv/internal/pipeline"
    "yuvconv/internal/planestore"
    "yuvconv/internal/rtpraw"
    "yuvconv/internal/version"
)

const usage = `usage: yuvconv <command> [flags]

commands:
  torgb   -in frame.yuv -out image.png     planar YCbCr dump to image
  toyuv   -in image.png -out frame.yuv     image to planar YCbCr dump
  send    -in image.png|frame.yuv -addr host:port
                                           one frame as RFC 4175 RTP over UDP
  version                                  print build information

common flags: -config job.yaml -width -height -subsampling -range -pixel -v
environment: YUV_WIDTH, YUV_HEIGHT, YUV_SUBSAMPLING, YUV_RANGE
`

func main() {
    if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
        fmt.Fprintln(os.Stderr, "yuvconv:", err)
        os.Exit(1)
    }
}

// common holds the flags every command accepts.
type common struct {
    fs          *flag.FlagSet
    configPath  *string
    width       *int
    height      *int
    subsampling *string
    colorRange  *string
    pixel       *string
    verbose     *bool
}

func newCommon(name string, stderr io.Writer) *common {
    fs := flag.NewFlagSet(name, flag.ContinueOnError)
    fs.SetOutput(stderr)
    def := config.Default()
    return &common{
        fs:          fs,
        configPath:  fs.String("config", "", "YAML job file"),
        width:       fs.Int("width", getEnvInt("YUV_WIDTH", def.Width), "frame width"),
        height:      fs.Int("height", getEnvInt("YUV_HEIGHT", def.Height), "frame height"),
        subsampling: fs.String("subsampling", getEnv("YUV_SUBSAMPLING", def.Subsampling), "422 or 444"),
        colorRange:  fs.String("range", getEnv("YUV_RANGE", def.Range), "video, video-clamped or full"),
        pixel:       fs.String("pixel", def.PixelOrder, "packed byte order: rgba, bgra, argb, abgr"),
        verbose:     fs.Bool("v", false, "debug logging"),
    }
}

// job resolves defaults, the job file, the environment and explicit flags,
// in that order of increasing priority.
func (c *common) job() (*config.Job, error) {
    job := config.Default()
    if *c.configPath != "" {
        loaded, err := config.Load(*c.configPath)
        if err != nil { return nil, err }
        job = *loaded
    }
    if v := getEnvInt("YUV_WIDTH", 0); v != 0 { job.Width = v }
    if v := getEnvInt("YUV_HEIGHT", 0); v != 0 { job.Height = v }
    if v := getEnv("YUV_SUBSAMPLING", ""); v != "" { job.Subsampling = v }
    if v := getEnv("YUV_RANGE", ""); v != "" { job.Range = v }
    c.fs.Visit(func(f *flag.Flag) {
        switch f.Name {
        case "width":
            job.Width = *c.width
        case "height":
            job.Height = *c.height
        case "subsampling":
            job.Subsampling = *c.subsampling
        case "range":
            job.Range = *c.colorRange
            job.CustomRange = nil
        case "pixel":
            job.PixelOrder = *c.pixel
        }
    })
    if err := config.Validate(&job); err != nil { return nil, err }
    return &job, nil
}

func (c *common) logger(stderr io.Writer) *slog.Logger {
    level := slog.LevelInfo
    if *c.verbose { level = slog.LevelDebug }
    return slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))
}

func run(args []string, stdout, stderr io.Writer) error {
    if len(args) == 0 {
        fmt.Fprint(stderr, usage)
        return errors.New("missing command")
    }
    switch args[0] {
    case "torgb":
        return runToRGB(args[1:], stderr)
    case "toyuv":
        return runToYUV(args[1:], stderr)
    case "send":
        return runSend(args[1:], stderr)
    case "version":
        fmt.Fprintln(stdout, version.String())
        return nil
    case "-h", "-help", "--help", "help":
        fmt.Fprint(stdout, usage)
        return nil
    }
    fmt.Fprint(stderr, usage)
    return fmt.Errorf("unknown command %q", args[0])
}

func runToRGB(args []string, stderr io.Writer) error {
    c := newCommon("torgb", stderr)
    in := c.fs.String("in", "", "planar YCbCr dump (.zst for compressed)")
    out := c.fs.String("out", "", "output image (.png, .jpg, .gif, .qoi)")
    if err := c.fs.Parse(args); err != nil { return err }
    if *in == "" || *out == "" { return errors.New("torgb needs -in and -out") }
    if _, err := imageio.FormatFor(*out); err != nil { return err }

    job, err := c.job()
    if err != nil { return err }
    log := c.logger(stderr)
    log.Info("yuvconv", "version", version.String(), "job", job.String())
    a, err := newAssembler(job, log)
    if err != nil { return err }

    rgba, err := a.DecodeFile(*in)
    if err != nil { return err }
    rgba, err = toCanonical(rgba, a.Config().Pixel)
    if err != nil { return err }
    if err := imageio.WriteFrame(*out, rgba); err != nil { return err }
    logCounters(log)
    return nil
}

func runToYUV(args []string, stderr io.Writer) error {
    c := newCommon("toyuv", stderr)
    in := c.fs.String("in", "", "input image")
    out := c.fs.String("out", "", "planar YCbCr dump")
    planes := c.fs.String("planes", "", "also write Y, Cb and Cr as grayscale PNGs into this directory")
    compress := c.fs.Bool("zstd", false, "zstd-compress the dump")
    if err := c.fs.Parse(args); err != nil { return err }
    if *in == "" || *out == "" { return errors.New("toyuv needs -in and -out") }

    job, err := c.job()
    if err != nil { return err }
    if *compress { job.Compress = true }
    log := c.logger(stderr)
    log.Info("yuvconv", "version", version.String(), "job", job.String())

    src, err := imageio.DecodeFile(*in)
    if err != nil { return err }
    job.Width, job.Height = src.Width, src.Height
    a, err := newAssembler(job, log)
    if err != nil { return err }
    src, err = fromCanonical(src, a.Config().Pixel)
    if err != nil { return err }

    path := job.OutputPath(*out)
    n, err := a.EncodeFile(src, path)
    if err != nil { return err }
    log.Info("wrote planar dump", "path", path, "bytes", n)

    if *planes != "" {
        if err := writePlanes(a, src, *planes); err != nil { return err }
    }
    logCounters(log)
    return nil
}

func runSend(args []string, stderr io.Writer) error {
    c := newCommon("send", stderr)
    in := c.fs.String("in", "", "input image or planar dump (.yuv, .raw, .zst)")
    addr := c.fs.String("addr", "", "destination host:port")
    mtu := c.fs.Int("mtu", rtpraw.DefaultMTU, "maximum RTP packet size")
    pt := c.fs.Int("pt", rtpraw.DefaultPayloadType, "RTP payload type")
    if err := c.fs.Parse(args); err != nil { return err }
    if *in == "" || *addr == "" { return errors.New("send needs -in and -addr") }
    if *pt < 0 || *pt > 127 { return fmt.Errorf("payload type %d outside 0-127", *pt) }

    job, err := c.job()
    if err != nil { return err }
    log := c.logger(stderr)

    var src *frame.Frame
    if isPlanarDump(*in) {
        a, err := newAssembler(job, log)
        if err != nil { return err }
        if src, err = a.DecodeFile(*in); err != nil { return err }
        // Decode produced the configured byte order; Send reads the same.
        job.Width = src.Width
    } else {
        if src, err = imageio.DecodeFile(*in); err != nil { return err }
        job.Width, job.Height = src.Width, src.Height
    }
    a, err := newAssembler(job, log)
    if err != nil { return err }
    if !isPlanarDump(*in) {
        if src, err = fromCanonical(src, a.Config().Pixel); err != nil { return err }
    }

    conn, err := net.Dial("udp", *addr)
    if err != nil { return fmt.Errorf("dial %s: %w", *addr, err) }
    defer conn.Close()
    p := rtpraw.NewPacketizer(*mtu, uint8(*pt), rand.Uint32())
    n, err := a.Send(src, p, rand.Uint32(), conn)
    if err != nil { return err }
    log.Info("sent frame", "addr", *addr, "packets", n, "ssrc", p.SSRC)
    logCounters(log)
    return nil
}

func newAssembler(job *config.Job, log *slog.Logger) (*pipeline.Assembler, error) {
    cfg, err := job.Pipeline()
    if err != nil { return nil, err }
    return pipeline.New(cfg, log)
}

// writePlanes dumps each channel of src as a grayscale image.
func writePlanes(a *pipeline.Assembler, src *frame.Frame, dir string) error {
    y, cb, cr, err := a.Planes(src)
    if err != nil { return err }
    if err := os.MkdirAll(dir, 0o755); err != nil { return err }
    for name, p := range map[string]*frame.Plane{"y.png": y, "cb.png": cb, "cr.png": cr} {
        if err := imageio.WritePlane(filepath.Join(dir, name), p); err != nil { return err }
    }
    return nil
}

// toCanonical reorders a frame in byte order perm to R, G, B, A.
func toCanonical(f *frame.Frame, perm layout.Permutation) (*frame.Frame, error) {
    return permuteFrame(f, perm.Inverse())
}

// fromCanonical reorders an R, G, B, A frame to byte order perm.
func fromCanonical(f *frame.Frame, perm layout.Permutation) (*frame.Frame, error) {
    return permuteFrame(f, perm)
}

func permuteFrame(f *frame.Frame, perm layout.Permutation) (*frame.Frame, error) {
    if perm == layout.OrderRGBA { return f, nil }
    p, err := layout.Permute(f.Planes[0], perm)
    if err != nil { return nil, err }
    return &frame.Frame{Width: f.Width, Height: f.Height, Format: f.Format, Planes: []*frame.Plane{p}}, nil
}

func isPlanarDump(path string) bool {
    if planestore.IsCompressed(path) { return true }
    switch strings.ToLower(filepath.Ext(path)) {
    case ".yuv", ".raw":
        return true
    }
    return false
}

func logCounters(log *slog.Logger) {
    c := pipeline.GetCounters()
    keys := make([]string, 0, len(c))
    for k := range c { keys = append(keys, k) }
    sort.Strings(keys)
    attrs := make([]any, 0, 2*len(keys))
    for _, k := range keys { attrs = append(attrs, k, c[k]) }
    log.Info("counters", attrs...)
}

func getEnv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func getEnvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var x int
        if _, err := fmt.Sscanf(v, "%d", &x); err == nil {
            return x
        }
    }
    return def
}
