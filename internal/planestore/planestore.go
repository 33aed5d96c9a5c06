// Package planestore reads and writes headerless planar YCbCr frame dumps
// as produced by `ffmpeg -pix_fmt yuv422p|yuv444p`:
//
//	[Y: W*H][Cb: Cw*H][Cr: Cw*H]
//
// where Cw is W for 4:4:4 and floor(W/2) for 4:2:2. Paths ending in ".zst"
// are zstd-compressed dumps of the same layout.
package planestore

import (
    "errors"
    "fmt"
    "io"
    "io/fs"
    "os"
    "path/filepath"
    "strings"

    "github.com/klauspost/compress/zstd"

    "yuvconv/internal/frame"
)

// CompressedExt marks zstd-compressed dumps.
const CompressedExt = ".zst"

// FrameSize returns the byte size of one planar frame.
func FrameSize(w, h int, sub frame.Subsampling) (int, error) {
    if w <= 0 || h <= 0 {
        return 0, fmt.Errorf("%w: %dx%d", frame.ErrInvalidDimensions, w, h)
    }
    if !sub.Valid() {
        return 0, fmt.Errorf("%w: subsampling %v", frame.ErrUnsupportedPixelFormat, sub)
    }
    cw := sub.ChromaWidth(w)
    if cw == 0 {
        return 0, fmt.Errorf("%w: width %d leaves no chroma", frame.ErrInvalidDimensions, w)
    }
    perRow := w + 2*cw
    if perRow > frame.MaxFrameBytes/h {
        return 0, fmt.Errorf("%w: %dx%d frame", frame.ErrAllocationFailure, w, h)
    }
    return perRow * h, nil
}

// ReadPlanar loads one frame from path.
func ReadPlanar(path string, w, h int, sub frame.Subsampling) (*frame.Frame, error) {
    f, err := os.Open(path)
    if err != nil {
        if errors.Is(err, fs.ErrNotExist) {
            return nil, fmt.Errorf("%w: %s", frame.ErrFileNotFound, path)
        }
        return nil, fmt.Errorf("open %s: %w", path, err)
    }
    defer f.Close()

    var r io.Reader = f
    if IsCompressed(path) {
        dec, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(1), zstd.WithDecoderLowmem(true))
        if err != nil { return nil, fmt.Errorf("zstd decode %s: %w", path, err) }
        defer dec.Close()
        r = dec
    }
    fr, err := ReadPlanarFrom(r, w, h, sub)
    if err != nil { return nil, fmt.Errorf("read %s: %w", path, err) }
    return fr, nil
}

// ReadPlanarFrom reads exactly one frame from r. Trailing bytes are left
// unread.
func ReadPlanarFrom(r io.Reader, w, h int, sub frame.Subsampling) (*frame.Frame, error) {
    n, err := FrameSize(w, h, sub)
    if err != nil { return nil, err }
    buf := make([]byte, n)
    got, err := io.ReadFull(r, buf)
    if err != nil {
        if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
            return nil, fmt.Errorf("%w: have %d of %d bytes", frame.ErrTruncatedInput, got, n)
        }
        return nil, err
    }
    return Split(buf, w, h, sub)
}

// Split copies the Y, Cb and Cr byte ranges of data into freshly allocated
// planes, row by row. The destination stride is aligned and generally wider
// than the plane width.
func Split(data []byte, w, h int, sub frame.Subsampling) (*frame.Frame, error) {
    n, err := FrameSize(w, h, sub)
    if err != nil { return nil, err }
    if len(data) < n {
        return nil, fmt.Errorf("%w: have %d of %d bytes", frame.ErrTruncatedInput, len(data), n)
    }
    cw := sub.ChromaWidth(w)
    widths := [3]int{w, cw, cw}
    out := &frame.Frame{Width: w, Height: h, Format: sub.PlanarFormat(), Planes: make([]*frame.Plane, 3)}
    off := 0
    for i, pw := range widths {
        p, err := frame.NewPlane(pw, h, 1)
        if err != nil { return nil, err }
        for y := 0; y < h; y++ {
            copy(p.Row(y), data[off:off+pw])
            off += pw
        }
        out.Planes[i] = p
    }
    return out, nil
}

// WritePlanar merges the planes of f into one contiguous Y, Cb, Cr buffer.
// Stride padding is discarded.
func WritePlanar(f *frame.Frame) ([]byte, error) {
    if err := checkPlanar(f); err != nil { return nil, err }
    sub, _ := f.Format.Subsampling()
    n, err := FrameSize(f.Width, f.Height, sub)
    if err != nil { return nil, err }
    out := make([]byte, 0, n)
    for _, p := range f.Planes {
        for y := 0; y < p.Height; y++ {
            out = append(out, p.Row(y)...)
        }
    }
    return out, nil
}

// WritePlanarTo streams the merged planes of f to w.
func WritePlanarTo(w io.Writer, f *frame.Frame) (int64, error) {
    if err := checkPlanar(f); err != nil { return 0, err }
    var total int64
    for _, p := range f.Planes {
        for y := 0; y < p.Height; y++ {
            n, err := w.Write(p.Row(y))
            total += int64(n)
            if err != nil { return total, err }
        }
    }
    return total, nil
}

// WritePlanarFile writes f to path through a temporary file in the same
// directory, so path is either fully written or untouched.
func WritePlanarFile(path string, f *frame.Frame) (int64, error) {
    if err := checkPlanar(f); err != nil { return 0, err }
    tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
    if err != nil { return 0, fmt.Errorf("create temp for %s: %w", path, err) }
    tmpName := tmp.Name()
    fail := func(err error) (int64, error) {
        _ = tmp.Close()
        _ = os.Remove(tmpName)
        return 0, err
    }

    var n int64
    if IsCompressed(path) {
        enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedBetterCompression), zstd.WithEncoderConcurrency(1))
        if err != nil { return fail(fmt.Errorf("zstd encode %s: %w", path, err)) }
        n, err = WritePlanarTo(enc, f)
        if err != nil {
            enc.Close()
            return fail(fmt.Errorf("write %s: %w", path, err))
        }
        if err := enc.Close(); err != nil { return fail(fmt.Errorf("zstd encode %s: %w", path, err)) }
    } else {
        n, err = WritePlanarTo(tmp, f)
        if err != nil { return fail(fmt.Errorf("write %s: %w", path, err)) }
    }
    if err := tmp.Close(); err != nil {
        _ = os.Remove(tmpName)
        return 0, fmt.Errorf("close %s: %w", path, err)
    }
    if err := os.Rename(tmpName, path); err != nil {
        _ = os.Remove(tmpName)
        return 0, fmt.Errorf("rename to %s: %w", path, err)
    }
    return n, nil
}

// IsCompressed reports whether path names a zstd dump.
func IsCompressed(path string) bool {
    return strings.EqualFold(filepath.Ext(path), CompressedExt)
}

func checkPlanar(f *frame.Frame) error {
    if f == nil || !f.Format.Planar() {
        var got frame.PixelFormat
        if f != nil { got = f.Format }
        return fmt.Errorf("%w: planar store cannot hold %v", frame.ErrUnsupportedPixelFormat, got)
    }
    return f.Validate()
}
