// Package imageio moves RGBA8 frames in and out of encoded image files.
// Decoding accepts PNG, JPEG, GIF, BMP, WebP and QOI; encoding writes PNG,
// JPEG, GIF or QOI chosen by file extension.
package imageio

import (
    "errors"
    "fmt"
    "image"
    "image/draw"
    "image/gif"
    "image/jpeg"
    "image/png"
    "io"
    "io/fs"
    "os"
    "path/filepath"
    "strings"

    "github.com/xfmoulet/qoi"
    _ "golang.org/x/image/bmp"
    _ "golang.org/x/image/webp"

    "yuvconv/internal/frame"
)

var (
    // ErrDecode reports an input that no registered codec understands.
    ErrDecode = errors.New("image decode failed")
    // ErrFormat reports an output extension with no encoder.
    ErrFormat = errors.New("unknown image format")
)

// JPEGQuality is used for .jpg and .jpeg output.
const JPEGQuality = 95

// Decode reads one image from r and returns it as a tightly packed RGBA8
// frame in R, G, B, A byte order, along with the codec name. Color is not
// premultiplied.
func Decode(r io.Reader) (*frame.Frame, string, error) {
    img, name, err := image.Decode(r)
    if err != nil { return nil, "", fmt.Errorf("%w: %v", ErrDecode, err) }
    f, err := FromImage(img)
    if err != nil { return nil, "", err }
    return f, name, nil
}

// DecodeFile decodes the image at path.
func DecodeFile(path string) (*frame.Frame, error) {
    fd, err := os.Open(path)
    if err != nil {
        if errors.Is(err, fs.ErrNotExist) {
            return nil, fmt.Errorf("%w: %s", frame.ErrFileNotFound, path)
        }
        return nil, fmt.Errorf("open %s: %w", path, err)
    }
    defer fd.Close()
    f, _, err := Decode(fd)
    if err != nil { return nil, fmt.Errorf("%s: %w", path, err) }
    return f, nil
}

// FromImage copies img into a new RGBA8 frame.
func FromImage(img image.Image) (*frame.Frame, error) {
    b := img.Bounds()
    p, err := frame.NewPlaneStride(b.Dx(), b.Dy(), 4, b.Dx()*4)
    if err != nil { return nil, err }
    dst := &image.NRGBA{Pix: p.Pix, Stride: p.Stride, Rect: image.Rect(0, 0, b.Dx(), b.Dy())}
    draw.Draw(dst, dst.Rect, img, b.Min, draw.Src)
    return &frame.Frame{Width: p.Width, Height: p.Height, Format: frame.RGBA8, Planes: []*frame.Plane{p}}, nil
}

// Image views an RGBA8 frame, assumed to be in R, G, B, A byte order, as
// an image without copying.
func Image(f *frame.Frame) (*image.NRGBA, error) {
    if f == nil || f.Format != frame.RGBA8 {
        return nil, fmt.Errorf("%w: image needs an rgba8 frame", frame.ErrUnsupportedPixelFormat)
    }
    if err := f.Validate(); err != nil { return nil, err }
    p := f.Planes[0]
    return &image.NRGBA{Pix: p.Pix, Stride: p.Stride, Rect: image.Rect(0, 0, p.Width, p.Height)}, nil
}

// Gray views a 1-channel plane as a grayscale image without copying.
func Gray(p *frame.Plane) (*image.Gray, error) {
    if err := p.Validate(); err != nil { return nil, err }
    if p.Channels != 1 {
        return nil, fmt.Errorf("%w: gray image from %d channels", frame.ErrUnsupportedPixelFormat, p.Channels)
    }
    return &image.Gray{Pix: p.Pix, Stride: p.Stride, Rect: image.Rect(0, 0, p.Width, p.Height)}, nil
}

// Encode writes img to w in the named format: png, jpeg, gif or qoi.
func Encode(w io.Writer, img image.Image, format string) error {
    switch format {
    case "png":
        return png.Encode(w, img)
    case "jpeg":
        return jpeg.Encode(w, img, &jpeg.Options{Quality: JPEGQuality})
    case "gif":
        return gif.Encode(w, img, nil)
    case "qoi":
        return qoi.Encode(w, img)
    }
    return fmt.Errorf("%w: %q", ErrFormat, format)
}

// FormatFor maps a file extension to an Encode format name.
func FormatFor(path string) (string, error) {
    switch strings.ToLower(filepath.Ext(path)) {
    case ".png":
        return "png", nil
    case ".jpg", ".jpeg":
        return "jpeg", nil
    case ".gif":
        return "gif", nil
    case ".qoi":
        return "qoi", nil
    }
    return "", fmt.Errorf("%w: %s", ErrFormat, path)
}

// EncodeFile writes img to path through a temporary file in the same
// directory. The format follows the extension.
func EncodeFile(path string, img image.Image) error {
    format, err := FormatFor(path)
    if err != nil { return err }
    tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
    if err != nil { return fmt.Errorf("create temp for %s: %w", path, err) }
    tmpName := tmp.Name()
    if err := Encode(tmp, img, format); err != nil {
        _ = tmp.Close()
        _ = os.Remove(tmpName)
        return fmt.Errorf("encode %s: %w", path, err)
    }
    if err := tmp.Close(); err != nil {
        _ = os.Remove(tmpName)
        return fmt.Errorf("close %s: %w", path, err)
    }
    if err := os.Rename(tmpName, path); err != nil {
        _ = os.Remove(tmpName)
        return fmt.Errorf("rename to %s: %w", path, err)
    }
    return nil
}

// WriteFrame encodes an RGBA8 frame to path.
func WriteFrame(path string, f *frame.Frame) error {
    img, err := Image(f)
    if err != nil { return err }
    return EncodeFile(path, img)
}

// WritePlane encodes a 1-channel plane to path as grayscale.
func WritePlane(path string, p *frame.Plane) error {
    img, err := Gray(p)
    if err != nil { return err }
    return EncodeFile(path, img)
}
