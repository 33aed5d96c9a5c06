// Package config loads conversion jobs from YAML.
package config

import (
    "fmt"
    "os"
    "strings"

    "gopkg.in/yaml.v3"

    "yuvconv/internal/colorimetry"
    "yuvconv/internal/frame"
    "yuvconv/internal/layout"
    "yuvconv/internal/pipeline"
    "yuvconv/internal/planestore"
)

// Job describes one conversion.
type Job struct {
    Width       int                     `yaml:"width"`
    Height      int                     `yaml:"height"`
    Subsampling string                  `yaml:"subsampling"` // 422 or 444
    Range       string                  `yaml:"range"`       // video, video-clamped, full
    CustomRange *colorimetry.ColorRange `yaml:"custom_range,omitempty"` // overrides Range when set
    Order422    string                  `yaml:"order_422"`   // cbycry (2vuy) or ycbycr (yuvs)
    Order444    string                  `yaml:"order_444"`   // e.g. crycb (v308)
    PixelOrder  string                  `yaml:"pixel_order"` // rgba, bgra, argb, abgr
    Alpha       int                     `yaml:"alpha"`
    Compress    bool                    `yaml:"compress"`    // zstd planar output
}

// Default returns 800x600 video-range 4:2:2 in 2vuy order, RGBA, opaque.
func Default() Job {
    return Job{
        Width:       800,
        Height:      600,
        Subsampling: "422",
        Range:       "video",
        Order422:    "cbycry",
        Order444:    "crycb",
        PixelOrder:  "rgba",
        Alpha:       255,
    }
}

// Load reads a YAML job file. Keys absent from the file keep their
// Default values.
func Load(path string) (*Job, error) {
    data, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("failed to read config file: %w", err)
    }
    job := Default()
    if err := yaml.Unmarshal(data, &job); err != nil {
        return nil, fmt.Errorf("failed to parse config: %w", err)
    }
    if err := Validate(&job); err != nil {
        return nil, fmt.Errorf("invalid configuration: %w", err)
    }
    return &job, nil
}

// Validate checks every field by building the pipeline configuration.
func Validate(j *Job) error {
    if j.Alpha < 0 || j.Alpha > 255 {
        return fmt.Errorf("alpha %d outside 0-255", j.Alpha)
    }
    cfg, err := j.Pipeline()
    if err != nil { return err }
    return cfg.Validate()
}

// Pipeline converts the job to a pipeline configuration.
func (j *Job) Pipeline() (pipeline.Config, error) {
    cfg := pipeline.Config{Width: j.Width, Height: j.Height, Alpha: uint8(j.Alpha)}
    var err error
    if cfg.Subsampling, err = frame.ParseSubsampling(j.Subsampling); err != nil {
        return cfg, fmt.Errorf("subsampling: %w", err)
    }
    if j.CustomRange != nil {
        cfg.Range = *j.CustomRange
    } else if cfg.Range, err = colorimetry.ParseRange(j.Range); err != nil {
        return cfg, fmt.Errorf("range: %w", err)
    }
    if cfg.Order422, err = frame.ParseChannelOrder(j.Order422); err != nil {
        return cfg, fmt.Errorf("order_422: %w", err)
    }
    if cfg.Order444, err = frame.ParseChannelOrder(j.Order444); err != nil {
        return cfg, fmt.Errorf("order_444: %w", err)
    }
    if cfg.Pixel, err = layout.ParsePermutation(j.PixelOrder); err != nil {
        return cfg, fmt.Errorf("pixel_order: %w", err)
    }
    return cfg, nil
}

// OutputPath adds the zstd extension to path when the job asks for
// compressed output.
func (j *Job) OutputPath(path string) string {
    if j.Compress && !planestore.IsCompressed(path) {
        return path + planestore.CompressedExt
    }
    return path
}

// String is a one-line summary for logs.
func (j *Job) String() string {
    var b strings.Builder
    fmt.Fprintf(&b, "%dx%d %s %s range", j.Width, j.Height, j.Subsampling, j.Range)
    if j.CustomRange != nil { b.WriteString(" (custom)") }
    if j.Compress { b.WriteString(" zstd") }
    return b.String()
}
