package frame

import "errors"

// Error kinds shared by every conversion stage. Stages wrap these with
// context via fmt.Errorf("...: %w", err); callers test with errors.Is.
var (
    ErrFileNotFound           = errors.New("file not found")
    ErrTruncatedInput         = errors.New("truncated input")
    ErrAllocationFailure      = errors.New("allocation failure")
    ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
    // ErrInternalClampViolation means a generated matrix failed its own
    // self-check. It is never expected in correct operation.
    ErrInternalClampViolation = errors.New("internal clamp violation")
    ErrInvalidDimensions      = errors.New("invalid dimensions")
    ErrInvalidColorRange      = errors.New("invalid color range")
)
