package frame

import (
    "fmt"
    "strings"
)

// Channel names one sample inside a pixel.
type Channel uint8

const (
    ChanY Channel = iota
    ChanCb
    ChanCr
    ChanR
    ChanG
    ChanB
    ChanA
)

var channelNames = [...]string{"y", "cb", "cr", "r", "g", "b", "a"}

func (c Channel) String() string {
    if int(c) < len(channelNames) { return channelNames[c] }
    return fmt.Sprintf("Channel(%d)", int(c))
}

// ChannelOrder lists channels in memory order.
type ChannelOrder []Channel

func (o ChannelOrder) String() string {
    var b strings.Builder
    for _, c := range o { b.WriteString(c.String()) }
    return b.String()
}

// Index returns the first position of c in o, or -1.
func (o ChannelOrder) Index(c Channel) int {
    for i, x := range o {
        if x == c { return i }
    }
    return -1
}

// Chunky 4:2:2 group orders and the default chunky 4:4:4 order.
var (
    // Order2vuy is Cb Y0 Cr Y1.
    Order2vuy = ChannelOrder{ChanCb, ChanY, ChanCr, ChanY}
    // OrderYuvs is Y0 Cb Y1 Cr.
    OrderYuvs = ChannelOrder{ChanY, ChanCb, ChanY, ChanCr}
    // OrderV308 is Cr Y Cb.
    OrderV308 = ChannelOrder{ChanCr, ChanY, ChanCb}
    // OrderPlanar is the Y, Cb, Cr plane order of a raw planar file.
    OrderPlanar = ChannelOrder{ChanY, ChanCb, ChanCr}
    OrderRGBA   = ChannelOrder{ChanR, ChanG, ChanB, ChanA}
)

// ParseChannelOrder parses a concatenation such as "crycb" or "cbycry".
func ParseChannelOrder(s string) (ChannelOrder, error) {
    s = strings.ToLower(strings.TrimSpace(s))
    var out ChannelOrder
    for len(s) > 0 {
        switch {
        case strings.HasPrefix(s, "cb"):
            out = append(out, ChanCb); s = s[2:]
        case strings.HasPrefix(s, "cr"):
            out = append(out, ChanCr); s = s[2:]
        case s[0] == 'y':
            out = append(out, ChanY); s = s[1:]
        default:
            return nil, fmt.Errorf("%w: channel order %q", ErrUnsupportedPixelFormat, s)
        }
    }
    if len(out) == 0 {
        return nil, fmt.Errorf("%w: empty channel order", ErrUnsupportedPixelFormat)
    }
    return out, nil
}

// Descriptor describes how the samples of a pixel format are laid out.
type Descriptor struct {
    Channels int          // samples per pixel group
    HSub     Subsampling  // horizontal chroma ratio; 1 for RGBA
    Order    ChannelOrder // memory order of one pixel group
    Depth    int          // bits per channel
}

// Descriptor returns the default descriptor of f.
func (f PixelFormat) Descriptor() (Descriptor, error) {
    switch f {
    case RGBA8:
        return Descriptor{Channels: 4, HSub: Sub444, Order: OrderRGBA, Depth: 8}, nil
    case YUV422Planar:
        return Descriptor{Channels: 3, HSub: Sub422, Order: OrderPlanar, Depth: 8}, nil
    case YUV444Planar:
        return Descriptor{Channels: 3, HSub: Sub444, Order: OrderPlanar, Depth: 8}, nil
    case YUV422Chunky:
        return Descriptor{Channels: 4, HSub: Sub422, Order: Order2vuy, Depth: 8}, nil
    case YUV444Chunky:
        return Descriptor{Channels: 3, HSub: Sub444, Order: OrderV308, Depth: 8}, nil
    }
    return Descriptor{}, fmt.Errorf("%w: %v", ErrUnsupportedPixelFormat, f)
}

// Validate checks that d is a layout the converters understand.
func (d Descriptor) Validate() error {
    if d.Depth != 8 {
        return fmt.Errorf("%w: %d bits per channel", ErrUnsupportedPixelFormat, d.Depth)
    }
    if len(d.Order) != d.Channels {
        return fmt.Errorf("%w: order %v for %d channels", ErrUnsupportedPixelFormat, d.Order, d.Channels)
    }
    switch d.HSub {
    case Sub422:
        // a 4:2:2 group holds two lumas and one of each chroma
        if d.Channels != 4 || countOf(d.Order, ChanY) != 2 || countOf(d.Order, ChanCb) != 1 || countOf(d.Order, ChanCr) != 1 {
            return fmt.Errorf("%w: 4:2:2 group order %v", ErrUnsupportedPixelFormat, d.Order)
        }
    case Sub444:
        if d.Channels == 3 {
            if countOf(d.Order, ChanY) != 1 || countOf(d.Order, ChanCb) != 1 || countOf(d.Order, ChanCr) != 1 {
                return fmt.Errorf("%w: 4:4:4 order %v", ErrUnsupportedPixelFormat, d.Order)
            }
        } else if d.Channels != 4 {
            return fmt.Errorf("%w: %d channels", ErrUnsupportedPixelFormat, d.Channels)
        }
    default:
        return fmt.Errorf("%w: subsampling %v", ErrUnsupportedPixelFormat, d.HSub)
    }
    return nil
}

func countOf(o ChannelOrder, c Channel) int {
    n := 0
    for _, x := range o {
        if x == c { n++ }
    }
    return n
}
