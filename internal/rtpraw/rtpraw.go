// Package rtpraw carries chunky 8-bit YCbCr frames as RFC 4175
// uncompressed video over RTP. Supported samplings are 4:2:2 (pixel group
// Cb Y0 Cr Y1, 4 bytes for 2 pixels) and 4:4:4 (pixel group Cb Y Cr, 3
// bytes for 1 pixel). Only progressive frames are produced.
package rtpraw

import (
    "encoding/binary"
    "fmt"
    "io"
    "time"

    "github.com/pion/rtp"

    "yuvconv/internal/frame"
)

const (
    // ClockRate is the RTP clock for video payloads.
    ClockRate = 90000
    // DefaultMTU leaves room for IP and UDP headers on a 1500 byte link.
    DefaultMTU = 1400
    // DefaultPayloadType is the first dynamic payload type.
    DefaultPayloadType = 96

    rtpHeaderLen  = 12
    extSeqLen     = 2
    lineHeaderLen = 6
    maxLine       = 1<<15 - 1
)

// Order422 and Order444 are the sample orders RFC 4175 puts in a pixel group.
var (
    Order422 = frame.Order2vuy
    Order444 = frame.ChannelOrder{frame.ChanCb, frame.ChanY, frame.ChanCr}
)

// pgroup returns the pixel group size in bytes and in pixels.
func pgroup(sub frame.Subsampling) (bytes, pixels int, err error) {
    switch sub {
    case frame.Sub422:
        return 4, 2, nil
    case frame.Sub444:
        return 3, 1, nil
    }
    return 0, 0, fmt.Errorf("%w: subsampling %v", frame.ErrUnsupportedPixelFormat, sub)
}

// Descriptor is the chunky layout a Packetizer expects for sub.
func Descriptor(sub frame.Subsampling) frame.Descriptor {
    if sub == frame.Sub422 {
        return frame.Descriptor{Channels: 4, HSub: frame.Sub422, Order: Order422, Depth: 8}
    }
    return frame.Descriptor{Channels: 3, HSub: frame.Sub444, Order: Order444, Depth: 8}
}

// TimestampAt converts a media time to 90 kHz RTP ticks.
func TimestampAt(d time.Duration) uint32 {
    return uint32(d * ClockRate / time.Second)
}

// Packetizer splits frames into RTP packets. The 32-bit extended sequence
// number continues across frames.
type Packetizer struct {
    MTU         int
    PayloadType uint8
    SSRC        uint32
    seq         uint32
}

// NewPacketizer returns a Packetizer; mtu <= 0 selects DefaultMTU.
func NewPacketizer(mtu int, payloadType uint8, ssrc uint32) *Packetizer {
    if mtu <= 0 { mtu = DefaultMTU }
    return &Packetizer{MTU: mtu, PayloadType: payloadType, SSRC: ssrc}
}

// segment is one line header plus its sample bytes.
type segment struct {
    line, offset int // offset in pixels
    start, n     int // byte range in the row
}

// Packetize emits one frame of chunky samples laid out as Descriptor(sub).
// The last packet of the frame carries the marker bit.
func (p *Packetizer) Packetize(src *frame.Plane, sub frame.Subsampling, ts uint32) ([]*rtp.Packet, error) {
    pg, ppg, err := pgroup(sub)
    if err != nil { return nil, err }
    if err := src.Validate(); err != nil { return nil, err }
    rowBytes := src.RowBytes()
    if rowBytes%pg != 0 {
        return nil, fmt.Errorf("%w: row of %d bytes is not a multiple of the %d byte pixel group", frame.ErrUnsupportedPixelFormat, rowBytes, pg)
    }
    if src.Width > maxLine || src.Height > maxLine {
        return nil, fmt.Errorf("%w: %dx%d exceeds 15-bit line fields", frame.ErrInvalidDimensions, src.Width, src.Height)
    }
    payloadMax := p.MTU - rtpHeaderLen
    if payloadMax < extSeqLen+lineHeaderLen+pg {
        return nil, fmt.Errorf("%w: mtu %d cannot hold a pixel group", frame.ErrInvalidDimensions, p.MTU)
    }

    var pkts []*rtp.Packet
    y, x := 0, 0
    for y < src.Height {
        room := payloadMax - extSeqLen
        var segs []segment
        for y < src.Height && room >= lineHeaderLen+pg {
            n := min(rowBytes-x, (room-lineHeaderLen)/pg*pg)
            segs = append(segs, segment{line: y, offset: x / pg * ppg, start: x, n: n})
            room -= lineHeaderLen + n
            x += n
            if x == rowBytes { x, y = 0, y+1 }
        }
        pkts = append(pkts, p.build(src, segs, ts, y == src.Height))
    }
    return pkts, nil
}

func (p *Packetizer) build(src *frame.Plane, segs []segment, ts uint32, last bool) *rtp.Packet {
    size := extSeqLen
    for _, s := range segs { size += lineHeaderLen + s.n }
    payload := make([]byte, size)
    binary.BigEndian.PutUint16(payload, uint16(p.seq>>16))
    h := payload[extSeqLen:]
    d := payload[extSeqLen+lineHeaderLen*len(segs):]
    for i, s := range segs {
        binary.BigEndian.PutUint16(h[0:], uint16(s.n))
        binary.BigEndian.PutUint16(h[2:], uint16(s.line)&0x7fff)
        off := uint16(s.offset) & 0x7fff
        if i < len(segs)-1 { off |= 0x8000 }
        binary.BigEndian.PutUint16(h[4:], off)
        h = h[lineHeaderLen:]
        d = d[copy(d, src.Row(s.line)[s.start:s.start+s.n]):]
    }
    pkt := &rtp.Packet{
        Header: rtp.Header{
            Version:        2,
            Marker:         last,
            PayloadType:    p.PayloadType,
            SequenceNumber: uint16(p.seq),
            Timestamp:      ts,
            SSRC:           p.SSRC,
        },
        Payload: payload,
    }
    p.seq++
    return pkt
}

// WritePackets marshals pkts and writes each one with a single Write call,
// so a UDP connection sends one datagram per packet.
func WritePackets(w io.Writer, pkts []*rtp.Packet) (int, error) {
    for i, pkt := range pkts {
        b, err := pkt.Marshal()
        if err != nil { return i, fmt.Errorf("marshal packet %d: %w", i, err) }
        if _, err := w.Write(b); err != nil { return i, fmt.Errorf("write packet %d: %w", i, err) }
    }
    return len(pkts), nil
}
