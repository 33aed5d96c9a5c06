package rtpraw

import (
    "encoding/binary"
    "fmt"

    "github.com/pion/rtp"

    "yuvconv/internal/frame"
)

// Reassembler rebuilds frames from packets produced by a Packetizer with
// the same dimensions and sampling. Packets of one frame may arrive in any
// order, the marker packet included; a packet with a new timestamp drops
// the unfinished frame and starts a new one.
type Reassembler struct {
    width, height int
    sub           frame.Subsampling
    pg, ppg       int
    cur           *frame.Plane
    ts            uint32
    started       bool
    marker        bool
    // filled marks every pixel group received for the current frame.
    filled  []bool
    pending int
}

// NewReassembler returns a Reassembler for w x h frames of sub. For 4:2:2,
// w is the even width carried on the wire.
func NewReassembler(w, h int, sub frame.Subsampling) (*Reassembler, error) {
    pg, ppg, err := pgroup(sub)
    if err != nil { return nil, err }
    if w <= 0 || h <= 0 || w%ppg != 0 {
        return nil, fmt.Errorf("%w: %dx%d for %v", frame.ErrInvalidDimensions, w, h, sub)
    }
    return &Reassembler{width: w, height: h, sub: sub, pg: pg, ppg: ppg}, nil
}

// Unmarshal parses one datagram.
func Unmarshal(b []byte) (*rtp.Packet, error) {
    pkt := &rtp.Packet{}
    if err := pkt.Unmarshal(b); err != nil {
        return nil, fmt.Errorf("%w: rtp packet: %v", frame.ErrTruncatedInput, err)
    }
    return pkt, nil
}

// Push adds one packet. Once the marker packet and every pixel group of
// the frame have arrived the finished frame is returned and the
// Reassembler starts over.
func (r *Reassembler) Push(pkt *rtp.Packet) (*frame.Plane, bool, error) {
    if !r.started || pkt.Timestamp != r.ts {
        ch := r.pg / r.ppg
        p, err := frame.NewPlaneStride(r.width, r.height, ch, r.width*ch)
        if err != nil { return nil, false, err }
        r.cur, r.ts, r.started, r.marker = p, pkt.Timestamp, true, false
        r.filled = make([]bool, r.height*r.width/r.ppg)
        r.pending = len(r.filled)
    }
    if err := r.copyPayload(pkt.Payload); err != nil { return nil, false, err }
    if pkt.Marker { r.marker = true }
    if !r.marker || r.pending > 0 { return nil, false, nil }
    out := r.cur
    r.cur, r.filled, r.started = nil, nil, false
    return out, true, nil
}

func (r *Reassembler) copyPayload(b []byte) error {
    if len(b) < extSeqLen+lineHeaderLen {
        return fmt.Errorf("%w: payload of %d bytes", frame.ErrTruncatedInput, len(b))
    }
    var segs []segment
    h := b[extSeqLen:]
    for {
        if len(h) < lineHeaderLen {
            return fmt.Errorf("%w: line header cut short", frame.ErrTruncatedInput)
        }
        n := int(binary.BigEndian.Uint16(h[0:]))
        line := int(binary.BigEndian.Uint16(h[2:]) & 0x7fff)
        off := binary.BigEndian.Uint16(h[4:])
        segs = append(segs, segment{line: line, offset: int(off & 0x7fff), n: n})
        h = h[lineHeaderLen:]
        if off&0x8000 == 0 { break }
    }
    rowBytes := r.cur.RowBytes()
    for _, s := range segs {
        start := s.offset / r.ppg * r.pg
        if s.line >= r.height || s.n%r.pg != 0 || start+s.n > rowBytes {
            return fmt.Errorf("%w: segment line %d offset %d length %d", frame.ErrInvalidDimensions, s.line, s.offset, s.n)
        }
        if len(h) < s.n {
            return fmt.Errorf("%w: segment data cut short", frame.ErrTruncatedInput)
        }
        copy(r.cur.Row(s.line)[start:start+s.n], h[:s.n])
        h = h[s.n:]
        groups := rowBytes / r.pg
        for g := start / r.pg; g < (start+s.n)/r.pg; g++ {
            if i := s.line*groups + g; !r.filled[i] {
                r.filled[i] = true
                r.pending--
            }
        }
    }
    return nil
}
