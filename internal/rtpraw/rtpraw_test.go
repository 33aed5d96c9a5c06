package rtpraw

import (
    "bytes"
    "encoding/binary"
    "math/rand"
    "testing"
    "time"

    "github.com/pion/rtp"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "yuvconv/internal/frame"
)

func randomChunky(t *testing.T, w, h, ch int, seed int64) *frame.Plane {
    t.Helper()
    p, err := frame.NewPlaneStride(w, h, ch, w*ch+5)
    require.NoError(t, err)
    rand.New(rand.NewSource(seed)).Read(p.Pix)
    return p
}

// roundTrip marshals pkts, parses them back and feeds them to a
// Reassembler in shuffled order.
func roundTrip(t *testing.T, pkts []*rtp.Packet, w, h int, sub frame.Subsampling) *frame.Plane {
    t.Helper()
    var buf [][]byte
    for _, p := range pkts {
        b, err := p.Marshal()
        require.NoError(t, err)
        buf = append(buf, b)
    }
    rand.New(rand.NewSource(9)).Shuffle(len(buf), func(i, j int) { buf[i], buf[j] = buf[j], buf[i] })

    r, err := NewReassembler(w, h, sub)
    require.NoError(t, err)
    for i, b := range buf {
        pkt, err := Unmarshal(b)
        require.NoError(t, err)
        out, done, err := r.Push(pkt)
        require.NoError(t, err)
        if i < len(buf)-1 {
            assert.False(t, done)
            continue
        }
        require.True(t, done)
        return out
    }
    return nil
}

func TestPacketizeRoundTrip422(t *testing.T) {
    src := randomChunky(t, 8, 4, 2, 1)
    p := NewPacketizer(rtpHeaderLen+extSeqLen+lineHeaderLen+8, DefaultPayloadType, 42)
    pkts, err := p.Packetize(src, frame.Sub422, 3000)
    require.NoError(t, err)
    assert.Len(t, pkts, 8)
    for i, pkt := range pkts {
        assert.Equal(t, uint16(i), pkt.SequenceNumber)
        assert.Equal(t, uint32(3000), pkt.Timestamp)
        assert.Equal(t, uint32(42), pkt.SSRC)
        assert.Equal(t, i == len(pkts)-1, pkt.Marker)
    }
    assert.True(t, src.Equal(roundTrip(t, pkts, 8, 4, frame.Sub422)))
}

func TestPacketizeRoundTrip444(t *testing.T) {
    src := randomChunky(t, 7, 5, 3, 2)
    p := NewPacketizer(64, DefaultPayloadType, 1)
    pkts, err := p.Packetize(src, frame.Sub444, 0)
    require.NoError(t, err)
    assert.Greater(t, len(pkts), 1)
    assert.True(t, src.Equal(roundTrip(t, pkts, 7, 5, frame.Sub444)))
}

func TestPacketizeSeveralLinesPerPacket(t *testing.T) {
    src := randomChunky(t, 8, 4, 2, 3)
    pkts, err := NewPacketizer(0, DefaultPayloadType, 1).Packetize(src, frame.Sub422, 0)
    require.NoError(t, err)
    require.Len(t, pkts, 1)
    pl := pkts[0].Payload
    require.Len(t, pl, extSeqLen+4*(lineHeaderLen+16))
    for i := 0; i < 4; i++ {
        h := pl[extSeqLen+i*lineHeaderLen:]
        assert.Equal(t, uint16(16), binary.BigEndian.Uint16(h[0:]))
        assert.Equal(t, uint16(i), binary.BigEndian.Uint16(h[2:]))
        cont := binary.BigEndian.Uint16(h[4:])&0x8000 != 0
        assert.Equal(t, i < 3, cont)
    }
    data := pl[extSeqLen+4*lineHeaderLen:]
    assert.Equal(t, src.Row(0), data[:16])
    assert.Equal(t, src.Row(3), data[48:])
}

func TestPacketizeSplitLineOffsets(t *testing.T) {
    src := randomChunky(t, 8, 1, 2, 4)
    p := NewPacketizer(rtpHeaderLen+extSeqLen+lineHeaderLen+8, DefaultPayloadType, 1)
    pkts, err := p.Packetize(src, frame.Sub422, 0)
    require.NoError(t, err)
    require.Len(t, pkts, 2)
    assert.Equal(t, uint16(0), binary.BigEndian.Uint16(pkts[0].Payload[6:]))
    assert.Equal(t, uint16(4), binary.BigEndian.Uint16(pkts[1].Payload[6:]))
}

func TestExtendedSequenceNumber(t *testing.T) {
    src := randomChunky(t, 2, 2, 2, 5)
    p := NewPacketizer(rtpHeaderLen+extSeqLen+lineHeaderLen+4, DefaultPayloadType, 1)
    p.seq = 0xffff
    pkts, err := p.Packetize(src, frame.Sub422, 0)
    require.NoError(t, err)
    require.Len(t, pkts, 2)
    assert.Equal(t, uint16(0xffff), pkts[0].SequenceNumber)
    assert.Equal(t, uint16(0), binary.BigEndian.Uint16(pkts[0].Payload))
    assert.Equal(t, uint16(0), pkts[1].SequenceNumber)
    assert.Equal(t, uint16(1), binary.BigEndian.Uint16(pkts[1].Payload))
}

func TestPacketizeRejects(t *testing.T) {
    odd := randomChunky(t, 3, 1, 2, 6)
    _, err := NewPacketizer(0, 96, 1).Packetize(odd, frame.Sub422, 0)
    assert.ErrorIs(t, err, frame.ErrUnsupportedPixelFormat)

    ok := randomChunky(t, 2, 1, 2, 7)
    _, err = NewPacketizer(20, 96, 1).Packetize(ok, frame.Sub422, 0)
    assert.ErrorIs(t, err, frame.ErrInvalidDimensions)

    _, err = NewPacketizer(0, 96, 1).Packetize(ok, frame.Subsampling(4), 0)
    assert.ErrorIs(t, err, frame.ErrUnsupportedPixelFormat)
}

func TestReassemblerRejectsBadPayload(t *testing.T) {
    r, err := NewReassembler(4, 2, frame.Sub422)
    require.NoError(t, err)
    _, _, err = r.Push(&rtp.Packet{Payload: []byte{0, 0, 0}})
    assert.ErrorIs(t, err, frame.ErrTruncatedInput)

    pl := []byte{0, 0, 0, 8, 0, 5, 0, 0}
    _, _, err = r.Push(&rtp.Packet{Payload: pl})
    assert.ErrorIs(t, err, frame.ErrInvalidDimensions)

    pl = []byte{0, 0, 0, 8, 0, 0, 0, 0, 1, 2}
    _, _, err = r.Push(&rtp.Packet{Payload: pl})
    assert.ErrorIs(t, err, frame.ErrTruncatedInput)

    _, err = NewReassembler(3, 2, frame.Sub422)
    assert.ErrorIs(t, err, frame.ErrInvalidDimensions)
}

func TestReassemblerWaitsForEveryPacket(t *testing.T) {
    src := randomChunky(t, 8, 4, 2, 11)
    p := NewPacketizer(rtpHeaderLen+extSeqLen+lineHeaderLen+8, DefaultPayloadType, 1)
    pkts, err := p.Packetize(src, frame.Sub422, 90)
    require.NoError(t, err)
    require.Len(t, pkts, 8)

    // Marker first.
    r, err := NewReassembler(8, 4, frame.Sub422)
    require.NoError(t, err)
    order := append([]*rtp.Packet{pkts[7]}, pkts[:7]...)
    for i, pkt := range order {
        out, done, err := r.Push(pkt)
        require.NoError(t, err)
        if i < len(order)-1 {
            assert.False(t, done, "packet %d", i)
            assert.Nil(t, out)
            continue
        }
        require.True(t, done)
        assert.True(t, src.Equal(out))
    }

    // A lost packet never completes the frame, even with a duplicate.
    r, err = NewReassembler(8, 4, frame.Sub422)
    require.NoError(t, err)
    lossy := []*rtp.Packet{pkts[0], pkts[1], pkts[2], pkts[4], pkts[5], pkts[5], pkts[6], pkts[7]}
    for _, pkt := range lossy {
        _, done, err := r.Push(pkt)
        require.NoError(t, err)
        assert.False(t, done)
    }

    // The next frame's timestamp drops the unfinished one.
    next, err := p.Packetize(src, frame.Sub422, 180)
    require.NoError(t, err)
    var out *frame.Plane
    for _, pkt := range next {
        var done bool
        out, done, err = r.Push(pkt)
        require.NoError(t, err)
        if done { break }
    }
    require.NotNil(t, out)
    assert.True(t, src.Equal(out))
}

func TestWritePacketsOneWritePerPacket(t *testing.T) {
    src := randomChunky(t, 8, 2, 2, 8)
    pkts, err := NewPacketizer(40, 96, 1).Packetize(src, frame.Sub422, 0)
    require.NoError(t, err)
    w := &recorder{}
    n, err := WritePackets(w, pkts)
    require.NoError(t, err)
    assert.Equal(t, len(pkts), n)
    require.Len(t, w.writes, len(pkts))
    first, err := Unmarshal(w.writes[0])
    require.NoError(t, err)
    assert.Equal(t, pkts[0].Payload, first.Payload)
}

func TestTimestampAt(t *testing.T) {
    assert.Equal(t, uint32(90000), TimestampAt(time.Second))
    assert.Equal(t, uint32(3000), TimestampAt(time.Second/30))
}

type recorder struct{ writes [][]byte }

func (r *recorder) Write(b []byte) (int, error) {
    r.writes = append(r.writes, bytes.Clone(b))
    return len(b), nil
}
