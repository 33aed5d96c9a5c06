package pipeline

import "sync/atomic"

// Process-wide conversion counters.
var (
    framesDecoded atomic.Uint64 // planar -> rgba conversions finished
    framesEncoded atomic.Uint64 // rgba -> planar conversions finished
    framesFailed  atomic.Uint64 // conversions aborted by a stage error
    bytesRead     atomic.Uint64 // planar dump bytes consumed
    bytesWritten  atomic.Uint64 // planar dump bytes produced
    packetsSent   atomic.Uint64 // RTP packets written
)

// ResetCounters resets all counters to zero.
func ResetCounters() {
    framesDecoded.Store(0)
    framesEncoded.Store(0)
    framesFailed.Store(0)
    bytesRead.Store(0)
    bytesWritten.Store(0)
    packetsSent.Store(0)
}

// GetCounters returns a snapshot of the counters.
func GetCounters() map[string]uint64 {
    return map[string]uint64{
        "frames_decoded": framesDecoded.Load(),
        "frames_encoded": framesEncoded.Load(),
        "frames_failed":  framesFailed.Load(),
        "bytes_read":     bytesRead.Load(),
        "bytes_written":  bytesWritten.Load(),
        "packets_sent":   packetsSent.Load(),
    }
}

func incFramesDecoded() { framesDecoded.Add(1) }
func incFramesEncoded() { framesEncoded.Add(1) }
func incFramesFailed()  { framesFailed.Add(1) }
func addBytesRead(n int64) {
    if n > 0 { bytesRead.Add(uint64(n)) }
}
func addBytesWritten(n int64) {
    if n > 0 { bytesWritten.Add(uint64(n)) }
}
func addPacketsSent(n int) {
    if n > 0 { packetsSent.Add(uint64(n)) }
}
