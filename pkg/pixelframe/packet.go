// Package pixelframe builds the binary wire format sent to the output
// UDP socket: no header, just 4 bytes per LED (R, G, B, 0x00), per
// spec component C8.
package pixelframe

import "github.com/tapelight/tapelight-go/pkg/color"

// BytesPerPixel is the wire size of one LED: R, G, B, and a reserved
// zero byte.
const BytesPerPixel = 4

// Build encodes a composited frame into the flat R G B 0x00 byte stream
// the output socket transmits. The result is always 4*len(frame) bytes;
// there is no header.
func Build(frame []color.RGB) []byte {
	packet := make([]byte, len(frame)*BytesPerPixel)
	for i, px := range frame {
		off := i * BytesPerPixel
		packet[off] = px.R
		packet[off+1] = px.G
		packet[off+2] = px.B
		packet[off+3] = 0x00
	}
	return packet
}

// Size returns the wire size in bytes for a frame of the given LED count.
func Size(ledCount int) int {
	return ledCount * BytesPerPixel
}
