// Package dmx512 builds the byte stream a DMX512-A transmitter sends after
// its break/mark-after-break: a start code followed by up to 512 channel
// slots (spec §4.4, §6).
package dmx512

const (
	// ChannelCount is the number of data slots in a full DMX512 frame.
	ChannelCount = 512
	// StartCode is the null start code (NSC) used for standard dimmer data.
	StartCode = 0x00
	// FrameSize is the total byte count of a start-code-prefixed frame.
	FrameSize = 1 + ChannelCount
)

// BuildFrame prepends the start code to a 512-byte channel array, producing
// the exact byte sequence written to the serial port after break/MAB.
func BuildFrame(channels [512]uint8) []byte {
	frame := make([]byte, FrameSize)
	frame[0] = StartCode
	copy(frame[1:], channels[:])
	return frame
}
