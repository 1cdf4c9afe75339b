package stream

import "encoding/binary"

// Terminal control framing. A resize command is exactly five bytes: opcode
// 0x01 followed by cols and rows as big-endian uint16s. Keystroke frames
// carry raw UTF-8 bytes with no opcode on the same channel; the server tells
// the two apart by the leading byte and length convention, which makes this
// encoding a wire contract rather than an internal format.
const (
	opResize       = 0x01
	resizeFrameLen = 5
)

// TerminalSize is a terminal geometry in character cells.
type TerminalSize struct {
	Cols uint16
	Rows uint16
}

// EncodeResize builds the 5-byte resize frame for size.
func EncodeResize(size TerminalSize) []byte {
	frame := make([]byte, resizeFrameLen)
	frame[0] = opResize
	binary.BigEndian.PutUint16(frame[1:3], size.Cols)
	binary.BigEndian.PutUint16(frame[3:5], size.Rows)
	return frame
}

// DecodeResize parses a frame produced by EncodeResize.
func DecodeResize(frame []byte) (TerminalSize, error) {
	if len(frame) != resizeFrameLen || frame[0] != opResize {
		return TerminalSize{}, ErrBadResizeFrame
	}
	return TerminalSize{
		Cols: binary.BigEndian.Uint16(frame[1:3]),
		Rows: binary.BigEndian.Uint16(frame[3:5]),
	}, nil
}
