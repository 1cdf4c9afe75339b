package stream

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeResize_WireFormat(t *testing.T) {
	got := EncodeResize(TerminalSize{Cols: 80, Rows: 24})
	want := []byte{0x01, 0x00, 0x50, 0x00, 0x18}

	if !bytes.Equal(got, want) {
		t.Errorf("EncodeResize(80x24) = %v, want %v", got, want)
	}
}

func TestResize_RoundTrip(t *testing.T) {
	tests := []TerminalSize{
		{Cols: 80, Rows: 24},
		{Cols: 1, Rows: 1},
		{Cols: 65535, Rows: 65535},
		{Cols: 0, Rows: 0},
		{Cols: 213, Rows: 57},
	}

	for _, size := range tests {
		got, err := DecodeResize(EncodeResize(size))
		if err != nil {
			t.Fatalf("DecodeResize(%vx%v) failed: %v", size.Cols, size.Rows, err)
		}
		if got != size {
			t.Errorf("round trip = %+v, want %+v", got, size)
		}
	}
}

func TestDecodeResize_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
	}{
		{"empty", nil},
		{"too short", []byte{0x01, 0x00, 0x50}},
		{"too long", []byte{0x01, 0x00, 0x50, 0x00, 0x18, 0x00}},
		{"wrong opcode", []byte{0x02, 0x00, 0x50, 0x00, 0x18}},
		{"keystroke frame", []byte("hello")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeResize(tt.frame); !errors.Is(err, ErrBadResizeFrame) {
				t.Errorf("DecodeResize(%v) error = %v, want ErrBadResizeFrame", tt.frame, err)
			}
		})
	}
}
