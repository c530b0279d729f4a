package protocol

import (
	"errors"
	"testing"
)

func TestPacket(t *testing.T) {
	p := NewPacket()
	p.Reset(CmdUserBlock)

	body, err := p.Body(2)
	if err != nil {
		t.Fatalf("Body(2) failed: %v", err)
	}
	body[0], body[1] = 0xAA, 0xBB

	payload := p.Payload()
	if len(payload) != 3 || payload[0] != CmdUserBlock || payload[2] != 0xBB {
		t.Errorf("Payload mismatch: got %v", payload)
	}

	frame := p.Seal()
	if len(frame) != 6 {
		t.Fatalf("Expected 6 byte frame, got %d", len(frame))
	}
	if frame[0] != StartByte {
		t.Errorf("Expected start byte 0x%02X, got 0x%02X", StartByte, frame[0])
	}
	if frame[1] != 3 {
		t.Errorf("Expected length byte 3, got %d", frame[1])
	}
	if frame[5] != CRC8([]byte{CmdUserBlock, 0xAA, 0xBB}) {
		t.Errorf("CRC mismatch: got 0x%02X", frame[5])
	}
}

func TestPacketReuse(t *testing.T) {
	p := NewPacket()

	p.Reset(CmdQueuePointExtNew)
	if _, err := p.Body(25); err != nil {
		t.Fatalf("Body(25) failed: %v", err)
	}
	if n := len(p.Seal()); n != 29 {
		t.Errorf("Expected 29 byte frame, got %d", n)
	}

	// A shorter packet must not carry bytes from the previous one
	p.Reset(CmdStoreHome)
	body, _ := p.Body(1)
	body[0] = 0x07
	frame := p.Seal()
	if len(frame) != 5 {
		t.Fatalf("Expected 5 byte frame, got %d", len(frame))
	}
	want := []byte{StartByte, 2, CmdStoreHome, 0x07, CRC8([]byte{CmdStoreHome, 0x07})}
	for i := range want {
		if frame[i] != want[i] {
			t.Errorf("frame[%d] = 0x%02X, want 0x%02X", i, frame[i], want[i])
		}
	}
}

func TestPacketEmptyBody(t *testing.T) {
	p := NewPacket()
	p.Reset(0x90)
	if _, err := p.Body(0); err != nil {
		t.Fatalf("Body(0) failed: %v", err)
	}
	frame := p.Seal()
	if len(frame) != 4 || frame[1] != 1 || frame[3] != CRC8([]byte{0x90}) {
		t.Errorf("Unexpected empty-body frame: %v", frame)
	}
}

func TestPacketBounds(t *testing.T) {
	p := NewPacket()
	p.Reset(CmdToolAction)

	if _, err := p.Body(MaxPayload + 1); !errors.Is(err, ErrTableInconsistency) {
		t.Errorf("Expected ErrTableInconsistency for oversize body, got %v", err)
	}
	if _, err := p.Body(-1); !errors.Is(err, ErrTableInconsistency) {
		t.Errorf("Expected ErrTableInconsistency for negative body, got %v", err)
	}

	if _, err := p.Body(ToolActionHeaderLen); err != nil {
		t.Fatalf("Body(3) failed: %v", err)
	}
	if _, err := p.Extend(MaxPayload - ToolActionHeaderLen); err != nil {
		t.Errorf("Extend to exactly MaxPayload failed: %v", err)
	}
	if _, err := p.Extend(1); !errors.Is(err, ErrTableInconsistency) {
		t.Errorf("Expected ErrTableInconsistency past MaxPayload, got %v", err)
	}
	if n := len(p.Seal()); n != MaxPayload+4 {
		t.Errorf("Expected %d byte frame, got %d", MaxPayload+4, n)
	}
}
