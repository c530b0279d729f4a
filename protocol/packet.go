package protocol

// Packet is a reusable scratch buffer holding one encapsulated packet:
//
//	start(0xD5) length opcode body... crc
//
// The start byte is written once; every other byte is rewritten per command.
type Packet struct {
	buf     [FrameMax]byte
	bodyLen int
}

// NewPacket creates a Packet with its start byte in place
func NewPacket() *Packet {
	p := &Packet{}
	p.buf[positionStart] = StartByte
	return p
}

// Reset starts a new packet for the given opcode
func (p *Packet) Reset(opcode byte) {
	p.buf[positionOpcode] = opcode
	p.bodyLen = 0
}

// Opcode returns the opcode of the current packet
func (p *Packet) Opcode() byte {
	return p.buf[positionOpcode]
}

// Body sizes the body to n bytes and returns it for filling
func (p *Packet) Body(n int) ([]byte, error) {
	if n < 0 || n > MaxPayload {
		return nil, &Error{Kind: ErrTableInconsistency, Msg: "body length exceeds packet size", Command: p.Opcode(), Length: n}
	}
	p.bodyLen = n
	return p.buf[positionBody : positionBody+n], nil
}

// Extend grows the body by n bytes and returns the new region
func (p *Packet) Extend(n int) ([]byte, error) {
	start := p.bodyLen
	if n < 0 || start+n > MaxPayload {
		return nil, &Error{Kind: ErrTableInconsistency, Msg: "body length exceeds packet size", Command: p.Opcode(), Length: start + n}
	}
	p.bodyLen += n
	return p.buf[positionBody+start : positionBody+p.bodyLen], nil
}

// Payload returns the opcode followed by the body
func (p *Packet) Payload() []byte {
	return p.buf[positionOpcode : positionBody+p.bodyLen]
}

// Seal writes the length byte and CRC and returns the complete frame
func (p *Packet) Seal() []byte {
	payload := p.Payload()
	p.buf[positionLength] = byte(len(payload))
	p.buf[positionBody+p.bodyLen] = CRC8(payload)
	return p.buf[:FrameHeader+len(payload)+FrameTrailer]
}
