// Package protocol implements the S3G wire framing used between host software
// and a bot, and the re-encapsulation of S3G command files into that framing.
package protocol

// Version represents the s3gtoolkit version
const Version = "0.1.0"

// Framing constants
const (
	StartByte = 0xD5 // First byte of every encapsulated packet

	MaxPayload = 32 // Maximum command body length, excluding the opcode

	FrameHeader  = 2 // Start byte + length byte
	FrameTrailer = 1 // CRC
	FrameMax     = FrameHeader + 1 + MaxPayload + FrameTrailer

	positionStart  = 0
	positionLength = 1
	positionOpcode = 2
	positionBody   = 3
)

// Tool action header layout. The last header byte counts the bytes that follow.
const (
	ToolActionHeaderLen  = 3
	ToolActionCountIndex = 2
)
