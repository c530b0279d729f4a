package protocol

import (
	"errors"
	"io"
)

// PacketHook is called with each packet after it has been written
type PacketHook func(cmd CommandInfo, frame []byte)

// Stats summarizes a reframing run
type Stats struct {
	Packets      int
	BytesRead    int64
	BytesWritten int64
	PerCommand   map[byte]int
}

// Reframer reads an S3G command file and writes each command as an
// encapsulated packet. It pulls one command and pushes one packet at a time;
// nothing is buffered across commands.
type Reframer struct {
	in     io.Reader
	out    io.Writer
	table  *CommandTable
	packet *Packet

	// OnPacket, if set, observes every written packet
	OnPacket PacketHook

	// State of the command in progress, reported with errors
	bytesRead int64
	command   byte
	length    int

	bytesWritten int64
	packets      int
	perCommand   map[byte]int
}

// NewReframer creates a Reframer. A nil table selects DefaultTable.
func NewReframer(in io.Reader, out io.Writer, table *CommandTable) *Reframer {
	if table == nil {
		table = DefaultTable()
	}
	return &Reframer{
		in:         in,
		out:        out,
		table:      table,
		packet:     NewPacket(),
		perCommand: make(map[byte]int),
	}
}

// Run reframes commands until the input ends at a command boundary.
// Any other outcome is returned as an *Error.
func (r *Reframer) Run() error {
	for {
		if err := r.Next(); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Next reframes a single command. It returns io.EOF when the input ends
// cleanly before an opcode.
func (r *Reframer) Next() error {
	r.command = 0
	r.length = 0

	var op [1]byte
	n, err := io.ReadFull(r.in, op[:])
	r.bytesRead += int64(n)
	if err != nil {
		if err == io.EOF {
			return io.EOF
		}
		return r.fail(ErrIO, "reading", err)
	}

	r.command = op[0]
	cmd := r.table.Lookup(r.command)
	r.packet.Reset(r.command)

	switch cmd.Rule.Kind {
	case RuleFixed:
		if err := r.readFixed(cmd.Rule.Fixed); err != nil {
			return err
		}
	case RuleEmbedded:
		if err := r.readToolAction(); err != nil {
			return err
		}
	default:
		return r.fail(ErrUnknownCommand, "encountered unknown command", nil)
	}

	frame := r.packet.Seal()
	if err := r.write(frame); err != nil {
		return err
	}

	r.packets++
	r.perCommand[r.command]++
	if r.OnPacket != nil {
		r.OnPacket(cmd, frame)
	}
	return nil
}

func (r *Reframer) readFixed(length int) error {
	r.length = length
	body, err := r.packet.Body(length)
	if err != nil {
		if length < 0 {
			return r.fail(ErrTableInconsistency, "table contains unexpected negative length", nil)
		}
		return r.fail(ErrTableInconsistency, "table contains bogus length", nil)
	}
	return r.read(body, "truncated packet body")
}

// readToolAction reads the 3-byte tool action header, then as many bytes as
// its last byte declares. The header counts towards the payload.
func (r *Reframer) readToolAction() error {
	header, _ := r.packet.Body(ToolActionHeaderLen)
	if err := r.read(header, "truncated tool action command header"); err != nil {
		return err
	}

	count := int(header[ToolActionCountIndex])
	r.length = count
	body, err := r.packet.Extend(count)
	if err != nil {
		return r.fail(ErrTableInconsistency, "tool action length exceeds packet size", nil)
	}
	return r.read(body, "truncated tool action command body")
}

func (r *Reframer) read(buf []byte, truncated string) error {
	n, err := io.ReadFull(r.in, buf)
	r.bytesRead += int64(n)
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return r.fail(ErrTruncated, truncated, err)
	}
	return r.fail(ErrIO, "reading", err)
}

func (r *Reframer) write(frame []byte) error {
	n, err := r.out.Write(frame)
	r.bytesWritten += int64(n)
	switch {
	case errors.Is(err, io.ErrShortWrite):
		return r.fail(ErrShortWrite, "packet failed to write", err)
	case err != nil:
		return r.fail(ErrIO, "writing", err)
	case n != len(frame):
		return r.fail(ErrShortWrite, "packet failed to write", io.ErrShortWrite)
	}
	return nil
}

func (r *Reframer) fail(kind ErrorKind, msg string, err error) *Error {
	return &Error{
		Kind:      kind,
		Msg:       msg,
		Err:       err,
		BytesRead: r.bytesRead,
		Command:   r.command,
		Length:    r.length,
	}
}

// Stats returns counters for the commands reframed so far
func (r *Reframer) Stats() Stats {
	per := make(map[byte]int, len(r.perCommand))
	for id, n := range r.perCommand {
		per[id] = n
	}
	return Stats{
		Packets:      r.packets,
		BytesRead:    r.bytesRead,
		BytesWritten: r.bytesWritten,
		PerCommand:   per,
	}
}
