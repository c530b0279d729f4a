// s3g-reencap reconstructs S3G wire framing for an S3G command file.
//
// The S3G file format strips the framing that the wire protocol uses, so a
// file is just concatenated command payloads. This filter reads a file on
// stdin and writes encapsulated packets ("ES3G") on stdout:
//
//	0xD5, length, opcode, body..., crc8
//
// Usage:
//
//	s3g-reencap < print.s3g > print.es3g
//	s3g-reencap -in print.s3g -device /dev/ttyACM0
//	s3g-reencap -table extra-commands.toml -verbose < print.s3g > print.es3g
//	s3g-reencap -list-ports
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"s3gtoolkit/host/config"
	"s3gtoolkit/host/logging"
	"s3gtoolkit/host/serial"
	"s3gtoolkit/protocol"
)

const appName = "s3g-reencap"

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type options struct {
	in        string
	out       string
	device    string
	baud      int
	table     string
	verbose   bool
	listPorts bool
	dumpTable bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.in, "in", "", "S3G file to read (default stdin)")
	fs.StringVar(&opts.out, "out", "", "File to write packets to (default stdout)")
	fs.StringVar(&opts.device, "device", "", "Serial device to send packets to instead of a file")
	fs.IntVar(&opts.baud, "baud", serial.DefaultBaud, "Baud rate for -device")
	fs.StringVar(&opts.table, "table", "", "TOML file with extra or replacement command definitions")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose output")
	fs.BoolVar(&opts.listPorts, "list-ports", false, "List serial ports and exit")
	fs.BoolVar(&opts.dumpTable, "dump-table", false, "Print the known commands and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.out != "" && opts.device != "" {
		return options{}, fmt.Errorf("-out and -device are exclusive")
	}
	return opts, nil
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := logging.New(appName, logging.Options{Verbose: opts.verbose, Out: stderr})

	if opts.listPorts {
		return listPorts(logger, stdout)
	}

	table := protocol.DefaultTable()
	if opts.table != "" {
		table, err = config.ApplyCommandFile(table, opts.table)
		if err != nil {
			logger.Error().Err(err).Str("path", opts.table).Msg("failed to load command table")
			return 1
		}
		logger.Debug().Str("path", opts.table).Int("known", len(table.Known())).Msg("loaded command table")
	}

	if opts.dumpTable {
		for _, c := range table.Known() {
			fmt.Fprintf(stdout, "%3d  %-24s %s\n", c.ID, c.Name, c.Rule)
		}
		return 0
	}

	in, closeIn, err := openInput(opts, stdin)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open input")
		return 1
	}
	defer closeIn()

	out, closeOut, err := openOutput(opts, stdout)
	if err != nil {
		logger.Error().Err(err).Msg("failed to open output")
		return 1
	}

	r := protocol.NewReframer(in, out, table)
	if logger.GetLevel() <= zerolog.TraceLevel {
		r.OnPacket = func(cmd protocol.CommandInfo, frame []byte) {
			logger.Trace().Str("command", cmd.Name).Str("frame", logging.HexBytes(frame)).Msg("packet")
		}
	}

	runErr := r.Run()
	closeErr := closeOut()

	if runErr != nil {
		reportFailure(logger, runErr)
		return 1
	}
	if closeErr != nil {
		logger.Error().Err(closeErr).Msg("failed to close output")
		return 1
	}

	reportStats(logger, table, r.Stats())
	return 0
}

func openInput(opts options, stdin io.Reader) (io.Reader, func(), error) {
	if opts.in == "" {
		return bufio.NewReader(stdin), func() {}, nil
	}
	f, err := os.Open(opts.in)
	if err != nil {
		return nil, nil, err
	}
	return bufio.NewReader(f), func() { f.Close() }, nil
}

// openOutput returns the packet sink. Packets are written unbuffered so an
// aborted run never leaves part of a packet behind.
func openOutput(opts options, stdout io.Writer) (io.Writer, func() error, error) {
	switch {
	case opts.device != "":
		cfg := serial.DefaultConfig(opts.device)
		cfg.Baud = opts.baud
		port, err := serial.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		// Drop anything the bot sent before we started
		if err := port.Flush(); err != nil {
			port.Close()
			return nil, nil, fmt.Errorf("failed to flush %s: %w", opts.device, err)
		}
		return port, port.Close, nil
	case opts.out != "":
		f, err := os.Create(opts.out)
		if err != nil {
			return nil, nil, err
		}
		return f, f.Close, nil
	default:
		return stdout, func() error { return nil }, nil
	}
}

func reportFailure(logger zerolog.Logger, err error) {
	var perr *protocol.Error
	if !errors.As(err, &perr) {
		logger.Error().Err(err).Msg("reencapsulation failed")
		return
	}
	ev := logger.Error().
		Str("kind", perr.Kind.String()).
		Int64("bytes_read", perr.BytesRead).
		Uint8("command", perr.Command).
		Int("length", perr.Length)
	if perr.Err != nil {
		ev = ev.AnErr("cause", perr.Err)
	}
	ev.Msg(perr.Error())
}

func reportStats(logger zerolog.Logger, table *protocol.CommandTable, stats protocol.Stats) {
	if logger.GetLevel() > zerolog.DebugLevel {
		return
	}
	for _, c := range table.Known() {
		if n := stats.PerCommand[c.ID]; n > 0 {
			logger.Debug().Str("command", c.Name).Int("count", n).Msg("commands")
		}
	}
	logger.Debug().
		Int("packets", stats.Packets).
		Int64("bytes_read", stats.BytesRead).
		Int64("bytes_written", stats.BytesWritten).
		Msg("done")
}

func listPorts(logger zerolog.Logger, stdout io.Writer) int {
	ports, err := serial.ListPorts()
	if err != nil {
		logger.Error().Err(err).Msg("failed to list ports")
		return 1
	}
	for _, p := range ports {
		marker := " "
		if p.IsMakerBot() {
			marker = "*"
		}
		fmt.Fprintf(stdout, "%s %s\n", marker, p)
	}
	return 0
}
