// Package config loads command table overlays for commands the built-in
// table does not know yet.
//
// An overlay is a TOML file with one [[command]] table per entry:
//
//	[[command]]
//	id = 145
//	name = "SET_BUILD_PERCENT"
//	length = 2
//
//	[[command]]
//	id = 136
//	name = "TOOL_ACTION"
//	embedded = true
//
//	[[command]]
//	id = 140
//	unknown = true
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"s3gtoolkit/protocol"
)

type commandFile struct {
	Commands []commandEntry `toml:"command"`
}

type commandEntry struct {
	ID       *int   `toml:"id"`
	Name     string `toml:"name"`
	Length   *int   `toml:"length"`
	Embedded bool   `toml:"embedded"`
	Unknown  bool   `toml:"unknown"`
}

// LoadCommandFile reads an overlay file and returns its entries
func LoadCommandFile(path string) ([]protocol.CommandInfo, error) {
	var raw commandFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("load command file %s: %w", path, err)
	}
	cmds, err := convert(raw, meta)
	if err != nil {
		return nil, fmt.Errorf("command file %s: %w", path, err)
	}
	return cmds, nil
}

// ParseCommands parses overlay entries from TOML text
func ParseCommands(data string) ([]protocol.CommandInfo, error) {
	var raw commandFile
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse commands: %w", err)
	}
	return convert(raw, meta)
}

// ApplyCommandFile returns base with the overlay at path applied.
// base is left untouched.
func ApplyCommandFile(base *protocol.CommandTable, path string) (*protocol.CommandTable, error) {
	cmds, err := LoadCommandFile(path)
	if err != nil {
		return nil, err
	}
	table, err := base.With(cmds...)
	if err != nil {
		return nil, fmt.Errorf("command file %s: %w", path, err)
	}
	return table, nil
}

func convert(raw commandFile, meta toml.MetaData) ([]protocol.CommandInfo, error) {
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}

	seen := make(map[int]bool, len(raw.Commands))
	cmds := make([]protocol.CommandInfo, 0, len(raw.Commands))
	for i, e := range raw.Commands {
		c, err := e.toCommand()
		if err != nil {
			return nil, fmt.Errorf("command #%d: %w", i+1, err)
		}
		if seen[int(c.ID)] {
			return nil, fmt.Errorf("command #%d: duplicate id %d", i+1, c.ID)
		}
		seen[int(c.ID)] = true
		cmds = append(cmds, c)
	}
	return cmds, nil
}

func (e commandEntry) toCommand() (protocol.CommandInfo, error) {
	if e.ID == nil {
		return protocol.CommandInfo{}, fmt.Errorf("missing id")
	}
	id := *e.ID
	if id < 0 || id > 255 {
		return protocol.CommandInfo{}, fmt.Errorf("id %d out of range 0-255", id)
	}

	c := protocol.CommandInfo{ID: byte(id), Name: strings.TrimSpace(e.Name)}
	if e.Unknown {
		if e.Length != nil || e.Embedded {
			return protocol.CommandInfo{}, fmt.Errorf("id %d: unknown command cannot have a length", id)
		}
		return protocol.CommandInfo{ID: byte(id)}, nil
	}

	if c.Name == "" {
		return protocol.CommandInfo{}, fmt.Errorf("id %d: missing name", id)
	}
	switch {
	case e.Length != nil && e.Embedded:
		return protocol.CommandInfo{}, fmt.Errorf("id %d: length and embedded are exclusive", id)
	case e.Embedded:
		c.Rule = protocol.Embedded()
	case e.Length != nil:
		c.Rule = protocol.Fixed(*e.Length)
	default:
		return protocol.CommandInfo{}, fmt.Errorf("id %d: one of length, embedded or unknown is required", id)
	}
	return c, nil
}
