package protocol

import (
	"fmt"
	"sync"
)

// RuleKind identifies how a command's body length is determined
type RuleKind uint8

const (
	RuleUnknown  RuleKind = iota // Command not implemented; cannot be reframed
	RuleFixed                    // Body is always Fixed bytes
	RuleEmbedded                 // Body length is carried in a tool action header
)

func (k RuleKind) String() string {
	switch k {
	case RuleFixed:
		return "fixed"
	case RuleEmbedded:
		return "embedded"
	default:
		return "unknown"
	}
}

// LengthRule describes how many body bytes follow an opcode
type LengthRule struct {
	Kind  RuleKind
	Fixed int // Body length for RuleFixed
}

// Fixed returns a rule for a command with a constant body length
func Fixed(n int) LengthRule {
	return LengthRule{Kind: RuleFixed, Fixed: n}
}

// Embedded returns the tool action rule: a 3-byte header whose last byte
// counts the bytes that follow it.
func Embedded() LengthRule {
	return LengthRule{Kind: RuleEmbedded}
}

func (r LengthRule) String() string {
	if r.Kind == RuleFixed {
		return fmt.Sprintf("fixed(%d)", r.Fixed)
	}
	return r.Kind.String()
}

// CommandInfo describes one S3G command
type CommandInfo struct {
	ID   byte
	Name string
	Rule LengthRule
}

// Known reports whether the command can be reframed
func (c CommandInfo) Known() bool {
	return c.Rule.Kind != RuleUnknown
}

func (c CommandInfo) String() string {
	if !c.Known() {
		return fmt.Sprintf("%d (unknown)", c.ID)
	}
	return fmt.Sprintf("%d %s", c.ID, c.Name)
}

// Host-to-bot command opcodes
const (
	CmdQueuePoint           = 129
	CmdSetPosition          = 130
	CmdFindMins             = 131
	CmdFindMaxs             = 132
	CmdDelay                = 133
	CmdChangeTool           = 134
	CmdWaitForToolReady     = 135
	CmdToolAction           = 136
	CmdEnableDisableAxes    = 137
	CmdUserBlock            = 138
	CmdQueuePointExt        = 139
	CmdSetPositionExt       = 140
	CmdWaitForPlatformReady = 141
	CmdQueuePointExtNew     = 142
	CmdStoreHome            = 143
	CmdRecallHome           = 144
)

// knownCommands lists every command this toolkit has seen in the wild.
// Anything missing is unknown.
var knownCommands = []CommandInfo{
	{CmdQueuePoint, "QUEUE_POINT", Fixed(16)},
	{CmdSetPosition, "SET_POSITION", Fixed(12)},
	{CmdFindMins, "FIND_MINS", Fixed(7)},
	{CmdFindMaxs, "FIND_MAXS", Fixed(7)},
	{CmdDelay, "DELAY", Fixed(4)},
	{CmdChangeTool, "CHANGE_TOOL", Fixed(1)},
	{CmdWaitForToolReady, "WAIT_FOR_TOOL_READY", Fixed(5)},
	{CmdToolAction, "TOOL_ACTION", Embedded()},
	{CmdEnableDisableAxes, "ENABLE_DISABLE_AXES", Fixed(1)},
	{CmdUserBlock, "USER_BLOCK", Fixed(2)},
	{CmdQueuePointExt, "QUEUE_POINT_EXT", Fixed(24)},
	{CmdSetPositionExt, "SET_POSITION_EXT", Fixed(20)},
	{CmdWaitForPlatformReady, "WAIT_FOR_PLATFORM_READY", Fixed(5)},
	{CmdQueuePointExtNew, "QUEUE_POINT_EXT_NEW", Fixed(25)},
	{CmdStoreHome, "STORE_HOME", Fixed(1)},
	{CmdRecallHome, "RECALL_HOME", Fixed(1)},
}

// CommandTable maps every possible opcode to its CommandInfo.
// A table is never modified once handed out; With returns a copy.
type CommandTable struct {
	commands [256]CommandInfo
}

var (
	defaultTable     *CommandTable
	defaultTableOnce sync.Once
)

// DefaultTable returns the built-in command table
func DefaultTable() *CommandTable {
	defaultTableOnce.Do(func() {
		t := newEmptyTable()
		for _, c := range knownCommands {
			t.commands[c.ID] = c
		}
		defaultTable = t
	})
	return defaultTable
}

func newEmptyTable() *CommandTable {
	t := &CommandTable{}
	for i := range t.commands {
		t.commands[i] = CommandInfo{ID: byte(i)}
	}
	return t
}

// Lookup returns the entry for an opcode
func (t *CommandTable) Lookup(id byte) CommandInfo {
	return t.commands[id]
}

// With returns a new table with the given entries replacing the existing ones.
// An entry with RuleUnknown removes the command.
func (t *CommandTable) With(entries ...CommandInfo) (*CommandTable, error) {
	next := &CommandTable{commands: t.commands}
	for _, c := range entries {
		if err := checkRule(c); err != nil {
			return nil, err
		}
		if !c.Known() {
			c = CommandInfo{ID: c.ID}
		}
		next.commands[c.ID] = c
	}
	return next, nil
}

// Known returns the known commands in opcode order
func (t *CommandTable) Known() []CommandInfo {
	var out []CommandInfo
	for _, c := range t.commands {
		if c.Known() {
			out = append(out, c)
		}
	}
	return out
}

// Validate checks every entry against the payload ceiling
func (t *CommandTable) Validate() error {
	for i, c := range t.commands {
		if c.ID != byte(i) {
			return &Error{Kind: ErrTableInconsistency, Msg: "table entry out of place", Command: byte(i)}
		}
		if err := checkRule(c); err != nil {
			return err
		}
	}
	return nil
}

func checkRule(c CommandInfo) error {
	switch c.Rule.Kind {
	case RuleUnknown, RuleEmbedded:
		return nil
	case RuleFixed:
		if c.Rule.Fixed < 0 {
			return &Error{Kind: ErrTableInconsistency, Msg: "table contains unexpected negative length", Command: c.ID}
		}
		if c.Rule.Fixed > MaxPayload {
			return &Error{Kind: ErrTableInconsistency, Msg: "table contains bogus length", Command: c.ID, Length: c.Rule.Fixed}
		}
		return nil
	default:
		return &Error{Kind: ErrTableInconsistency, Msg: fmt.Sprintf("table contains invalid length rule %d", c.Rule.Kind), Command: c.ID}
	}
}
