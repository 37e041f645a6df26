// Package loader reads program files for the processor.
//
// A program file holds one instruction per line, placed at consecutive
// word addresses from 0. Text after '#' or "//" is a comment and blank
// lines are skipped. Two directives preload state before the run:
//
//	.reg x2=10
//	.data 0x4=100
package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/rvpipe/timing/core"
)

// Load reads and parses a program file.
func Load(path string) (core.Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.Program{}, fmt.Errorf("failed to open program file: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return core.Program{}, fmt.Errorf("%s: %w", path, err)
	}

	return prog, nil
}

// Parse reads a program from r.
func Parse(r io.Reader) (core.Program, error) {
	prog := core.Program{
		Registers: map[string]int64{},
		Data:      map[uint32]int64{},
	}

	scanner := bufio.NewScanner(r)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := stripComment(scanner.Text())
		if line == "" {
			continue
		}

		if !strings.HasPrefix(line, ".") {
			prog.Lines = append(prog.Lines, line)
			continue
		}

		if err := parseDirective(&prog, line); err != nil {
			return core.Program{}, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return core.Program{}, err
	}

	return prog, nil
}

func stripComment(line string) string {
	if i := strings.Index(line, "#"); i >= 0 {
		line = line[:i]
	}
	if i := strings.Index(line, "//"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

func parseDirective(prog *core.Program, line string) error {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ".reg":
		return AddRegister(prog.Registers, arg)
	case ".data":
		return AddData(prog.Data, arg)
	default:
		return fmt.Errorf("unknown directive %q", name)
	}
}

// AddRegister parses "name=value" into regs. The name is checked when the
// program is loaded.
func AddRegister(regs map[string]int64, assignment string) error {
	key, value, err := splitAssignment(assignment)
	if err != nil {
		return err
	}

	regs[strings.ToLower(key)] = value
	return nil
}

// AddData parses "addr=value" into data. Both sides accept 0x and 0b
// prefixes.
func AddData(data map[uint32]int64, assignment string) error {
	key, value, err := splitAssignment(assignment)
	if err != nil {
		return err
	}

	addr, err := strconv.ParseUint(key, 0, 32)
	if err != nil {
		return fmt.Errorf("bad address %q", key)
	}

	data[uint32(addr)] = value
	return nil
}

func splitAssignment(s string) (string, int64, error) {
	key, raw, ok := strings.Cut(s, "=")
	key, raw = strings.TrimSpace(key), strings.TrimSpace(raw)
	if !ok || key == "" || raw == "" {
		return "", 0, fmt.Errorf("expected key=value, got %q", s)
	}

	value, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return "", 0, fmt.Errorf("bad value %q", raw)
	}

	return key, value, nil
}
