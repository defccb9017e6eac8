// Package compiledb writes compile_commands.json, a JSON array of
// {directory, command, file} records, one per translation unit.
package compiledb

import (
	"fmt"
	"strings"

	"github.com/google/renameio"
)

// Record is one translation unit's compile-database entry. Command must
// already be fully assembled (same flags, same shim) as the invocation the
// orchestrator actually runs.
type Record struct {
	Directory string
	Command   string
	File      string
}

// Write serialises records as a JSON array to path, using manual character
// escaping rather than encoding/json's reflection-based writer (spec.md
// §4.6), and writes it atomically via renameio the way the rest of flappy
// writes state files.
func Write(path string, records []Record) error {
	var b strings.Builder
	b.WriteByte('[')
	for i, r := range records {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
		b.WriteString("  {\"directory\": ")
		writeJSONString(&b, r.Directory)
		b.WriteString(", \"command\": ")
		writeJSONString(&b, r.Command)
		b.WriteString(", \"file\": ")
		writeJSONString(&b, r.File)
		b.WriteByte('}')
	}
	if len(records) > 0 {
		b.WriteByte('\n')
	}
	b.WriteByte(']')
	b.WriteByte('\n')
	return renameio.WriteFile(path, []byte(b.String()), 0644)
}

// writeJSONString appends s to b as a double-quoted JSON string literal,
// escaping backslashes, quotes, and control characters by hand.
func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}
