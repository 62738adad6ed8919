// Package source tracks which files a translation run has read and the
// positions tokens came from. Filenames are interned process-wide so a
// token can reference its file by a small stable handle.
package source

import (
	"fmt"
	"sync"
)

// MaxFiles bounds the interned filename table. One translator run reads
// a handful of files; 256 leaves plenty of headroom.
const MaxFiles = 256

// FileID is a handle into the interned filename table. The zero value
// means "no file" (used by synthesized tokens).
type FileID int

// Pos is a position within an interned source file. Line and Col are
// 1-based.
type Pos struct {
	File FileID
	Line int
	Col  int
}

func (p Pos) IsValid() bool { return p.File != 0 }

func (p Pos) String() string {
	if !p.IsValid() {
		return "<no position>"
	}
	return fmt.Sprintf("%s:%d:%d", Filename(p.File), p.Line, p.Col)
}

var (
	mu    sync.Mutex
	table []string
)

// Intern records a filename and returns its handle. The same name
// interned twice yields the same handle.
func Intern(name string) (FileID, error) {
	mu.Lock()
	defer mu.Unlock()
	for i, s := range table {
		if s == name {
			return FileID(i + 1), nil
		}
	}
	if len(table) >= MaxFiles {
		return 0, fmt.Errorf("too many source files (limit %d)", MaxFiles)
	}
	table = append(table, name)
	return FileID(len(table)), nil
}

// Filename returns the name behind a handle, or "" for the zero handle.
func Filename(id FileID) string {
	mu.Lock()
	defer mu.Unlock()
	if id <= 0 || int(id) > len(table) {
		return ""
	}
	return table[id-1]
}
