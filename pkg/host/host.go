// Package host defines the contract between the stylesheet adapter and the TypeScript
// language service that answers navigation queries.
//
// All offsets are byte offsets into the snapshot text of the named file.
package host

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"github.com/walteh/gocssmods/pkg/position"
	"gitlab.com/tozd/go/errors"
)

var ErrFileNotFound = errors.Base("file not found")

// Snapshot is the full text of a file at one version.
type Snapshot interface {
	Text() string
	// Version changes whenever Text changes.
	Version() string
}

// Host supplies the files a Service analyzes.
type Host interface {
	ScriptFileNames() []string
	ScriptSnapshot(fileName string) (Snapshot, bool)
}

// Location is a span inside a named file.
type Location struct {
	FileName string
	Span     position.RawPosition
}

func (me Location) String() string {
	return me.FileName + ":" + me.Span.String()
}

// Service answers navigation queries at an offset of a file.
type Service interface {
	Definition(ctx context.Context, fileName string, offset int) ([]Location, error)
	References(ctx context.Context, fileName string, offset int) ([]Location, error)
	RenameLocations(ctx context.Context, fileName string, offset int) ([]Location, error)
}

type StringSnapshot struct {
	text    string
	version string
}

// NewStringSnapshot returns a snapshot whose version is derived from text.
func NewStringSnapshot(text string) *StringSnapshot {
	sum := sha256.Sum256([]byte(text))
	return &StringSnapshot{text: text, version: hex.EncodeToString(sum[:8])}
}

func (me *StringSnapshot) Text() string {
	return me.text
}

func (me *StringSnapshot) Version() string {
	return me.version
}

// MapHost is a Host over an in memory set of files.
type MapHost struct {
	names []string
	files map[string]Snapshot
}

func NewMapHost(files map[string]string) *MapHost {
	h := &MapHost{files: map[string]Snapshot{}}
	for name, text := range files {
		h.Set(name, text)
	}
	return h
}

// Set adds or replaces a file.
func (me *MapHost) Set(fileName, text string) {
	if _, ok := me.files[fileName]; !ok {
		me.names = append(me.names, fileName)
		sort.Strings(me.names)
	}
	me.files[fileName] = NewStringSnapshot(text)
}

func (me *MapHost) ScriptFileNames() []string {
	out := make([]string, len(me.names))
	copy(out, me.names)
	return out
}

func (me *MapHost) ScriptSnapshot(fileName string) (Snapshot, bool) {
	snap, ok := me.files[fileName]
	return snap, ok
}
