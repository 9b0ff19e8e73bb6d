package proto

import (
	"fmt"
	"sort"
	"strings"
)

// RequirementsDocument is the client's brief. Stages only read it.
type RequirementsDocument string

// MediaKind is a coarse classification of a file used as a planning hint.
type MediaKind string

const (
	KindVideo    MediaKind = "video"
	KindAudio    MediaKind = "audio"
	KindImage    MediaKind = "image"
	KindSubtitle MediaKind = "subtitle"
	KindDocument MediaKind = "document"
	KindOther    MediaKind = "other"
)

// FileDescriptor describes one file under the assets directory.
type FileDescriptor struct {
	Path            string    `json:"path"`
	SizeBytes       int64     `json:"size_bytes"`
	Kind            MediaKind `json:"kind_hint"`
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Codec           string    `json:"codec,omitempty"`
}

// FileInventory is an ordered listing of the assets directory, sorted by path.
type FileInventory []FileDescriptor

// Sort orders the inventory by path in place.
func (inv FileInventory) Sort() {
	sort.Slice(inv, func(i, j int) bool { return inv[i].Path < inv[j].Path })
}

// Lookup returns the descriptor with the given relative path.
func (inv FileInventory) Lookup(path string) (FileDescriptor, bool) {
	for i := range inv {
		if inv[i].Path == path {
			return inv[i], true
		}
	}
	return FileDescriptor{}, false
}

// Render formats the inventory as one line per file for prompts and summaries.
func (inv FileInventory) Render() string {
	if len(inv) == 0 {
		return "(no files)"
	}
	var b strings.Builder
	for i := range inv {
		f := &inv[i]
		fmt.Fprintf(&b, "- %s (%s, %d bytes", f.Path, f.Kind, f.SizeBytes)
		if f.DurationSeconds > 0 {
			fmt.Fprintf(&b, ", %.2fs", f.DurationSeconds)
		}
		if f.Codec != "" {
			fmt.Fprintf(&b, ", %s", f.Codec)
		}
		b.WriteString(")\n")
	}
	return b.String()
}
