// Package refs extracts thread references (NIP-10 / NIP-22) from event tags.
package refs

import (
	"strconv"

	"github.com/nbd-wtf/go-nostr"

	"threadloom/internal/model"
)

const (
	markerRoot    = "root"
	markerReply   = "reply"
	markerMention = "mention"

	// NoKind is the RootKind sentinel when no usable "k" tag was seen.
	NoKind  = -1
	maxKind = 65535
)

// Ref is a reference to another event by id, with an optional relay hint.
type Ref struct {
	ID    string
	Relay string
}

// Scan is the raw output of a pass over a tag list.
type Scan struct {
	Count    int // accepted reference tags, mentions excluded
	Mentions int
	First    Ref
	Last     Ref

	Root      Ref // last "root"-marked reference
	Reply     Ref // last "reply"-marked reference
	HasRoot   bool
	HasReply  bool
	Addr      Address
	HasAddr   bool
	AddrRelay string
	RootKind  int
}

// ScanTags walks tags once. Malformed tags are skipped, never fatal.
func ScanTags(tags nostr.Tags) Scan {
	s := Scan{RootKind: NoKind}
	for _, tag := range tags {
		if len(tag) < 2 {
			continue
		}
		switch tag[0] {
		case "e", "E":
			s.scanReference(tag)
		case "a", "A":
			addr, err := ParseAddress(tag[1])
			if err != nil {
				continue
			}
			s.Addr, s.HasAddr = addr, true
			s.AddrRelay = field(tag, 2)
		case "k":
			k, err := strconv.Atoi(tag[1])
			if err != nil || k < 0 || k > maxKind {
				continue
			}
			s.RootKind = k
		}
	}
	return s
}

func (s *Scan) scanReference(tag nostr.Tag) {
	id := tag[1]
	if !model.ValidID(id) {
		return
	}
	ref := Ref{ID: id, Relay: field(tag, 2)}

	marker := field(tag, 3)
	if marker == markerMention {
		// mentions never take a thread role, positional or marked
		s.Mentions++
		return
	}
	s.Count++
	if s.Count == 1 {
		s.First = ref
	}
	s.Last = ref

	switch marker {
	case markerRoot:
		s.Root, s.HasRoot = ref, true
	case markerReply:
		s.Reply, s.HasReply = ref, true
	}
}

func field(tag nostr.Tag, i int) string {
	if i < len(tag) {
		return tag[i]
	}
	return ""
}
