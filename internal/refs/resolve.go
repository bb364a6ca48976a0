package refs

import (
	"github.com/nbd-wtf/go-nostr"

	"threadloom/internal/model"
)

// ThreadInfo is where an event sits in a conversation. Empty ids mean "none".
// It is a value type; copies never share mutable state.
type ThreadInfo struct {
	RootID     string
	ReplyID    string
	RootRelay  string
	ReplyRelay string

	RootAddr      Address
	HasRootAddr   bool
	RootAddrRelay string
	RootKind      int

	// HasExplicitMarkers is false when RootID/ReplyID came from tag order alone.
	HasExplicitMarkers bool
}

// ParentID is the event this one answers: the reply if known, else the root.
func (ti ThreadInfo) ParentID() string {
	if ti.ReplyID != "" {
		return ti.ReplyID
	}
	return ti.RootID
}

// ResolveTags applies explicit markers first, then fills gaps positionally:
// the first reference is the root, and with two or more the last is the reply.
func ResolveTags(tags nostr.Tags) ThreadInfo {
	return fromScan(ScanTags(tags))
}

// Resolve derives ThreadInfo for an event.
func Resolve(ev model.Event) ThreadInfo {
	return ResolveTags(ev.Tags)
}

func fromScan(s Scan) ThreadInfo {
	ti := ThreadInfo{RootKind: s.RootKind}
	if s.HasRoot {
		ti.RootID, ti.RootRelay = s.Root.ID, s.Root.Relay
	}
	if s.HasReply {
		ti.ReplyID, ti.ReplyRelay = s.Reply.ID, s.Reply.Relay
	}
	ti.HasExplicitMarkers = s.HasRoot || s.HasReply

	if !s.HasRoot && s.Count >= 1 {
		ti.RootID, ti.RootRelay = s.First.ID, s.First.Relay
	}
	if !s.HasReply && s.Count >= 2 {
		ti.ReplyID, ti.ReplyRelay = s.Last.ID, s.Last.Relay
	}

	if s.HasAddr {
		ti.RootAddr, ti.HasRootAddr = s.Addr, true
		ti.RootAddrRelay = s.AddrRelay
	}
	return ti
}

// ReactionTarget returns the event a reaction points at: its last reference tag (NIP-25).
func ReactionTarget(tags nostr.Tags) (Ref, bool) {
	s := ScanTags(tags)
	return s.Last, s.Count > 0
}
