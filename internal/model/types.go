package model

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// Event kinds the thread engine distinguishes.
const (
	KindTextNote = nostr.KindTextNote
	KindReaction = nostr.KindReaction
	KindComment  = 1111
)

var (
	ErrMalformedJSON = errors.New("malformed event json")
	ErrInvalidID     = errors.New("event id is not 64 lowercase hex chars")
)

// Event is a decoded nostr event as the engine sees it.
// Signature and id hash are assumed to be verified upstream.
type Event struct {
	nostr.Event
}

// wireEvent decodes tags one by one so a single bad tag does not sink the event.
type wireEvent struct {
	ID        string            `json:"id"`
	PubKey    string            `json:"pubkey"`
	CreatedAt nostr.Timestamp   `json:"created_at"`
	Kind      int               `json:"kind"`
	Tags      []json.RawMessage `json:"tags"`
	Content   string            `json:"content"`
	Sig       string            `json:"sig"`
}

// ParseEvent decodes raw event JSON. Tags that are not arrays of strings are dropped.
func ParseEvent(raw []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(raw, &w); err != nil {
		return Event{}, errors.Join(ErrMalformedJSON, err)
	}
	if !ValidID(w.ID) {
		return Event{}, ErrInvalidID
	}
	tags := make(nostr.Tags, 0, len(w.Tags))
	for _, rt := range w.Tags {
		var tag nostr.Tag
		if err := json.Unmarshal(rt, &tag); err != nil || len(tag) == 0 {
			continue
		}
		tags = append(tags, tag)
	}
	return Event{Event: nostr.Event{
		ID:        w.ID,
		PubKey:    w.PubKey,
		CreatedAt: w.CreatedAt,
		Kind:      w.Kind,
		Tags:      tags,
		Content:   w.Content,
		Sig:       w.Sig,
	}}, nil
}

// ValidID reports whether s is a 32-byte id in lowercase hex.
func ValidID(s string) bool { return nostr.IsValid32ByteHex(s) }

func (e Event) IsReaction() bool { return e.Kind == KindReaction }

// Time returns created_at as UTC time.
func (e Event) Time() time.Time { return time.Unix(int64(e.CreatedAt), 0).UTC() }
