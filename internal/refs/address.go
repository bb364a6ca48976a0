package refs

import (
	"errors"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

var ErrBadAddress = errors.New("malformed address coordinate")

// Address points at a replaceable event by kind, author and d-identifier.
type Address struct {
	Kind       int
	PubKey     string
	Identifier string
}

// ParseAddress parses "<kind>:<pubkey>:<identifier>". The identifier may contain colons
// and may be empty.
func ParseAddress(s string) (Address, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return Address{}, ErrBadAddress
	}
	kind, err := strconv.Atoi(parts[0])
	if err != nil || kind < 0 || kind > maxKind {
		return Address{}, ErrBadAddress
	}
	if !nostr.IsValid32ByteHex(parts[1]) {
		return Address{}, ErrBadAddress
	}
	return Address{Kind: kind, PubKey: parts[1], Identifier: parts[2]}, nil
}

func (a Address) String() string {
	return strconv.Itoa(a.Kind) + ":" + a.PubKey + ":" + a.Identifier
}
