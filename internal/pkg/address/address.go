// Package address canonicalises claimant addresses so that completion records are unique per
// identity rather than per spelling.
package address

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/tonkeeper/tongo"
)

var ErrEmptyAddress = errors.New("address is empty")

var (
	reHex          = regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`)
	reTonRaw       = regexp.MustCompile(`^-?[0-9]+:[0-9a-fA-F]{64}$`)
	reTonFriendly  = regexp.MustCompile(`^[A-Za-z0-9_\-+/]{48}$`)
	reCanonicalHex = regexp.MustCompile(`^0x[0-9a-f]{1,64}$`)
)

// Normalize returns the canonical spelling of addr:
//
//	0x-prefixed hex     lower case, leading zeros stripped ("0x00AB" -> "0xab")
//	TON raw / friendly  lower-case raw form "wc:hex"
//	anything else       lower case
func Normalize(addr string) (string, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return "", ErrEmptyAddress
	}

	if reHex.MatchString(addr) {
		digits := strings.TrimLeft(strings.ToLower(addr[2:]), "0")
		if digits == "" {
			digits = "0"
		}
		return "0x" + digits, nil
	}

	if reTonRaw.MatchString(addr) || reTonFriendly.MatchString(addr) {
		if raw, ok := tonRaw(addr); ok {
			return raw, nil
		}
	}

	return strings.ToLower(addr), nil
}

// IsHex reports whether a canonical address is a field-element style hex address.
func IsHex(addr string) bool {
	return reCanonicalHex.MatchString(addr)
}

func tonRaw(addr string) (string, bool) {
	parsed, err := tongo.ParseAddress(addr)
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%d:%x", parsed.ID.Workchain, parsed.ID.Address[:]), true
}
