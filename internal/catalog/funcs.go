package catalog

import (
	"net/mail"
	"net/netip"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// PredicateFunc is the signature of every registered predicate: a pure
// function of the candidate string.
type PredicateFunc func(string) bool

// funcRegistry is the registration table that `match: func` bodies and
// `validator:` references resolve against. There is no dynamic code
// loading — a name either exists here or the rule is excluded with a
// resolve issue.
var funcRegistry = struct {
	mu    sync.RWMutex
	funcs map[string]PredicateFunc
}{funcs: make(map[string]PredicateFunc)}

// RegisterFunc installs a predicate under a stable name. Intended for
// init-time registration; later registrations replace earlier ones.
func RegisterFunc(name string, fn PredicateFunc) {
	funcRegistry.mu.Lock()
	defer funcRegistry.mu.Unlock()
	funcRegistry.funcs[name] = fn
}

// LookupFunc resolves a registered predicate by name.
func LookupFunc(name string) (PredicateFunc, bool) {
	funcRegistry.mu.RLock()
	defer funcRegistry.mu.RUnlock()
	fn, ok := funcRegistry.funcs[name]
	return fn, ok
}

// FuncNames returns the sorted names of all registered predicates.
func FuncNames() []string {
	funcRegistry.mu.RLock()
	defer funcRegistry.mu.RUnlock()
	names := make([]string, 0, len(funcRegistry.funcs))
	for name := range funcRegistry.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	RegisterFunc("net.is_email", isEmail)
	RegisterFunc("net.is_url", isURL)
	RegisterFunc("net.is_ip", isIP)
	RegisterFunc("std.is_uuid", isUUID)
	RegisterFunc("num.is_luhn", isLuhn)
	RegisterFunc("geo.is_latitude", isLatitude)
	RegisterFunc("geo.is_longitude", isLongitude)
}

// isEmail accepts an addr-spec without display name.
func isEmail(s string) bool {
	if !strings.Contains(s, "@") {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// isURL accepts absolute http/https/ftp URLs with a host.
func isURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	switch u.Scheme {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// isIP accepts IPv4 and IPv6 addresses.
func isIP(s string) bool {
	_, err := netip.ParseAddr(s)
	return err == nil
}

// isUUID accepts the canonical hyphenated form only — uuid.Parse is
// lenient about braces and the urn: prefix, which are not tabular
// value spellings.
func isUUID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// isLuhn runs the Luhn checksum over a digit string of plausible
// payment-card length.
func isLuhn(s string) bool {
	if len(s) < 12 || len(s) > 19 {
		return false
	}
	sum := 0
	double := false
	for i := len(s) - 1; i >= 0; i-- {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

func isLatitude(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f >= -90 && f <= 90
}

func isLongitude(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && f >= -180 && f <= 180
}
