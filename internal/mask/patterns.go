package mask

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Pattern is a built-in class of variable values that can be masked.
//
// Inline patterns are searched anywhere in the body. Token patterns only
// replace a whitespace-separated token that matches as a whole, so they
// never eat digits out of identifiers or earlier placeholders.
type Pattern struct {
	Name        string
	Regex       *regexp.Regexp
	Type        string // Placeholder label: <IPV4>, <EMAIL>, ...
	Description string
	Token       bool
}

var (
	// 192.168.1.1
	ipv4Regex = regexp.MustCompile(`\b(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)

	// 2001:db8::1 and friends
	ipv6Regex = regexp.MustCompile(`(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}|(?:[0-9a-fA-F]{1,4}:){1,7}:|(?:[0-9a-fA-F]{1,4}:){1,6}:[0-9a-fA-F]{1,4}|(?:[0-9a-fA-F]{1,4}:){1,5}(?::[0-9a-fA-F]{1,4}){1,2}|(?:[0-9a-fA-F]{1,4}:){1,4}(?::[0-9a-fA-F]{1,4}){1,3}|(?:[0-9a-fA-F]{1,4}:){1,3}(?::[0-9a-fA-F]{1,4}){1,4}|(?:[0-9a-fA-F]{1,4}:){1,2}(?::[0-9a-fA-F]{1,4}){1,5}|[0-9a-fA-F]{1,4}:(?::[0-9a-fA-F]{1,4}){1,6}|:(?::[0-9a-fA-F]{1,4}){1,7}`)

	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

	uuidRegex = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	macAddressRegex = regexp.MustCompile(`\b(?:[0-9A-Fa-f]{2}[:-]){5}(?:[0-9A-Fa-f]{2})\b`)

	// 2024-01-02T03:04:05 embedded in a message body
	isoTimeRegex = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(?:\.\d+)?(?:Z|[+-]\d{2}:?\d{2})?`)

	apiKeyRegex = regexp.MustCompile(`(?i)(?:api[_-]?key|apikey|token|secret|password|passwd|pwd)["\s]*[:=]["\s]*[a-zA-Z0-9_\-]{8,}`)

	numberRegex = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)

	hexRegex = regexp.MustCompile(`^0[xX][0-9a-fA-F]+$`)
)

// builtIn lists every pattern in the order it is applied. More specific
// shapes come first so that, for instance, a UUID is not split into hex.
var builtIn = []Pattern{
	{Name: "uuid", Regex: uuidRegex, Type: "UUID", Description: "UUIDs"},
	{Name: "timestamp", Regex: isoTimeRegex, Type: "TIME", Description: "ISO 8601 timestamps inside messages"},
	{Name: "email", Regex: emailRegex, Type: "EMAIL", Description: "Email addresses"},
	{Name: "api_key", Regex: apiKeyRegex, Type: "SECRET", Description: "API keys and tokens"},
	{Name: "mac_address", Regex: macAddressRegex, Type: "MAC", Description: "MAC addresses"},
	{Name: "ipv4", Regex: ipv4Regex, Type: "IPV4", Description: "IPv4 addresses"},
	{Name: "ipv6", Regex: ipv6Regex, Type: "IPV6", Description: "IPv6 addresses"},
	{Name: "hex", Regex: hexRegex, Type: "HEX", Description: "0x-prefixed hex tokens", Token: true},
	{Name: "number", Regex: numberRegex, Type: "NUM", Description: "Integer and decimal tokens", Token: true},
}

// DefaultPatterns returns the set enabled by --mask without an explicit list.
func DefaultPatterns() []string {
	return []string{"uuid", "timestamp", "email", "ipv4", "ipv6", "hex", "number"}
}

// Names returns every built-in pattern name, sorted.
func Names() []string {
	names := make([]string, 0, len(builtIn))
	for _, p := range builtIn {
		names = append(names, p.Name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the built-in patterns named, in application order.
// Unknown names are an error.
func Lookup(names []string) ([]Pattern, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[strings.ToLower(strings.TrimSpace(n))] = true
	}

	var patterns []Pattern
	for _, p := range builtIn {
		if want[p.Name] {
			patterns = append(patterns, p)
			delete(want, p.Name)
		}
	}

	if len(want) > 0 {
		unknown := make([]string, 0, len(want))
		for n := range want {
			unknown = append(unknown, n)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown mask pattern(s) %s (available: %s)",
			strings.Join(unknown, ", "), strings.Join(Names(), ", "))
	}

	return patterns, nil
}
