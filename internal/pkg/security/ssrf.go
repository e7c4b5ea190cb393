// Package security guards outbound proxy requests against SSRF: hostname
// allowlisting, private-IP filtering, and sensitive-data redaction for logs.
package security

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
)

// BlockReason distinguishes why a URL was rejected.
type BlockReason string

const (
	ReasonNotAllowlisted BlockReason = "URL_BLOCKED"
	ReasonPrivateIP      BlockReason = "PRIVATE_IP_BLOCKED"
)

// BlockedError reports a URL rejected by policy.
type BlockedError struct {
	Reason  BlockReason
	Message string
}

func (e *BlockedError) Error() string { return e.Message }

var cgnatNetwork = mustParseCIDR("100.64.0.0/10")

func mustParseCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(err)
	}
	return network
}

// IsPrivateIP reports whether an address must never be proxied to:
// RFC 1918 ranges, loopback, link-local (cloud metadata), CGNAT,
// multicast, unspecified, and their IPv6 equivalents. Unparseable input
// counts as private.
func IsPrivateIP(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return true
	}

	if ip.IsPrivate() || ip.IsLoopback() || ip.IsUnspecified() {
		return true
	}
	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsMulticast() {
		return true
	}
	if v4 := ip.To4(); v4 != nil && cgnatNetwork.Contains(v4) {
		return true
	}
	return false
}

var localhostDomain = regexp.MustCompile(`^localhost\.\w+$`)

// IsLocalhost matches localhost and its common spellings.
func IsLocalhost(hostname string) bool {
	h := strings.ToLower(hostname)
	switch h {
	case "localhost", "localhost.localdomain", "127.0.0.1", "::1", "[::1]":
		return true
	}
	if strings.HasPrefix(h, "127.") {
		return true
	}
	return localhostDomain.MatchString(h)
}

// HostnameAllowed checks a hostname against the allowlist. Patterns may be
// exact ("api.openai.com") or wildcard ("*.openai.com", which also matches
// the bare domain).
func HostnameAllowed(hostname string, allowlist []string) bool {
	h := strings.ToLower(hostname)

	for _, pattern := range allowlist {
		p := strings.ToLower(pattern)

		if strings.HasPrefix(p, "*.") {
			if strings.HasSuffix(h, p[1:]) || h == p[2:] {
				return true
			}
			continue
		}
		if h == p || strings.HasSuffix(h, "."+p) {
			return true
		}
	}
	return false
}

// Resolver looks up hostnames. Swapped out in tests.
type Resolver func(hostname string) ([]string, error)

func defaultResolver(hostname string) ([]string, error) {
	addrs, err := net.LookupHost(hostname)
	if err != nil {
		return nil, err
	}
	return addrs, nil
}

// Guard validates proxy target URLs.
type Guard struct {
	Allowlist      []string
	AllowLocalhost bool
	Resolve        Resolver
}

// NewGuard builds a Guard with the default DNS resolver.
func NewGuard(allowlist []string, allowLocalhost bool) *Guard {
	return &Guard{Allowlist: allowlist, AllowLocalhost: allowLocalhost, Resolve: defaultResolver}
}

// ValidateURL enforces the policy: the hostname must be allowlisted (or a
// permitted localhost), and none of its resolved addresses may be private.
func (g *Guard) ValidateURL(rawUrl string) error {
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		return &BlockedError{Reason: ReasonNotAllowlisted, Message: "Blocked URL: invalid URL"}
	}
	hostname := parsed.Hostname()
	if hostname == "" {
		return &BlockedError{Reason: ReasonNotAllowlisted, Message: "Blocked URL: Invalid URL: no hostname"}
	}

	if IsLocalhost(hostname) {
		if g.AllowLocalhost {
			return nil
		}
		return &BlockedError{Reason: ReasonNotAllowlisted, Message: "Blocked URL: localhost access not allowed"}
	}

	if !HostnameAllowed(hostname, g.Allowlist) {
		return &BlockedError{
			Reason:  ReasonNotAllowlisted,
			Message: fmt.Sprintf("Blocked URL: Host '%s' not in allowlist", hostname),
		}
	}

	resolve := g.Resolve
	if resolve == nil {
		resolve = defaultResolver
	}
	ips, err := resolve(hostname)
	if err != nil {
		// Unresolvable hosts pass DNS policy; the request itself will fail.
		return nil
	}
	for _, ip := range ips {
		if IsPrivateIP(ip) {
			return &BlockedError{
				Reason:  ReasonPrivateIP,
				Message: "Private/internal IP blocked: " + ip,
			}
		}
	}
	return nil
}

var redactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(sk-)[a-zA-Z0-9]{20,}`),
	regexp.MustCompile(`(?i)(api[-_]?key["'\s:=]+)[a-zA-Z0-9\-_]{20,}`),
	regexp.MustCompile(`(?i)(bearer\s+)[a-zA-Z0-9\-_.]+`),
	regexp.MustCompile(`(?i)(authorization["'\s:=]+)[^\s"']+`),
	regexp.MustCompile(`(?i)(cookie["'\s:=]+)[^\s"']+`),
	regexp.MustCompile(`(?i)(x-api-key["'\s:=]+)[a-zA-Z0-9\-_.]+`),
}

// Redact masks API keys, bearer tokens, cookies and authorization values so
// they never reach log output.
func Redact(text string) string {
	result := text
	for _, pattern := range redactPatterns {
		result = pattern.ReplaceAllString(result, "${1}[REDACTED]")
	}
	return result
}
