// Package quack imports characters from the QuackAI platform: cookie-based
// authentication, character/lorebook fetching, and mapping to Character Card
// V3.
package quack

import (
	"encoding/json"
	"sort"
	"strings"
)

// ParseCookies reads cookies from any of the formats users paste in:
// a JSON export (EditThisCookie), a Netscape cookies.txt, or a raw
// "key=value; key2=value2" header string.
func ParseCookies(input string) map[string]string {
	input = strings.TrimSpace(input)
	if input == "" {
		return map[string]string{}
	}

	if strings.HasPrefix(input, "[") {
		return parseJSONCookies(input)
	}
	if strings.Contains(input, "\t") || strings.HasPrefix(input, "#") {
		return parseNetscapeCookies(input)
	}
	return parseHeaderCookies(input)
}

func parseJSONCookies(input string) map[string]string {
	var entries []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	}
	result := map[string]string{}
	if err := json.Unmarshal([]byte(input), &entries); err != nil {
		return result
	}
	for _, entry := range entries {
		if entry.Name != "" {
			result[entry.Name] = entry.Value
		}
	}
	return result
}

func parseNetscapeCookies(input string) map[string]string {
	result := map[string]string{}
	for _, line := range strings.Split(input, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		// domain  flag  path  secure  expiration  name  value
		parts := strings.Split(line, "\t")
		if len(parts) >= 7 {
			result[parts[5]] = parts[6]
		}
	}
	return result
}

func parseHeaderCookies(input string) map[string]string {
	if len(input) >= 7 && strings.EqualFold(input[:7], "cookie:") {
		input = strings.TrimSpace(input[7:])
	}

	result := map[string]string{}
	for _, pair := range strings.Split(input, ";") {
		pair = strings.TrimSpace(pair)
		idx := strings.Index(pair, "=")
		if idx <= 0 {
			continue
		}
		name := strings.TrimSpace(pair[:idx])
		result[name] = strings.TrimSpace(pair[idx+1:])
	}
	return result
}

// CookieHeader renders a cookie map as a Cookie header value. Keys are
// sorted so the output is stable.
func CookieHeader(cookies map[string]string) string {
	keys := make([]string, 0, len(cookies))
	for k := range cookies {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(k)
		sb.WriteString("=")
		sb.WriteString(cookies[k])
	}
	return sb.String()
}
