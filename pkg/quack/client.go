package quack

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// ErrorKind classifies upstream failures so the transport layer can pick the
// right status code.
type ErrorKind string

const (
	KindUnauthorized ErrorKind = "unauthorized"
	KindRateLimited  ErrorKind = "rate_limited"
	KindTimeout      ErrorKind = "timeout"
	KindNetwork      ErrorKind = "network"
)

// Error is a classified upstream failure.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind ErrorKind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

var idPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ExtractCharacterId pulls a character ID or SID out of a pasted URL or a
// bare ID string. Returns "" when nothing usable is found.
func ExtractCharacterId(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if strings.Contains(strings.ToLower(input), "quack") || strings.HasPrefix(input, "http") {
		if parsed, err := url.Parse(input); err == nil {
			parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
			for i, part := range parts {
				if part == "character" && i+1 < len(parts) {
					return parts[i+1]
				}
			}
			if len(parts) == 1 && parts[0] != "" && idPattern.MatchString(parts[0]) {
				return parts[0]
			}
		}
	}

	if idPattern.MatchString(input) {
		return input
	}
	return ""
}

// ClientConfig configures a Client.
type ClientConfig struct {
	BaseUrl           string
	CharacterInfoPath string
	LorebookPath      string
	UserAgent         string
	Timeout           time.Duration
}

// Client fetches character data from the QuackAI API using cookie
// authentication.
type Client struct {
	config  ClientConfig
	cookies map[string]string
	http    *http.Client
}

// NewClient builds a Client. A nil httpClient gets a default with the
// configured timeout.
func NewClient(config ClientConfig, cookies map[string]string, httpClient *http.Client) *Client {
	if config.UserAgent == "" {
		config.UserAgent = defaultUserAgent
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: config.Timeout}
	}
	return &Client{config: config, cookies: cookies, http: httpClient}
}

func (c *Client) get(ctx context.Context, path, characterId string) (map[string]interface{}, error) {
	endpoint := c.config.BaseUrl + path + "?id=" + url.QueryEscape(characterId)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to build request", Err: err}
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	if len(c.cookies) > 0 {
		req.Header.Set("Cookie", CookieHeader(c.cookies))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, newError(KindTimeout, "Quack API request timed out")
		}
		return nil, &Error{Kind: KindNetwork, Message: "network error", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "failed to read response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "invalid JSON from Quack API", Err: err}
	}

	if err := checkApiCode(data); err != nil {
		return nil, err
	}
	return data, nil
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

func classifyStatus(status int) *Error {
	switch {
	case status == http.StatusUnauthorized:
		return newError(KindUnauthorized, "Cookie Invalid - Please provide valid authentication cookies")
	case status == http.StatusForbidden:
		return newError(KindNetwork, "Access forbidden - Your IP may be blocked or cookies expired")
	case status == http.StatusTooManyRequests:
		return newError(KindRateLimited, "Rate limited by Quack API - Please wait before retrying")
	case status >= 500:
		return newError(KindNetwork, fmt.Sprintf("Quack API server error (HTTP %d)", status))
	default:
		return newError(KindNetwork, fmt.Sprintf("Quack API request failed (HTTP %d)", status))
	}
}

// checkApiCode surfaces API-level errors ({"code": N, "message": ...}).
func checkApiCode(data map[string]interface{}) error {
	code, ok := data["code"]
	if !ok {
		return nil
	}
	num, ok := code.(float64)
	if !ok || num == 0 {
		return nil
	}

	msg := "Unknown error"
	if m, ok := data["message"].(string); ok && m != "" {
		msg = m
	} else if m, ok := data["msg"].(string); ok && m != "" {
		msg = m
	}

	if int(num) == 401 || strings.Contains(strings.ToLower(msg), "auth") {
		return newError(KindUnauthorized, "Cookie Invalid - "+msg)
	}
	return newError(KindNetwork, "Quack API error: "+msg)
}

// FetchCharacterInfo gets the raw character info document.
func (c *Client) FetchCharacterInfo(ctx context.Context, characterId string) (map[string]interface{}, error) {
	return c.get(ctx, c.config.CharacterInfoPath, characterId)
}

// FetchLorebook gets the character's world book entries, flattening the
// nested {"data": [{"entryList": [...]}]} layout Quack uses.
func (c *Client) FetchLorebook(ctx context.Context, characterId string) ([]map[string]interface{}, error) {
	data, err := c.get(ctx, c.config.LorebookPath, characterId)
	if err != nil {
		return nil, err
	}

	raw, ok := data["data"].([]interface{})
	if !ok {
		return nil, nil
	}

	var result []map[string]interface{}
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if nested, ok := entry["entryList"].([]interface{}); ok {
			for _, n := range nested {
				if e, ok := n.(map[string]interface{}); ok {
					result = append(result, e)
				}
			}
			continue
		}
		result = append(result, entry)
	}
	return result, nil
}

// FetchCharacterComplete gets both the character info and its lorebook. A
// lorebook failure is not fatal; many characters simply have none.
func (c *Client) FetchCharacterComplete(ctx context.Context, characterId string) (map[string]interface{}, []map[string]interface{}, error) {
	info, err := c.FetchCharacterInfo(ctx, characterId)
	if err != nil {
		return nil, nil, err
	}

	lorebook, err := c.FetchLorebook(ctx, characterId)
	if err != nil {
		lorebook = nil
	}
	return info, lorebook, nil
}
