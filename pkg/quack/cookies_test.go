package quack

import "testing"

func TestParseCookiesHeaderString(t *testing.T) {
	got := ParseCookies("session=abc123; token=x=y; empty")
	if got["session"] != "abc123" {
		t.Errorf("session = %q", got["session"])
	}
	if got["token"] != "x=y" {
		t.Errorf("value with '=' mangled: %q", got["token"])
	}
	if _, ok := got["empty"]; ok {
		t.Error("pair without '=' should be skipped")
	}
}

func TestParseCookiesHeaderPrefix(t *testing.T) {
	got := ParseCookies("Cookie: session=abc123")
	if got["session"] != "abc123" {
		t.Errorf("Cookie: prefix not stripped, got %v", got)
	}
}

func TestParseCookiesJSON(t *testing.T) {
	input := `[
		{"name": "session", "value": "abc123", "domain": ".quack.ai"},
		{"name": "", "value": "ignored"},
		{"name": "token", "value": "t"}
	]`
	got := ParseCookies(input)
	if len(got) != 2 || got["session"] != "abc123" || got["token"] != "t" {
		t.Errorf("unexpected result: %v", got)
	}
}

func TestParseCookiesJSONInvalid(t *testing.T) {
	if got := ParseCookies("[not json"); len(got) != 0 {
		t.Errorf("invalid JSON should yield empty map, got %v", got)
	}
}

func TestParseCookiesNetscape(t *testing.T) {
	input := "# Netscape HTTP Cookie File\n" +
		".quack.ai\tTRUE\t/\tTRUE\t1999999999\tsession\tabc123\n" +
		"\n" +
		".quack.ai\tTRUE\t/\tTRUE\t1999999999\ttoken\tt\n" +
		"short\tline\n"
	got := ParseCookies(input)
	if len(got) != 2 || got["session"] != "abc123" || got["token"] != "t" {
		t.Errorf("unexpected result: %v", got)
	}
}

func TestParseCookiesEmpty(t *testing.T) {
	if got := ParseCookies("   "); len(got) != 0 {
		t.Errorf("blank input should yield empty map, got %v", got)
	}
}

func TestCookieHeader(t *testing.T) {
	got := CookieHeader(map[string]string{"b": "2", "a": "1"})
	if got != "a=1; b=2" {
		t.Errorf("CookieHeader = %q, want sorted 'a=1; b=2'", got)
	}
	if CookieHeader(nil) != "" {
		t.Error("nil map should render empty")
	}
}
