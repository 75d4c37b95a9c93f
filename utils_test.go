package concrnt

import "testing"

func TestComposeAndParseCCURI(t *testing.T) {
	uri := ComposeCCURI("con1owner", "fm.teal.alpha.feed.play/abc")
	if uri != "cc://con1owner/fm.teal.alpha.feed.play/abc" {
		t.Fatalf("unexpected uri %q", uri)
	}

	owner, key, err := ParseCCURI(uri)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if owner != "con1owner" || key != "fm.teal.alpha.feed.play/abc" {
		t.Fatalf("unexpected owner=%q key=%q", owner, key)
	}
}

func TestParseCCURIRejectsOtherSchemes(t *testing.T) {
	if _, _, err := ParseCCURI("https://example.com/x"); err == nil {
		t.Fatalf("expected error for https uri")
	}
}

func TestNodeBaseURL(t *testing.T) {
	cases := map[string]string{
		"example.com":            "https://example.com",
		"example.com/":           "https://example.com",
		"http://127.0.0.1:8080":  "http://127.0.0.1:8080",
		"http://127.0.0.1:8080/": "http://127.0.0.1:8080",
	}
	for in, want := range cases {
		if got := NodeBaseURL(in); got != want {
			t.Errorf("NodeBaseURL(%q) = %q, want %q", in, got, want)
		}
	}

	if got := NodeHost("http://127.0.0.1:8080"); got != "127.0.0.1:8080" {
		t.Errorf("NodeHost = %q", got)
	}
	if got := NodeHost("example.com"); got != "example.com" {
		t.Errorf("NodeHost = %q", got)
	}
}
