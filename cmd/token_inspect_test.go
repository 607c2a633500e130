package cmd

import (
	"strings"
	"testing"
)

func TestReadTokenArg(t *testing.T) {
	got, err := readTokenArg([]string{"  abc.def.ghi \n"}, strings.NewReader("ignored"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "abc.def.ghi" {
		t.Errorf("got %q, want %q", got, "abc.def.ghi")
	}

	got, err = readTokenArg(nil, strings.NewReader("from.stdin.token\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "from.stdin.token" {
		t.Errorf("got %q, want %q", got, "from.stdin.token")
	}

	if _, err := readTokenArg(nil, strings.NewReader("   \n")); err == nil {
		t.Error("expected error for empty stdin")
	}
}
