package validator

import (
	"errors"
	"strings"
	"testing"
)

func TestAllReturnsFirstError(t *testing.T) {
	first := errors.New("first")
	if err := All(nil, first, errors.New("second")); err != first {
		t.Fatalf("got %v", err)
	}
	if err := All(nil, nil); err != nil {
		t.Fatalf("got %v", err)
	}
}

func TestValidators(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"not empty ok", NotEmpty("x", "name"), ""},
		{"empty", NotEmpty("", "name"), "name must not be empty"},
		{"duplicates", NoDuplicates([]string{"a", "b", "a"}, "dirs"), "dirs contains duplicate value: a"},
		{"allowed", MatchesAllowed("info", []string{"debug", "info"}, "level"), ""},
		{"not allowed", MatchesAllowed("loud", []string{"debug", "info"}, "level"), "level must be one of [debug info], got loud"},
		{"tags", HasNoTags("a{{b}}", "path"), "path must not contain template tags"},
		{"url ok", HTTPURL("https://example.com/t/", "remote"), ""},
		{"url empty", HTTPURL("", "remote"), ""},
		{"url scheme", HTTPURL("ftp://example.com", "remote"), "remote must be an http or https URL"},
		{"map", Map([]string{"a", ""}, NotEmpty, "dirs"), "dirs[1] must not be empty"},
		{"dict", MapDict(map[string]int{"b": 1, "a": -1, "c": -2}, func(k string, v int) error {
			if v < 0 {
				return errors.New(k)
			}
			return nil
		}), "a"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			switch {
			case tc.want == "" && tc.err != nil:
				t.Fatalf("unexpected error: %v", tc.err)
			case tc.want != "" && (tc.err == nil || !strings.Contains(tc.err.Error(), tc.want)):
				t.Fatalf("got %v, want %q", tc.err, tc.want)
			}
		})
	}
}
