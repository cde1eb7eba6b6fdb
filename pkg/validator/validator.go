package validator

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"
)

func All(errors ...error) error {
	for _, err := range errors {
		if err != nil {
			return err
		}
	}
	return nil
}

func Map[T any](items []T, f func(T, string) error, description string) error {
	for i, item := range items {
		if err := f(item, fmt.Sprintf("%s[%d]", description, i)); err != nil {
			return err
		}
	}
	return nil
}

// MapDict checks entries in key order so the reported error is stable.
func MapDict[T any](items map[string]T, f func(string, T) error) error {
	keys := make([]string, 0, len(items))
	for key := range items {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if err := f(key, items[key]); err != nil {
			return err
		}
	}
	return nil
}

func NotEmpty(field, description string) error {
	if field == "" {
		return fmt.Errorf("%s must not be empty", description)
	}
	return nil
}

func NoDuplicates[T comparable](slice []T, description string) error {
	seen := make(map[T]struct{})
	for _, v := range slice {
		if _, ok := seen[v]; ok {
			return fmt.Errorf("%s contains duplicate value: %v", description, v)
		}
		seen[v] = struct{}{}
	}
	return nil
}

func MatchesAllowed[T comparable](field T, allowed []T, description string) error {
	if !slices.Contains(allowed, field) {
		return fmt.Errorf("%s must be one of %v, got %v", description, allowed, field)
	}
	return nil
}

// HasNoTags rejects values that would be treated as template source.
func HasNoTags(field string, description string) error {
	if strings.Contains(field, "{{") {
		return fmt.Errorf("%s must not contain template tags", description)
	}
	return nil
}

// HTTPURL accepts the empty string or an absolute http(s) URL.
func HTTPURL(field string, description string) error {
	if field == "" {
		return nil
	}
	u, err := url.Parse(field)
	if err != nil {
		return fmt.Errorf("%s: %w", description, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an http or https URL, got %q", description, field)
	}
	return nil
}
