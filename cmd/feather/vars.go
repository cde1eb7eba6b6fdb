package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/twg/feather/pkg/feather"
	"github.com/twg/feather/pkg/starlark"
	"gopkg.in/yaml.v3"
)

// loadVars merges the variable files over base, later files winning on
// key collisions. Starlark scripts see every variable loaded before them
// as globals.
func loadVars(ctx context.Context, base feather.DictValue, paths []string) (feather.DictValue, error) {
	vars := make(feather.DictValue, len(base))
	for k, v := range base {
		vars[k] = v
	}
	for _, path := range paths {
		got, err := loadVarsFile(ctx, vars, path)
		if err != nil {
			return nil, fmt.Errorf("loading vars %s: %w", path, err)
		}
		for k, v := range got {
			vars[k] = v
		}
	}
	return vars, nil
}

func loadVarsFile(ctx context.Context, current feather.DictValue, path string) (feather.DictValue, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".star" {
		eval := starlark.NewEvaluatorContext(ctx, nil)
		eval.LoadVars(current)
		if _, err := eval.ExecFile(path, nil); err != nil {
			return nil, err
		}
		return eval.Variables(), nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	switch ext {
	case ".json":
		err = json.Unmarshal(b, &raw)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &raw)
	default:
		return nil, fmt.Errorf("%w: unsupported vars file type %q", feather.ErrInvalidArgument, ext)
	}
	if err != nil {
		return nil, err
	}
	d, _ := feather.FromGo(raw).(feather.DictValue)
	return d, nil
}
