package feather

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
)

// FSLoader serves template sources from files in FS. A name is tried as is
// and then with each of Exts appended.
type FSLoader struct {
	FS   fs.FS
	Exts []string
}

func (l FSLoader) Load(name string) (any, error) {
	if name == "" || !fs.ValidPath(name) {
		return nil, ErrTemplateNotFound{name}
	}
	for _, cand := range append([]string{name}, l.candidates(name)...) {
		b, err := fs.ReadFile(l.FS, cand)
		switch {
		case err == nil:
			return b, nil
		case errors.Is(err, fs.ErrNotExist):
			continue
		case isDir(l.FS, cand):
			continue
		default:
			return nil, fmt.Errorf("reading %s: %w", cand, err)
		}
	}
	return nil, ErrTemplateNotFound{name}
}

func (l FSLoader) candidates(name string) []string {
	out := make([]string, 0, len(l.Exts))
	for _, ext := range l.Exts {
		if path.Ext(name) != ext {
			out = append(out, name+ext)
		}
	}
	return out
}

func isDir(fsys fs.FS, name string) bool {
	st, err := fs.Stat(fsys, name)
	return err == nil && st.IsDir()
}

// ChainLoader asks each loader in turn and returns the first hit.
type ChainLoader []Loader

func (c ChainLoader) Load(name string) (any, error) {
	for _, l := range c {
		v, err := l.Load(name)
		var nf ErrTemplateNotFound
		if errors.As(err, &nf) {
			continue
		}
		return v, err
	}
	return nil, ErrTemplateNotFound{name}
}
