package netcache

import (
	"context"
	"errors"
	"strings"

	"github.com/twg/feather/pkg/feather"
)

// Loader serves templates from a remote base URL through a Cache. It
// implements feather.Loader; the loaded source is classified by the
// registry like any other string entry.
type Loader struct {
	Cache *Cache
	Base  string
	// Context bounds every fetch; nil means context.Background.
	Context context.Context
}

func (l Loader) Load(name string) (any, error) {
	if strings.TrimPrefix(name, "/") == "" {
		return nil, feather.ErrTemplateNotFound{Name: name}
	}
	ctx := l.Context
	if ctx == nil {
		ctx = context.Background()
	}
	url := strings.TrimSuffix(l.Base, "/") + "/" + strings.TrimPrefix(name, "/")
	body, _, err := l.Cache.Get(ctx, url)
	if errors.Is(err, ErrNotFound) {
		return nil, feather.ErrTemplateNotFound{Name: name}
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

var _ feather.Loader = Loader{}
