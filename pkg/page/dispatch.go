package page

import (
	"context"

	"github.com/devicelab-dev/pagedriver/pkg/core"
	"github.com/devicelab-dev/pagedriver/pkg/session"
)

// Variants holds one constructor per platform for a page contract T.
type Variants[T any] struct {
	Android func(*Context) T
	IOS     func(*Context) T
}

// For builds the variant matching c's platform.
func (v Variants[T]) For(c *Context) (T, error) {
	var zero T
	var build func(*Context) T
	switch c.Platform() {
	case core.PlatformAndroid:
		build = v.Android
	case core.PlatformIOS:
		build = v.IOS
	}
	if build == nil {
		return zero, core.ErrConfiguration.WithMessagef("no page variant for platform %s", c.Platform())
	}
	return build(c), nil
}

// Dispatch binds a Context to the calling execution's session and builds the
// variant for its platform. Steps call the returned T without branching.
func Dispatch[T any](ctx context.Context, reg *session.Registry, v Variants[T], opts ...Option) (T, error) {
	c, err := New(ctx, reg, opts...)
	if err != nil {
		var zero T
		return zero, err
	}
	return v.For(c)
}
