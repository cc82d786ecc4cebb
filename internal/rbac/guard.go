package rbac

import (
	"context"

	"dundie-api/internal/auth"
)

// SuperuserGuard runs next and then demands the superuser capability of the
// resolved user. A caller that fails next keeps next's error; an
// authenticated caller without the capability gets auth.ErrForbidden.
func SuperuserGuard(next auth.Guard) auth.Guard {
	return func(ctx context.Context, req auth.ResolveRequest) (auth.Identity, error) {
		id, err := next(ctx, req)
		if err != nil {
			return auth.Identity{}, err
		}
		if !id.User.Superuser {
			return auth.Identity{}, auth.ErrForbidden
		}
		return id, nil
	}
}
