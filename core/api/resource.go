package api

import (
	"context"

	"github.com/pkg/errors"
)

// resource maps the five REST verbs of `/<path>[/:id]` to typed calls.
type resource[T any, F any] struct {
	c    *Client
	path string
	name string
}

func newResource[T any, F any](c *Client, path, name string) resource[T, F] {
	return resource[T, F]{c: c, path: path, name: name}
}

func (r resource[T, F]) List(ctx context.Context, token string) ([]T, error) {
	var items []T
	if err := r.c.get(ctx, token, r.path, nil, &items); err != nil {
		return nil, errors.Wrapf(err, "listing %s", r.name)
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (r resource[T, F]) Get(ctx context.Context, token string, id int) (T, error) {
	var item T
	if err := r.c.get(ctx, token, pathID(r.path, id), nil, &item); err != nil {
		return item, errors.Wrapf(err, "getting %s %d", r.name, id)
	}
	return item, nil
}

func (r resource[T, F]) Create(ctx context.Context, token string, form F) (T, error) {
	var item T
	if err := r.c.post(ctx, token, r.path, form, &item); err != nil {
		return item, errors.Wrapf(err, "creating %s", r.name)
	}
	return item, nil
}

func (r resource[T, F]) Update(ctx context.Context, token string, id int, form F) (T, error) {
	var item T
	if err := r.c.put(ctx, token, pathID(r.path, id), form, &item); err != nil {
		return item, errors.Wrapf(err, "updating %s %d", r.name, id)
	}
	return item, nil
}

func (r resource[T, F]) Delete(ctx context.Context, token string, id int) error {
	return errors.Wrapf(r.c.delete(ctx, token, pathID(r.path, id)), "deleting %s %d", r.name, id)
}
