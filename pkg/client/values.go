package client

import (
	"context"
	"net/http"
	"strconv"
)

const valuesPath = "/api/values"

// Values is a typed client for the values resource.
type Values struct {
	base *Base
}

// NewValues creates a values client. base should carry a bearer token.
func NewValues(base *Base) *Values {
	return &Values{base: base}
}

// List returns every value ordered by ID.
func (v *Values) List(ctx context.Context) ([]string, error) {
	var out []string
	if _, err := v.base.Get(ctx, valuesPath, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get returns the value stored under id.
func (v *Values) Get(ctx context.Context, id int) (string, error) {
	var out string
	if _, err := v.base.Get(ctx, valuePath(id), &out); err != nil {
		return "", err
	}
	return out, nil
}

// Set creates or replaces the value under id and reports whether it was new.
func (v *Values) Set(ctx context.Context, id int, value string) (bool, error) {
	status, err := v.base.Put(ctx, valuePath(id), value, nil)
	if err != nil {
		return false, err
	}
	return status == http.StatusCreated, nil
}

// Create stores a value under a new id. An existing id yields a
// *StatusError with status 409.
func (v *Values) Create(ctx context.Context, id int, value string) error {
	_, err := v.base.Post(ctx, valuePath(id), value, nil)
	return err
}

// Delete removes the value under id.
func (v *Values) Delete(ctx context.Context, id int) error {
	_, err := v.base.Delete(ctx, valuePath(id))
	return err
}

func valuePath(id int) string {
	return valuesPath + "/" + strconv.Itoa(id)
}
