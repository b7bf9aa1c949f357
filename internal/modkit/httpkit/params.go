package httpkit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	perrs "galactly/internal/platform/errors"
	"galactly/internal/platform/net/http/bind"
)

// Param returns a path parameter validated against tag, empty tag skips validation
func Param(r *http.Request, name, tag string) (string, error) {
	v := chi.URLParam(r, name)
	if tag == "" {
		return v, nil
	}
	if err := bind.Var(name, v, tag); err != nil {
		return "", err
	}
	return v, nil
}

// ParamUUID parses a path parameter as a uuid
func ParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, perrs.WithField(perrs.Validationf("%s must be a valid UUID", name), name)
	}
	return id, nil
}

// QueryInt reads an optional integer query parameter bounded to [min, max]
func QueryInt(r *http.Request, name string, def, min, max int) (int, error) {
	s := strings.TrimSpace(r.URL.Query().Get(name))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, perrs.WithField(perrs.Validationf("%s must be an integer between %d and %d", name, min, max), name)
	}
	return n, nil
}

// JSONOptional is JSON for endpoints whose body may be omitted
func JSONOptional[T any](fn func(*http.Request, T) (any, error)) Handler {
	return Handle(func(r *http.Request) Response {
		in, err := bind.ParseJSON[T](r, bind.JSONOptions{MaxBytes: 1 << 20, DisallowUnknown: true, AllowEmptyBody: true})
		if err != nil {
			return Error(err)
		}
		return wrap(fn(r, in))
	})
}

// PostJSONOptional mounts JSONOptional under POST
func PostJSONOptional[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, JSONOptional(h))
}
