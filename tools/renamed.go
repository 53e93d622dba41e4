package tools

import "context"

// Renamed returns a tool that reports name as its Name,
// and delegates everything else to t.
// When the name already matches, t is returned as is.
func Renamed(t ITool, name string) ITool {
	if t.Name() == name {
		return t
	}
	if r, ok := t.(*renamed); ok {
		t = r.inner
		if t.Name() == name {
			return t
		}
	}
	return &renamed{inner: t, name: name}
}

type wrapper interface {
	Unwrap() ITool
}

// Unwrap returns the innermost tool wrapped by Renamed or Observed, or t itself.
func Unwrap(t ITool) ITool {
	for {
		w, ok := t.(wrapper)
		if !ok {
			return t
		}
		t = w.Unwrap()
	}
}

type renamed struct {
	inner ITool
	name  string
}

func (r *renamed) Unwrap() ITool {
	return r.inner
}

func (r *renamed) Name() string {
	return r.name
}

func (r *renamed) Description() string {
	return r.inner.Description()
}

func (r *renamed) Parameters() any {
	return r.inner.Parameters()
}

func (r *renamed) Call(ctx context.Context, input string) (string, error) {
	return r.inner.Call(ctx, input)
}
