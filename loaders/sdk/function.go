package sdk

import (
	"context"
	"encoding/json"
	"reflect"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/toolhub/pkg/schema"
	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
)

// Handler executes a function with decoded arguments
type Handler func(ctx context.Context, args map[string]any) (any, error)

// Function is a callable exposed as a tool
type Function struct {
	Name        string
	Description string
	// Params describes the arguments,
	// a single required string "input" is used when empty.
	Params  []schema.Param
	Handler Handler

	// parameters is the full schema of typed inputs
	parameters *jsonschema.Schema
}

// Module is a named group of functions, its name prefixes tool names.
type Module struct {
	Name      string
	Functions []Function
}

var validate = validator.New(validator.WithRequiredStructEnabled())

var (
	contextType = reflect.TypeFor[context.Context]()
	errorType   = reflect.TypeFor[error]()
)

// Typed returns a function with parameters derived from the input struct,
// its arguments are decoded into I and validated with `validate` tags.
func Typed[I any, O any](name, description string, fn func(context.Context, *I) (*O, error)) (Function, error) {
	s, err := schema.New(reflect.TypeFor[I]())
	if err != nil {
		return Function{}, errors.Wrapf(err, "failed to create schema for %s", name)
	}
	return Function{
		Name:        name,
		Description: description,
		Params:      s.Params,
		parameters:  s.Parameters,
		Handler: func(ctx context.Context, args map[string]any) (any, error) {
			in := new(I)
			if err := decodeInto(args, in); err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}, nil
}

// FromObject returns module of obj exported methods shaped as
// func(context.Context, In) (Out, error), where In is a struct or pointer to struct.
// Other methods are skipped.
func FromObject(origin string, obj any) (Module, error) {
	if obj == nil {
		return Module{}, errors.New("object is nil")
	}
	v := reflect.ValueOf(obj)
	t := v.Type()

	m := Module{Name: origin}
	for i := range t.NumMethod() {
		method := t.Method(i)
		inType, ok := methodInput(method.Type)
		if !ok {
			continue
		}

		s, err := schema.New(inType)
		if err != nil {
			return Module{}, errors.Wrapf(err, "failed to create schema for %s", method.Name)
		}

		bound := v.Method(i)
		byPtr := method.Type.In(2).Kind() == reflect.Pointer
		m.Functions = append(m.Functions, Function{
			Name:       method.Name,
			Params:     s.Params,
			parameters: s.Parameters,
			Handler: func(ctx context.Context, args map[string]any) (any, error) {
				in := reflect.New(inType)
				if err := decodeInto(args, in.Interface()); err != nil {
					return nil, err
				}
				if !byPtr {
					in = in.Elem()
				}
				out := bound.Call([]reflect.Value{reflect.ValueOf(ctx), in})
				if errv := out[1].Interface(); errv != nil {
					return nil, errv.(error)
				}
				return out[0].Interface(), nil
			},
		})
	}
	return m, nil
}

// methodInput returns the input struct type of a method value type with receiver,
// or false if the method does not have the supported shape.
func methodInput(mt reflect.Type) (reflect.Type, bool) {
	if mt.NumIn() != 3 || mt.NumOut() != 2 {
		return nil, false
	}
	if mt.In(1) != contextType || mt.Out(1) != errorType {
		return nil, false
	}
	in := mt.In(2)
	if in.Kind() == reflect.Pointer {
		in = in.Elem()
	}
	if in.Kind() != reflect.Struct {
		return nil, false
	}
	return in, true
}

func decodeInto(args map[string]any, target any) error {
	js, err := json.Marshal(args)
	if err != nil {
		return errors.Wrap(err, "failed to marshal arguments")
	}
	if err = json.Unmarshal(js, target); err != nil {
		return errors.Wrap(err, "failed to decode arguments")
	}
	if err = validate.Struct(target); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}
