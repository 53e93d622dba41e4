package schema

import (
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/invopop/jsonschema"
)

// ParamType is the JSON type of a tool parameter.
type ParamType string

const (
	TypeString  ParamType = "string"
	TypeInteger ParamType = "integer"
	TypeNumber  ParamType = "number"
	TypeBoolean ParamType = "boolean"
	TypeArray   ParamType = "array"
	TypeObject  ParamType = "object"
	// TypeAny accepts any JSON value.
	TypeAny ParamType = ""
)

// Param describes a single tool parameter.
type Param struct {
	Name        string    `json:"name" yaml:"name"`
	Type        ParamType `json:"type,omitempty" yaml:"type,omitempty"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any       `json:"default,omitempty" yaml:"default,omitempty"`
}

// DefaultInputParam is used for callables that declare no parameters.
var DefaultInputParam = Param{Name: "input", Type: TypeString, Required: true}

// TypeOf infers the parameter type from a default value.
func TypeOf(v any) ParamType {
	switch v.(type) {
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return TypeInteger
	case float32, float64:
		return TypeNumber
	case []any, []string, []int, []float64:
		return TypeArray
	case map[string]any, map[string]string:
		return TypeObject
	}
	return TypeAny
}

// FromParams returns the object schema for the parameter list.
func FromParams(params []Param) *jsonschema.Schema {
	res := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	for _, p := range params {
		prop := &jsonschema.Schema{
			Type:        string(p.Type),
			Description: p.Description,
			Default:     p.Default,
		}
		res.Properties.Set(p.Name, prop)
		if p.Required {
			res.Required = append(res.Required, p.Name)
		}
	}
	return res
}

// ParamsFromSchema returns descriptors for the top level properties of an object schema.
func ParamsFromSchema(s *jsonschema.Schema) []Param {
	if s == nil || s.Properties == nil {
		return nil
	}
	var params []Param
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		prop := pair.Value
		params = append(params, Param{
			Name:        pair.Key,
			Type:        ParamType(prop.Type),
			Description: prop.Description,
			Required:    slices.Contains(s.Required, pair.Key),
			Default:     prop.Default,
		})
	}
	return params
}

// ApplyParams fills defaults and checks required parameters of the arguments.
// Arguments that are not described are passed through.
func ApplyParams(params []Param, args map[string]any) (map[string]any, error) {
	res := make(map[string]any, len(args)+len(params))
	for k, v := range args {
		res[k] = v
	}
	var missing []string
	for _, p := range params {
		if _, ok := res[p.Name]; ok {
			continue
		}
		if p.Default != nil {
			res[p.Name] = p.Default
			continue
		}
		if p.Required {
			missing = append(missing, p.Name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Errorf("missing required parameters: %v", missing)
	}
	return res, nil
}
