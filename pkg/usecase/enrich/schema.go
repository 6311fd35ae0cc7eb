package enrich

import (
	"github.com/google/jsonschema-go/jsonschema"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/genai"
)

// coordinatesSchema constrains the geocoding answer to {lat, lng}
var coordinatesSchema = &jsonschema.Schema{
	Type: "object",
	Properties: map[string]*jsonschema.Schema{
		"lat": {Type: "number", Description: "Latitude in decimal degrees"},
		"lng": {Type: "number", Description: "Longitude in decimal degrees"},
	},
	Required: []string{"lat", "lng"},
}

// toGenaiSchema converts the subset of JSON Schema used here to genai.Schema
func toGenaiSchema(schema *jsonschema.Schema) (*genai.Schema, error) {
	if schema == nil {
		return nil, nil
	}

	out := &genai.Schema{Description: schema.Description}

	switch schema.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "number", "integer":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
	default:
		return nil, goerr.New("unsupported schema type", goerr.V("type", schema.Type))
	}

	if len(schema.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(schema.Properties))
		for name, prop := range schema.Properties {
			converted, err := toGenaiSchema(prop)
			if err != nil {
				return nil, goerr.Wrap(err, "failed to convert property schema", goerr.V("property", name))
			}
			out.Properties[name] = converted
		}
	}
	out.Required = schema.Required

	if schema.Items != nil {
		items, err := toGenaiSchema(schema.Items)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to convert items schema")
		}
		out.Items = items
	}

	return out, nil
}
