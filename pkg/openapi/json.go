package openapi

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

// MarshalJSON serializes the spec to indented JSON bytes. It fails when any
// $ref names a component the spec does not define.
func MarshalJSON(spec *Spec) ([]byte, error) {
	if missing := danglingRefs(spec); len(missing) > 0 {
		return nil, fmt.Errorf("unresolved references: %s", strings.Join(missing, ", "))
	}
	return json.MarshalIndent(spec, "", "  ")
}

func danglingRefs(spec *Spec) []string {
	var refs []string
	var schema func(s *Schema)
	schema = func(s *Schema) {
		if s == nil {
			return
		}
		if s.Ref != "" {
			refs = append(refs, s.Ref)
		}
		for _, p := range s.Properties {
			schema(p)
		}
		schema(s.Items)
	}
	content := func(c map[string]*MediaType) {
		for _, mt := range c {
			schema(mt.Schema)
		}
	}
	response := func(r *Response) {
		if r.Ref != "" {
			refs = append(refs, r.Ref)
		}
		content(r.Content)
		for _, h := range r.Headers {
			schema(h.Schema)
		}
	}

	for _, item := range spec.Paths {
		for _, op := range []*Operation{item.Get, item.Post, item.Put, item.Delete} {
			if op == nil {
				continue
			}
			if op.RequestBody != nil {
				content(op.RequestBody.Content)
			}
			for _, r := range op.Responses {
				response(r)
			}
		}
	}

	var schemas map[string]*Schema
	var responses map[string]*Response
	if spec.Components != nil {
		schemas, responses = spec.Components.Schemas, spec.Components.Responses
		for _, s := range schemas {
			schema(s)
		}
		for _, r := range responses {
			response(r)
		}
	}

	var missing []string
	for _, ref := range refs {
		var ok bool
		switch {
		case strings.HasPrefix(ref, schemaRefPrefix):
			_, ok = schemas[strings.TrimPrefix(ref, schemaRefPrefix)]
		case strings.HasPrefix(ref, responseRefPrefix):
			_, ok = responses[strings.TrimPrefix(ref, responseRefPrefix)]
		}
		if !ok && !slices.Contains(missing, ref) {
			missing = append(missing, ref)
		}
	}
	slices.Sort(missing)
	return missing
}
