// Package dispatch routes command envelopes to the service layer. Both
// transports feed it: HTTP posts one envelope per request, the websocket
// client one per frame.
package dispatch

import (
	"fmt"
	"strings"
)

// Args wraps a decoded request body. Getters address fields by name, with
// dotted paths descending into nested objects ("attachment.name"). The
// errors are client-visible and verbatim: "Missing <field>" when the field
// is absent, "Invalid <field>" when it has the wrong type.
type Args struct {
	body map[string]any
}

func NewArgs(body map[string]any) Args {
	return Args{body: body}
}

func (a Args) lookup(name string) (any, bool) {
	var current any = a.body
	for _, part := range strings.Split(name, ".") {
		obj, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = obj[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func (a Args) String(name string) (string, error) {
	v, ok := a.lookup(name)
	if !ok {
		return "", fmt.Errorf("Missing %s", name)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("Invalid %s", name)
	}
	return s, nil
}

func (a Args) OptString(name string) (*string, error) {
	v, ok := a.lookup(name)
	if !ok {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, fmt.Errorf("Invalid %s", name)
	}
	return &s, nil
}

func (a Args) OptInt(name string) (*int, error) {
	v, ok := a.lookup(name)
	if !ok {
		return nil, nil
	}
	f, ok := v.(float64)
	if !ok {
		return nil, fmt.Errorf("Invalid %s", name)
	}
	n := int(f)
	return &n, nil
}

// OptBool reads a flag; absent means false.
func (a Args) OptBool(name string) (bool, error) {
	v, ok := a.lookup(name)
	if !ok {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("Invalid %s", name)
	}
	return b, nil
}
