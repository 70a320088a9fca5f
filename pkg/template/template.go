// Package template resolves {{ path | filter }} expressions in node
// configuration against the execution context of a run.
package template

import (
	"encoding/json"
	"regexp"
	"strings"
)

var expressionPattern = regexp.MustCompile(`\{\{[^{}]*\}\}`)

// Resolve walks value recursively, keeping its structure, and substitutes
// template expressions found in string leaves. It is a pure function of
// (value, context).
//
// A string that is exactly one template resolves to the raw typed value of
// the referenced path (objects, arrays and numbers pass through untouched).
// Any other string has each embedded expression substituted in place, with
// non-string values JSON-stringified. An unresolved path without a default
// filter leaves the original literal token in place so broken references
// stay visible instead of silently becoming empty.
func Resolve(value any, context map[string]any) any {
	switch v := value.(type) {
	case string:
		return resolveString(v, context)
	case map[string]any:
		resolved := make(map[string]any, len(v))
		for key, item := range v {
			resolved[key] = Resolve(item, context)
		}

		return resolved
	case []any:
		resolved := make([]any, len(v))
		for i, item := range v {
			resolved[i] = Resolve(item, context)
		}

		return resolved
	default:
		return value
	}
}

// ResolveConfig resolves every value of a node's configuration object.
func ResolveConfig(data map[string]any, context map[string]any) map[string]any {
	resolved, _ := Resolve(data, context).(map[string]any)

	return resolved
}

func resolveString(s string, context map[string]any) any {
	trimmed := strings.TrimSpace(s)

	// Sole-template strings return the raw typed value rather than a
	// stringified one.
	if strings.HasPrefix(trimmed, "{{") && strings.HasSuffix(trimmed, "}}") &&
		!strings.Contains(trimmed[2:len(trimmed)-2], "{{") {
		value, ok := evaluate(trimmed[2:len(trimmed)-2], context)
		if !ok {
			return s
		}

		return value
	}

	return expressionPattern.ReplaceAllStringFunc(s, func(token string) string {
		value, ok := evaluate(token[2:len(token)-2], context)
		if !ok {
			return token
		}

		return stringify(value)
	})
}

// evaluate resolves one "path | filter(arg)" expression body. The second
// return value is false only when the path is undefined and no default
// filter rescues it, which is the caller's cue to keep the literal token.
func evaluate(body string, context map[string]any) (any, bool) {
	pathExpr, filterExpr := splitPipeline(body)

	value, found := lookupPath(strings.TrimSpace(pathExpr), context)

	if filterExpr != "" {
		name, arg := parseFilter(filterExpr)
		if name == "default" {
			if !found {
				return arg, true
			}

			return value, true
		}

		if !found {
			return nil, false
		}

		return applyFilter(name, arg, value), true
	}

	if !found {
		return nil, false
	}

	return value, true
}

func splitPipeline(body string) (string, string) {
	if idx := strings.Index(body, "|"); idx >= 0 {
		return body[:idx], strings.TrimSpace(body[idx+1:])
	}

	return body, ""
}

func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return ""
		}

		return string(encoded)
	}
}
