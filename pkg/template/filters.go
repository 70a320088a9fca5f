package template

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"
)

// parseFilter splits "name(arg)" into name and unquoted arg. Filters without
// parentheses have an empty arg.
func parseFilter(expr string) (string, string) {
	open := strings.Index(expr, "(")
	if open < 0 || !strings.HasSuffix(expr, ")") {
		return strings.TrimSpace(expr), ""
	}

	name := strings.TrimSpace(expr[:open])
	arg := strings.TrimSpace(expr[open+1 : len(expr)-1])
	arg = strings.Trim(arg, `'"`)

	return name, arg
}

// applyFilter applies one built-in filter. Unknown filter names pass the
// value through unfiltered. The default filter is handled by the caller
// because it must also fire on undefined paths.
func applyFilter(name, arg string, value any) any {
	_ = arg

	switch name {
	case "json":
		encoded, err := json.Marshal(value)
		if err != nil {
			return value
		}

		return string(encoded)
	case "upper":
		return strings.ToUpper(stringify(value))
	case "lower":
		return strings.ToLower(stringify(value))
	case "trim":
		return strings.TrimSpace(stringify(value))
	case "length", "count":
		return lengthOf(value)
	case "first":
		if items, ok := value.([]any); ok && len(items) > 0 {
			return items[0]
		}

		return nil
	case "last":
		if items, ok := value.([]any); ok && len(items) > 0 {
			return items[len(items)-1]
		}

		return nil
	case "date":
		return formatDate(value)
	default:
		return value
	}
}

func lengthOf(value any) int {
	switch v := value.(type) {
	case string:
		return utf8.RuneCountInString(v)
	case []any:
		return len(v)
	case map[string]any:
		return len(v)
	default:
		return 0
	}
}

// formatDate renders RFC3339 strings and epoch-millisecond numbers as a
// short date; anything unparsable passes through.
func formatDate(value any) any {
	switch v := value.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t.Format("01/02/2006")
		}

		return v
	case float64:
		return time.UnixMilli(int64(v)).UTC().Format("01/02/2006")
	case int64:
		return time.UnixMilli(v).UTC().Format("01/02/2006")
	default:
		return value
	}
}
