package template

import (
	"crypto/rand"
	"strconv"
	"strings"
	"time"
)

const randomTokenLength = 8

const randomAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

// lookupPath walks a dot-separated path over nested maps, with `key[N]`
// indexing into arrays. Resolution short-circuits to undefined (found=false)
// on any missing intermediate. Paths under system.* bypass the context and
// call a fixed generator, evaluated fresh per occurrence.
func lookupPath(path string, context map[string]any) (any, bool) {
	if path == "" {
		return nil, false
	}

	if strings.HasPrefix(path, "system.") {
		return systemValue(strings.TrimPrefix(path, "system."))
	}

	var current any = context

	for _, segment := range strings.Split(path, ".") {
		key, index, indexed := parseSegment(segment)

		object, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}

		current, ok = object[key]
		if !ok {
			return nil, false
		}

		if indexed {
			items, ok := current.([]any)
			if !ok || index < 0 || index >= len(items) {
				return nil, false
			}

			current = items[index]
		}
	}

	return current, true
}

// parseSegment splits "key[N]" into its key and index parts.
func parseSegment(segment string) (string, int, bool) {
	open := strings.Index(segment, "[")
	if open < 0 || !strings.HasSuffix(segment, "]") {
		return segment, 0, false
	}

	index, err := strconv.Atoi(segment[open+1 : len(segment)-1])
	if err != nil {
		return segment, 0, false
	}

	return segment[:open], index, true
}

func systemValue(name string) (any, bool) {
	switch name {
	case "now":
		return time.Now().UTC().Format(time.RFC3339), true
	case "today":
		return time.Now().Format("01/02/2006"), true
	case "timestamp":
		return time.Now().UnixMilli(), true
	case "random":
		return randomToken(), true
	default:
		return nil, false
	}
}

func randomToken() string {
	buf := make([]byte, randomTokenLength)
	if _, err := rand.Read(buf); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 36)
	}

	for i, b := range buf {
		buf[i] = randomAlphabet[int(b)%len(randomAlphabet)]
	}

	return string(buf)
}
