package derive

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// escape recovery is bounded: upstream round-trips the payload through at
// most three storage layers, each of which may JSON-encode it once more.
const maxEscapeDepth = 3

var escapeReplacer = strings.NewReplacer(`\\`, `\`, `\"`, `"`)

// ParseAdditionalData decodes the free-form additional_data payload. The
// field may arrive as a native JSON object, as a JSON string containing
// JSON, or as a string escaped up to three times. Returns an empty map
// for anything unrecoverable; it never returns an error to the caller.
func ParseAdditionalData(raw json.RawMessage, logger *zap.Logger) map[string]interface{} {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]interface{}{}
	}

	candidate := trimmed
	for depth := 0; depth <= maxEscapeDepth; depth++ {
		var obj map[string]interface{}
		if err := json.Unmarshal(candidate, &obj); err == nil {
			return obj
		}

		// Not an object; if it is a JSON string, unwrap one encoding
		// level and try again.
		var inner string
		if err := json.Unmarshal(candidate, &inner); err != nil {
			break
		}
		candidate = []byte(inner)
	}

	// The payload is no longer valid JSON at any nesting level. Try to
	// repair broken escaping before giving up.
	text := strings.Trim(string(candidate), `"`)

	var obj map[string]interface{}
	if err := json.Unmarshal([]byte(escapeReplacer.Replace(text)), &obj); err == nil {
		return obj
	}
	if repaired, err := strconv.Unquote(`"` + strings.ReplaceAll(text, `"`, `\"`) + `"`); err == nil {
		if err := json.Unmarshal([]byte(escapeReplacer.Replace(repaired)), &obj); err == nil {
			return obj
		}
	}

	logger.Warn("unparseable additional_data payload, treating as empty",
		zap.Int("length", len(raw)),
	)
	return map[string]interface{}{}
}

// stringField reads a string-valued key out of a parsed additional_data
// map, tolerating absent keys and non-string values.
func stringField(data map[string]interface{}, key string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
