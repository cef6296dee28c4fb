package commands

import (
	"strings"

	hvmerrors "github.com/systmms/helm-values-manager/internal/errors"
)

// parseKeyValues parses repeated key=value flags into a generic map.
func parseKeyValues(pairs []string, flag string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, hvmerrors.UserError{
				Message:    "invalid " + flag + " value: " + pair,
				Suggestion: "Pass configuration as " + flag + " key=value",
			}
		}
		out[key] = value
	}
	return out, nil
}

// parseKeyValueStrings is parseKeyValues for string-valued maps.
func parseKeyValueStrings(pairs []string, flag string) (map[string]string, error) {
	parsed, err := parseKeyValues(pairs, flag)
	if err != nil || parsed == nil {
		return nil, err
	}
	out := make(map[string]string, len(parsed))
	for k, v := range parsed {
		out[k] = v.(string)
	}
	return out, nil
}
