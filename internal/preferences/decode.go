package preferences

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// keyAliases maps other spellings of stored keys to the decoded ones. The
// lower-case forms are what viper leaves of camelCase config keys.
var keyAliases = map[string]string{
	"selectedRegion": "selected_region",
	"selectedregion": "selected_region",
	"minSalary":      "min_salary",
	"minsalary":      "min_salary",
}

// Decode converts a stored preferences row into Preferences. Numbers stored
// as strings are accepted and a blank min_salary stays unset. Both snake_case
// and camelCase keys are understood.
func Decode(row any) (*Preferences, error) {
	var prefs Preferences

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &prefs,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook: func(from, to reflect.Type, data any) (any, error) {
			if from.Kind() == reflect.String && to.Kind() == reflect.Ptr && strings.TrimSpace(data.(string)) == "" {
				return nil, nil
			}
			return data, nil
		},
	})
	if err != nil {
		return nil, fmt.Errorf("creating preferences decoder: %w", err)
	}

	if err := decoder.Decode(canonicalKeys(row)); err != nil {
		return nil, fmt.Errorf("decoding preferences: %w", err)
	}

	return &prefs, nil
}

// canonicalKeys returns a copy of a map row with aliased keys renamed.
// A key already in canonical form wins over its alias.
func canonicalKeys(row any) any {
	m, ok := row.(map[string]any)
	if !ok {
		return row
	}

	out := make(map[string]any, len(m))
	for k, v := range m {
		if _, aliased := keyAliases[k]; !aliased {
			out[k] = v
		}
	}
	for alias, key := range keyAliases {
		v, ok := m[alias]
		if !ok {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = v
		}
	}
	return out
}
