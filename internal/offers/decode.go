package offers

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Decode converts raw backend rows into offers. Rows are decoded with weak
// typing since exports often carry numbers and booleans as strings.
func Decode(rows any) ([]*Offer, error) {
	var items []*Offer

	cfg := &mapstructure.DecoderConfig{
		Result:           &items,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
		DecodeHook:       emptyStringToNil,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating offers decoder: %w", err)
	}

	if err := decoder.Decode(rows); err != nil {
		return nil, fmt.Errorf("decoding offers: %w", err)
	}

	return items, nil
}

// LoadFromFile reads offers from a JSON file holding either an array of rows
// or an object with an "items" array.
func LoadFromFile(path string) (*Offers, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading offers file: %w", err)
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing offers file %q: %w", path, err)
	}

	rows := raw
	if obj, ok := raw.(map[string]any); ok {
		items, found := obj["items"]
		if !found {
			return nil, fmt.Errorf("offers file %q: expected an array or an object with items", path)
		}
		rows = items
	}

	items, err := Decode(rows)
	if err != nil {
		return nil, fmt.Errorf("offers file %q: %w", path, err)
	}

	return &Offers{Items: items}, nil
}

// emptyStringToNil turns blank strings into nil for pointer targets, so an
// empty salary stays unset instead of becoming zero.
func emptyStringToNil(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Ptr {
		return data, nil
	}
	if s, ok := data.(string); ok && strings.TrimSpace(s) == "" {
		return nil, nil
	}
	return data, nil
}
