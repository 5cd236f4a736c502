package store

import (
	"fmt"
	"sort"

	jsoniter "github.com/json-iterator/go"
)

// Format selects how the mapping is serialized into the gist file.
type Format string

const (
	// FormatObject stores a JSON object, e.g. {"key1":"value1"}
	FormatObject Format = "object"
	// FormatEntries stores a JSON array of pairs, e.g. [["key1","value1"]]
	FormatEntries Format = "entries"
)

// keys sorted for stable snapshots, no html escaping to match what browsers write
var codec = jsoniter.Config{
	EscapeHTML:  false,
	SortMapKeys: true,
}.Froze()

// ParseFormat parses a format name, the empty string yields FormatObject.
func ParseFormat(v string) (Format, error) {
	if v == "" {
		return FormatObject, nil
	}
	if f := Format(v); f.valid() {
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (supported: %s, %s)", v, FormatObject, FormatEntries)
}

func (f Format) valid() bool {
	return f == FormatObject || f == FormatEntries
}

// Empty returns the serialization of an empty mapping.
func (f Format) Empty() string {
	if f == FormatEntries {
		return "[]"
	}
	return "{}"
}

// Encode serializes the complete mapping.
func (f Format) Encode(m map[string]string) ([]byte, error) {
	if f == FormatEntries {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([][2]string, 0, len(keys))
		for _, k := range keys {
			entries = append(entries, [2]string{k, m[k]})
		}
		return codec.Marshal(entries)
	}
	if m == nil {
		m = map[string]string{}
	}
	return codec.Marshal(m)
}

// Decode parses stored text. Null values count as absent keys.
func (f Format) Decode(data []byte) (map[string]string, error) {
	ret := map[string]string{}
	if f == FormatEntries {
		var entries [][]*string
		if err := codec.Unmarshal(data, &entries); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParseContent, err)
		}
		if entries == nil {
			return nil, fmt.Errorf("%w: expected an array of entries", ErrParseContent)
		}
		for i, e := range entries {
			if len(e) != 2 || e[0] == nil {
				return nil, fmt.Errorf("%w: entry %d is not a [key, value] pair", ErrParseContent, i)
			}
			if e[1] != nil {
				ret[*e[0]] = *e[1]
			}
		}
		return ret, nil
	}

	var raw map[string]*string
	if err := codec.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParseContent, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrParseContent)
	}
	for k, v := range raw {
		if v != nil {
			ret[k] = *v
		}
	}
	return ret, nil
}
