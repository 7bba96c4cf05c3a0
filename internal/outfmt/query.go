package outfmt

import (
	"encoding/json"

	"github.com/larkkit/lark-cli/internal/filter"
)

// Filter normalizes v and runs o.Query over it with o.Args bound. Without a
// query the normalized value comes back as plain JSON values.
func Filter(v any, o Options) (any, error) {
	plain, err := plainJSON(normalizeJSONOutput(v))
	if err != nil {
		return nil, err
	}
	if o.Query == "" {
		return plain, nil
	}
	return filter.ApplyArgs(plain, o.Query, o.Args)
}

// plainJSON converts typed values (structs, raw messages) into the maps and
// slices jq and templates expect.
func plainJSON(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
