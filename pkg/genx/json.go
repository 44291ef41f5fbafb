package genx

import (
	"encoding/json"

	"github.com/kaptinlin/jsonrepair"
)

// unmarshalJSON unmarshals JSON data into v. Models occasionally emit
// slightly broken JSON for tool arguments; on a syntax error the input is
// repaired with jsonrepair and decoded again.
func unmarshalJSON(data []byte, v any) error {
	err := json.Unmarshal(data, v)
	if err == nil {
		return nil
	}
	if _, ok := err.(*json.SyntaxError); ok {
		fixed, err := jsonrepair.JSONRepair(string(data))
		if err != nil {
			return err
		}
		return json.Unmarshal([]byte(fixed), v)
	}
	return err
}

func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeArgs decodes a JSON object of tool arguments. Empty input yields an
// empty map.
func DecodeArgs(s string) (map[string]any, error) {
	args := map[string]any{}
	if s == "" {
		return args, nil
	}
	if err := unmarshalJSON([]byte(s), &args); err != nil {
		return nil, err
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}
