package repository

import "encoding/json"

// jsonb column helpers. Empty maps are stored as SQL NULL, NULL scans back
// as an empty map.

func marshalMap(m map[string]string) (interface{}, error) {
	if len(m) == 0 {
		return nil, nil
	}
	return json.Marshal(m)
}

func unmarshalMap(data []byte) map[string]string {
	if len(data) == 0 {
		return nil
	}
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return m
}
