package activity

import (
	json "github.com/goccy/go-json"
)

// Codec converts activities to and from their stored payload.
type Codec interface {
	Marshal(act *Activity) ([]byte, error)
	Unmarshal(data []byte) (Activity, error)
}

// JSONCodec stores activities as JSON documents.
type JSONCodec struct{}

func (JSONCodec) Marshal(act *Activity) ([]byte, error) {
	return json.Marshal(act)
}

func (JSONCodec) Unmarshal(data []byte) (Activity, error) {
	var act Activity
	if err := json.Unmarshal(data, &act); err != nil {
		return Activity{}, err
	}
	return act, nil
}
