package embedder

import (
	"encoding/base64"
	"errors"
	"strings"
)

// DecodeImagePayload decodes an image submitted by a browser. Payloads arrive
// either as a plain base64 string or as a data URL ("data:image/jpeg;base64,...").
func DecodeImagePayload(payload string) ([]byte, error) {
	if payload == "" {
		return nil, errors.New("empty image payload")
	}

	encoded := payload
	if idx := strings.Index(payload, ","); idx != -1 && strings.HasPrefix(payload, "data:") {
		encoded = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.New("invalid base64 image payload")
	}
	if len(data) == 0 {
		return nil, errors.New("empty image payload")
	}
	return data, nil
}
