package server

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

type cursorPayload struct {
	BeforeID int64 `json:"before_id"`
}

func encodeCursor(beforeID int64) (string, error) {
	raw, err := json.Marshal(cursorPayload{BeforeID: beforeID})
	if err != nil {
		return "", fmt.Errorf("marshal cursor: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

func decodeCursor(token string) (int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("decode cursor: %w", err)
	}

	var cur cursorPayload
	if err := json.Unmarshal(raw, &cur); err != nil {
		return 0, fmt.Errorf("unmarshal cursor: %w", err)
	}
	if cur.BeforeID <= 0 {
		return 0, errors.New("invalid cursor payload")
	}
	return cur.BeforeID, nil
}
