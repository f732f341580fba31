package model

import (
	"encoding/json"
	"errors"
)

var errInvalidPayload = errors.New("invalid stored investigation payload")

// EncodeInvestigation serialises an investigation for the key-value store.
func EncodeInvestigation(inv *Investigation) (string, error) {
	b, err := json.Marshal(inv)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeInvestigation parses a stored investigation. Callers treat an error
// as "absent" rather than propagating it; stored state is best-effort.
func DecodeInvestigation(raw string) (*Investigation, error) {
	var inv Investigation
	if err := json.Unmarshal([]byte(raw), &inv); err != nil {
		return nil, err
	}
	if inv.ID == "" {
		return nil, errInvalidPayload
	}
	return &inv, nil
}

// EncodeHistory serialises the history sequence.
func EncodeHistory(history []Investigation) (string, error) {
	b, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// DecodeHistory parses a stored history sequence, same contract as
// DecodeInvestigation.
func DecodeHistory(raw string) ([]Investigation, error) {
	var history []Investigation
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, err
	}
	return history, nil
}
