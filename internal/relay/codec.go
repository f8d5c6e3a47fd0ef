package relay

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrUnknownType is returned for envelopes with an unrecognized type tag.
	ErrUnknownType = errors.New("relay: unknown message type")
	// ErrMalformed is returned for input that is not a valid envelope.
	ErrMalformed = errors.New("relay: malformed message")
)

// Encode renders m as a flat JSON object with a "type" field.
func Encode(m Message) ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("%w: nil message", ErrMalformed)
	}
	body, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("relay: encode %s: %w", m.Type(), err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, fmt.Errorf("relay: encode %s: %w", m.Type(), err)
	}
	tag, _ := json.Marshal(m.Type())
	fields["type"] = tag

	return json.Marshal(fields)
}

// PeekType returns the "type" tag of a JSON object without decoding the rest.
func PeekType(b []byte) (string, error) {
	if len(b) == 0 {
		return "", fmt.Errorf("%w: empty input", ErrMalformed)
	}
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if head.Type == "" {
		return "", fmt.Errorf("%w: missing type", ErrMalformed)
	}
	return head.Type, nil
}

// Decode parses a lifecycle message.
func Decode(b []byte) (Message, error) {
	t, err := PeekType(b)
	if err != nil {
		return nil, err
	}

	switch t {
	case TypeReady:
		return Ready{}, nil
	case TypeRestartAck:
		return RestartAck{}, nil
	case TypeRestartRequest:
		return RestartRequest{}, nil
	case TypeError:
		return decodeAs[Error](t, b)
	case TypeGameOver:
		return decodeAs[GameOver](t, b)
	case TypeSoundEffect:
		m, err := decodeAs[SoundEffect](t, b)
		if err != nil {
			return nil, err
		}
		if m.(SoundEffect).Name == "" {
			return nil, fmt.Errorf("%w: %s without name", ErrMalformed, t)
		}
		return m, nil
	case TypeSubmitScore:
		return decodeAs[SubmitScore](t, b)
	case TypeHighScore:
		return decodeAs[HighScore](t, b)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}
}

func decodeAs[T Message](t string, b []byte) (Message, error) {
	var out T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, t, err)
	}
	return out, nil
}
