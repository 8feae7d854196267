package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidIdentity = errors.New("identity must be a numeric id or an @username")

// Identity names an operator either by numeric chat id or by @handle.
// Numeric records whether the value was stored as a JSON number so that a
// document keeps its shape across a load/save cycle.
type Identity struct {
	Value   string
	Numeric bool
}

func NumericIdentity(id int64) Identity {
	return Identity{Value: strconv.FormatInt(id, 10), Numeric: true}
}

// ParseIdentity accepts "@handle" verbatim or an integer id.
func ParseIdentity(text string) (Identity, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "@") && len(text) > 1 {
		return Identity{Value: text}, nil
	}
	id, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return Identity{}, ErrInvalidIdentity
	}
	return NumericIdentity(id), nil
}

func (i Identity) String() string {
	return i.Value
}

func (i Identity) IsZero() bool {
	return i.Value == ""
}

// ChatID returns the numeric id when the identity has one.
func (i Identity) ChatID() (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(i.Value), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (i Identity) handle() string {
	v := strings.TrimSpace(i.Value)
	if !strings.HasPrefix(v, "@") {
		return ""
	}
	return strings.ToLower(v[1:])
}

// Equal treats 123 and "123" as the same identity and compares handles case-insensitively.
func (i Identity) Equal(other Identity) bool {
	if a, ok := i.ChatID(); ok {
		b, ok := other.ChatID()
		return ok && a == b
	}
	h := i.handle()
	return h != "" && h == other.handle()
}

// Matches reports whether the identity refers to the caller.
func (i Identity) Matches(caller Caller) bool {
	if id, ok := i.ChatID(); ok {
		return id == caller.ID
	}
	h := i.handle()
	return h != "" && caller.Username != "" && h == strings.ToLower(caller.Username)
}

// Chat resolves the identity to a chat address for direct messages.
func (i Identity) Chat() ChatRef {
	if id, ok := i.ChatID(); ok {
		return ChatRef{ID: id}
	}
	return ChatRef{Username: i.Value}
}

func (i Identity) MarshalJSON() ([]byte, error) {
	if i.Numeric {
		if id, ok := i.ChatID(); ok {
			return []byte(strconv.FormatInt(id, 10)), nil
		}
	}
	return json.Marshal(i.Value)
}

func (i *Identity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*i = Identity{Value: s}
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return ErrInvalidIdentity
	}
	id, err := n.Int64()
	if err != nil {
		return ErrInvalidIdentity
	}
	*i = NumericIdentity(id)
	return nil
}
