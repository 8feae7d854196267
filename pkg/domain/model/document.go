package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

var (
	ErrInvalidDocument = errors.New("invalid document structure")
	ErrUnknownDocument = errors.New("unknown document name")
)

const (
	CatalogDocumentName = "products.json"
	RosterDocumentName  = "admins.json"
)

// RosterDocument is the on-disk shape of the roster.
type RosterDocument struct {
	Admins []Operator `json:"admins"`
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidDocument, fmt.Sprintf(format, args...))
}

func decodeLoose(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, invalid("%v", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return nil, invalid("trailing data after document")
	}
	return v, nil
}

// ValidateCatalog accepts a JSON array whose records all carry id, name,
// price and description, with textual id and name and a numeric or
// numeric-string price.
func ValidateCatalog(data []byte) ([]Product, error) {
	v, err := decodeLoose(data)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, invalid("catalog must be an array")
	}

	products := make([]Product, 0, len(items))
	for i, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, invalid("product %d is not an object", i)
		}
		for _, field := range []string{"id", "name", "price", "description"} {
			if _, ok := record[field]; !ok {
				return nil, invalid("product %d has no %q", i, field)
			}
		}
		id, ok := record["id"].(string)
		if !ok {
			return nil, invalid("product %d: id must be a string", i)
		}
		name, ok := record["name"].(string)
		if !ok {
			return nil, invalid("product %d: name must be a string", i)
		}
		price, ok := numeric(record["price"])
		if !ok {
			return nil, invalid("product %d: price is not a number", i)
		}
		p := Product{
			ID:          id,
			Name:        name,
			Price:       price,
			Description: text(record["description"]),
		}
		if photo, ok := record["photo_id"].(string); ok {
			p.PhotoID = photo
		}
		if n, ok := record["message_id"].(json.Number); ok {
			if mid, err := strconv.Atoi(n.String()); err == nil {
				p.MessageID = mid
			}
		}
		products = append(products, p)
	}
	return products, nil
}

// ValidateRoster accepts {"admins": [...]} where every record has user_id
// (number or string), a string role and a permissions list.
func ValidateRoster(data []byte) ([]Operator, error) {
	v, err := decodeLoose(data)
	if err != nil {
		return nil, err
	}
	doc, ok := v.(map[string]any)
	if !ok {
		return nil, invalid("roster must be an object")
	}
	rawAdmins, ok := doc["admins"]
	if !ok {
		return nil, invalid("roster has no \"admins\" key")
	}
	items, ok := rawAdmins.([]any)
	if !ok {
		return nil, invalid("\"admins\" must be an array")
	}

	operators := make([]Operator, 0, len(items))
	for i, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, invalid("operator %d is not an object", i)
		}
		for _, field := range []string{"user_id", "role", "permissions"} {
			if _, ok := record[field]; !ok {
				return nil, invalid("operator %d has no %q", i, field)
			}
		}
		var id Identity
		switch uid := record["user_id"].(type) {
		case string:
			id = Identity{Value: uid}
		case json.Number:
			n, err := uid.Int64()
			if err != nil {
				return nil, invalid("operator %d: user_id must be an integer or a string", i)
			}
			id = NumericIdentity(n)
		default:
			return nil, invalid("operator %d: user_id must be an integer or a string", i)
		}
		role, ok := record["role"].(string)
		if !ok {
			return nil, invalid("operator %d: role must be a string", i)
		}
		rawPerms, ok := record["permissions"].([]any)
		if !ok {
			return nil, invalid("operator %d: permissions must be a list", i)
		}
		perms := make([]Permission, 0, len(rawPerms))
		for _, p := range rawPerms {
			perms = append(perms, Permission(text(p)))
		}
		operators = append(operators, Operator{UserID: id, Role: Role(role), Permissions: perms})
	}
	return operators, nil
}

func numeric(v any) (float64, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	default:
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
