package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Ref points at an entity owned elsewhere. It is either unresolved (only the
// id is known) or resolved (the full entity has been loaded). The id is always
// available, so matching never depends on whether the entity was populated.
//
// JSON: an unresolved ref encodes as the bare id, a resolved ref as the
// entity object.
type Ref[T any] struct {
	id     uint64
	entity *T
}

// Unresolved returns a ref carrying only an id.
func Unresolved[T any](id uint64) Ref[T] {
	return Ref[T]{id: id}
}

// Resolved returns a ref carrying the loaded entity.
func Resolved[T any](id uint64, entity *T) Ref[T] {
	return Ref[T]{id: id, entity: entity}
}

// RefID returns the referenced id, resolved or not.
func (r Ref[T]) RefID() uint64 { return r.id }

// Entity narrows the ref to its loaded entity.
func (r Ref[T]) Entity() (*T, bool) {
	return r.entity, r.entity != nil
}

func (r Ref[T]) IsResolved() bool { return r.entity != nil }

// Unresolve drops the loaded entity, keeping the id.
func (r Ref[T]) Unresolve() Ref[T] { return Ref[T]{id: r.id} }

func (r Ref[T]) MarshalJSON() ([]byte, error) {
	if r.entity != nil {
		return json.Marshal(r.entity)
	}
	return json.Marshal(r.id)
}

func (r *Ref[T]) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = Ref[T]{}
		return nil
	}
	if b[0] != '{' {
		var id uint64
		if err := json.Unmarshal(b, &id); err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		*r = Ref[T]{id: id}
		return nil
	}
	var head struct {
		ID uint64 `json:"id"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return fmt.Errorf("ref: %w", err)
	}
	entity := new(T)
	if err := json.Unmarshal(b, entity); err != nil {
		return fmt.Errorf("ref: %w", err)
	}
	*r = Ref[T]{id: head.ID, entity: entity}
	return nil
}

type (
	ItemRef    = Ref[Item]
	BranchRef  = Ref[Branch]
	CompanyRef = Ref[Company]
)
