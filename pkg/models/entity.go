package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"instapi/pkg/wire"
)

// PK is a remote primary key. The remote sends it either as a number or as
// a decimal string depending on the endpoint.
type PK int64

func (p *PK) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return fmt.Errorf("pk %q: %w", s, err)
		}
		*p = PK(n)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("pk %s: %w", data, err)
	}
	*p = PK(n)
	return nil
}

// Entity is the identity shared by every remote object. Equality and hashing
// consider the primary key only.
type Entity struct {
	PK PK `json:"pk"`
}

// ID returns the primary key.
func (e Entity) ID() int64 {
	return int64(e.PK)
}

// Key is the value to use when entities are stored in maps or sets.
func (e Entity) Key() int64 {
	return int64(e.PK)
}

// SameAs reports whether two entities share a primary key.
func (e Entity) SameAs(other Identified) bool {
	return other != nil && e.ID() == other.ID()
}

// Identified is implemented by every entity.
type Identified interface {
	ID() int64
}

// EntitySchema is the root schema every entity extends.
var EntitySchema = wire.NewSchema("Entity", wire.Required("pk"))

// Fields lists the wire keys an entity type owns, inherited ones included.
func Fields(s wire.Schema) []string {
	return s.Fields()
}

// decodeValue converts one loosely-typed wire value into T.
func decodeValue[T any](v any) (T, error) {
	var out T
	raw, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(raw, &out)
	return out, err
}

// StringID is an identifier the remote sends either as a string or as a
// number too large for float64, such as thread and item ids.
type StringID string

func (s *StringID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*s = StringID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id %s: %w", data, err)
	}
	*s = StringID(n.String())
	return nil
}

// Timestamp is a remote timestamp in microseconds since the epoch.
type Timestamp int64

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var p PK
	if err := p.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = Timestamp(p)
	return nil
}

// Time converts the timestamp to a time.Time.
func (t Timestamp) Time() time.Time {
	return time.UnixMicro(int64(t))
}
