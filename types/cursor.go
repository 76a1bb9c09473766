/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidCursor is returned when a signed cursor token fails verification
// or is structurally broken. Plain tokens never produce it; they degrade to
// "no cursor" instead.
var ErrInvalidCursor = errors.New("invalid cursor token")

// Cursor anchors a keyset pagination window on the last-seen row. TiebreakID
// is always the entity id; rows sharing the same sort value are ordered by it.
// Values are carried as strings so tokens round-trip exactly.
type Cursor struct {
	SortField  string    `json:"f"`
	SortOrder  SortOrder `json:"o"`
	SortValue  string    `json:"v"`
	TiebreakID string    `json:"id"`
}

// CursorCodec encodes cursors into opaque client-carried tokens and back.
// Decode returns (nil, nil) for an absent token, which means "first page".
type CursorCodec interface {
	Encode(c Cursor) (string, error)
	Decode(token string) (*Cursor, error)
}

// PlainCursorCodec encodes cursors as unsigned base64 JSON. Malformed tokens
// degrade gracefully to a nil cursor rather than failing the request.
type PlainCursorCodec struct{}

func (PlainCursorCodec) Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(data), nil
}

func (PlainCursorCodec) Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, nil
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, nil
	}
	if c.SortField == "" || c.TiebreakID == "" {
		return nil, nil
	}
	return &c, nil
}

// SignedCursorCodec encodes cursors as "payload.signature" where the
// signature is an HMAC-SHA256 over the encoded payload. A token whose
// signature does not verify is rejected outright, so clients cannot fabricate
// or tamper with a jump target.
type SignedCursorCodec struct {
	key []byte
}

// NewSignedCursorCodec creates a codec signing tokens with the given secret.
func NewSignedCursorCodec(secret []byte) *SignedCursorCodec {
	return &SignedCursorCodec{key: secret}
}

func (s *SignedCursorCodec) Encode(c Cursor) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	payload := base64.RawURLEncoding.EncodeToString(data)
	return payload + "." + s.sign(payload), nil
}

func (s *SignedCursorCodec) Decode(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	payload, signature, found := strings.Cut(token, ".")
	if !found {
		return nil, ErrInvalidCursor
	}
	if !hmac.Equal([]byte(s.sign(payload)), []byte(signature)) {
		return nil, ErrInvalidCursor
	}
	data, err := base64.RawURLEncoding.DecodeString(payload)
	if err != nil {
		return nil, ErrInvalidCursor
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, ErrInvalidCursor
	}
	if c.SortField == "" || c.TiebreakID == "" {
		return nil, ErrInvalidCursor
	}
	return &c, nil
}

func (s *SignedCursorCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(payload))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// FormatSortValue renders a row value into the string form carried inside a
// cursor token. Time values use RFC3339Nano in UTC so equal instants format
// identically regardless of the row's zone.
func FormatSortValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case time.Time:
		return t.UTC().Format(time.RFC3339Nano)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseSortValue recovers a SQL-comparable value from its token string form.
// The sortable columns of this layer are timestamps, numerics, and text;
// anything that parses as neither a time nor a number stays a string.
func ParseSortValue(s string) any {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
