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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlainCursorCodecRoundTrip(t *testing.T) {
	codec := PlainCursorCodec{}
	in := Cursor{SortField: "created_at", SortOrder: OrderDesc, SortValue: "2025-01-02T03:04:05Z", TiebreakID: "42"}

	token, err := codec.Encode(in)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	out, err := codec.Decode(token)
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.Equal(t, in, *out)
}

func TestPlainCursorCodecDegradesGracefully(t *testing.T) {
	codec := PlainCursorCodec{}

	for name, token := range map[string]string{
		"empty":          "",
		"not base64":     "%%%",
		"not json":       "bm90LWpzb24",
		"missing fields": "e30",
	} {
		t.Run(name, func(t *testing.T) {
			out, err := codec.Decode(token)
			assert.NoError(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestSignedCursorCodecRejectsTampering(t *testing.T) {
	codec := NewSignedCursorCodec([]byte("test-secret"))
	in := Cursor{SortField: "id", SortOrder: OrderAsc, SortValue: "7", TiebreakID: "7"}

	token, err := codec.Encode(in)
	require.NoError(t, err)
	require.Contains(t, token, ".")

	out, err := codec.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, in, *out)

	payload, _, ok := strings.Cut(token, ".")
	require.True(t, ok)

	for name, bad := range map[string]string{
		"no signature":    payload,
		"wrong signature": payload + ".AAAA",
		"other key": func() string {
			other, _ := NewSignedCursorCodec([]byte("another-secret")).Encode(in)
			p, _, _ := strings.Cut(other, ".")
			_, sig, _ := strings.Cut(token, ".")
			return p + "x." + sig
		}(),
	} {
		t.Run(name, func(t *testing.T) {
			out, err := codec.Decode(bad)
			assert.ErrorIs(t, err, ErrInvalidCursor)
			assert.Nil(t, out)
		})
	}
}

func TestSignedCursorCodecEmptyTokenMeansFirstPage(t *testing.T) {
	codec := NewSignedCursorCodec([]byte("test-secret"))
	out, err := codec.Decode("")
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestSortValueRoundTrip(t *testing.T) {
	instant := time.Date(2025, 1, 2, 3, 4, 5, 600000000, time.UTC)

	assert.Equal(t, instant, ParseSortValue(FormatSortValue(instant)))
	assert.Equal(t, int64(42), ParseSortValue(FormatSortValue(int64(42))))
	assert.Equal(t, 3.5, ParseSortValue(FormatSortValue(3.5)))
	assert.Equal(t, "alice", ParseSortValue(FormatSortValue("alice")))
	assert.Equal(t, "", FormatSortValue(nil))
}

func TestFormatSortValueNormalizesZone(t *testing.T) {
	zone := time.FixedZone("UTC+8", 8*3600)
	local := time.Date(2025, 1, 2, 11, 0, 0, 0, zone)
	utc := local.UTC()
	assert.Equal(t, FormatSortValue(utc), FormatSortValue(local))
}
