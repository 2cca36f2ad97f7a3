// FanPulse - Social Fandom Analytics and Trends Collection
// Copyright 2026 FanPulse contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/fanpulse-io/fanpulse

package providers

import (
	"reflect"
	"testing"
)

func TestIndexedObjectToSlice(t *testing.T) {
	tests := []struct {
		name string
		in   map[string]any
		want []map[string]any
	}{
		{
			name: "ordered by numeric key",
			in: map[string]any{
				"2": map[string]any{"id": "c"},
				"0": map[string]any{"id": "a"},
				"1": map[string]any{"id": "b"},
			},
			want: []map[string]any{{"id": "a"}, {"id": "b"}, {"id": "c"}},
		},
		{
			name: "non-numeric keys discarded",
			in: map[string]any{
				"0":      map[string]any{"id": "a"},
				"cursor": "abc123",
				"status": map[string]any{"ok": true},
			},
			want: []map[string]any{{"id": "a"}},
		},
		{
			name: "sparse indices keep numeric order",
			in: map[string]any{
				"10": map[string]any{"id": "late"},
				"2":  map[string]any{"id": "early"},
			},
			want: []map[string]any{{"id": "early"}, {"id": "late"}},
		},
		{name: "empty object", in: map[string]any{}, want: []map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := indexedObjectToSlice(tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("indexedObjectToSlice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDecodeItems(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantIDs []string
		wantErr bool
	}{
		{
			name:    "bare array",
			body:    `[{"id":"a"},{"id":"b"}]`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "array under data key",
			body:    `{"data":[{"id":"a"}]}`,
			wantIDs: []string{"a"},
		},
		{
			name:    "indexed object under data key",
			body:    `{"data":{"1":{"id":"b"},"0":{"id":"a"},"paging":{"next":"x"}}}`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "indexed object at root",
			body:    `{"0":{"id":"a"},"1":{"id":"b"}}`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "items wrapper",
			body:    `{"items":[{"id":"x"}]}`,
			wantIDs: []string{"x"},
		},
		{
			name:    "wrapper with no collection",
			body:    `{"message":"no results"}`,
			wantIDs: nil,
		},
		{name: "malformed json", body: `{"data":`, wantErr: true},
		{name: "scalar root", body: `42`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeItems([]byte(tt.body))
			if (err != nil) != tt.wantErr {
				t.Fatalf("decodeItems() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			var ids []string
			for _, m := range got {
				if id, ok := m["id"].(string); ok {
					ids = append(ids, id)
				}
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("decoded ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}
