package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestItemJSON_ModifiedTime(t *testing.T) {
	tests := []struct {
		name     string
		item     Item
		wantTime bool
	}{
		{"known time is sent", Item{ID: "a", Name: "x", ModifiedTime: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)}, true},
		{"unknown time is omitted", Item{ID: "a", Name: "x"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.item)
			if err != nil {
				t.Fatal(err)
			}
			if got := strings.Contains(string(data), `"modifiedTime"`); got != tt.wantTime {
				t.Errorf("modifiedTime present = %v, want %v: %s", got, tt.wantTime, data)
			}
			if strings.Contains(string(data), "0001-01-01") {
				t.Errorf("zero time leaked onto the wire: %s", data)
			}
		})
	}
}

func TestParseContentType(t *testing.T) {
	tests := []struct {
		in      string
		want    ContentType
		wantErr bool
	}{
		{"", Folders, false},
		{"folders", Folders, false},
		{"files", Files, false},
		{"Files", "", true},
	}
	for _, tt := range tests {
		got, err := ParseContentType(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseContentType(%q) = %q, %v", tt.in, got, err)
		}
	}
}
