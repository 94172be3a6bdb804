package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestNewReason(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		category ReasonCategory
		duration int64
		wantErr  error
		wantName string
	}{
		{
			name:     "normalizes case and whitespace",
			input:    "  Spam ",
			category: ReasonCategoryBan,
			duration: 3600,
			wantName: "spam",
		},
		{
			name:     "permanent reason",
			input:    "cheating",
			category: ReasonCategoryBan,
			duration: 0,
			wantName: "cheating",
		},
		{
			name:     "blank name",
			input:    "   ",
			category: ReasonCategoryBan,
			wantErr:  ErrInvalidReasonName,
		},
		{
			name:     "unknown category",
			input:    "spam",
			category: ReasonCategory("WARN"),
			wantErr:  ErrInvalidReasonCategory,
		},
		{
			name:     "negative duration",
			input:    "spam",
			category: ReasonCategoryMute,
			duration: -1,
			wantErr:  ErrInvalidDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewReason(tt.input, tt.category, tt.duration)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("NewReason() error = %v, want %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if r.Name != tt.wantName {
				t.Errorf("expected name %q, got %q", tt.wantName, r.Name)
			}
		})
	}
}

func TestReason_Permanent(t *testing.T) {
	r := &Reason{Name: "cheating", Category: ReasonCategoryBan, DurationSeconds: 0}
	if !r.Permanent() {
		t.Error("zero duration should be permanent")
	}

	r.DurationSeconds = 600
	if r.Permanent() {
		t.Error("non-zero duration should not be permanent")
	}
}

func TestUnknownReasonsError_ListsAllNames(t *testing.T) {
	err := &UnknownReasonsError{Names: []string{"unknown1", "unknown2"}}
	msg := err.Error()
	for _, name := range err.Names {
		if !strings.Contains(msg, name) {
			t.Errorf("error message %q missing %q", msg, name)
		}
	}
}
