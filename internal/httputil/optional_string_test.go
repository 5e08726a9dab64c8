package httputil

import (
	"encoding/json"
	"testing"
)

func TestOptionalStringUnmarshal(t *testing.T) {
	type payload struct {
		FolderID OptionalString `json:"folder_id"`
	}

	tests := []struct {
		name        string
		body        string
		wantPresent bool
		wantValue   *string
	}{
		{name: "absent field", body: `{}`, wantPresent: false, wantValue: nil},
		{name: "explicit null", body: `{"folder_id": null}`, wantPresent: true, wantValue: nil},
		{name: "empty string", body: `{"folder_id": ""}`, wantPresent: true, wantValue: strPtr("")},
		{name: "value", body: `{"folder_id": "folder-1"}`, wantPresent: true, wantValue: strPtr("folder-1")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p payload
			if err := json.Unmarshal([]byte(tt.body), &p); err != nil {
				t.Fatalf("Unmarshal(%s) error = %v", tt.body, err)
			}

			if p.FolderID.Present != tt.wantPresent {
				t.Errorf("Present = %v, want %v", p.FolderID.Present, tt.wantPresent)
			}
			switch {
			case tt.wantValue == nil && p.FolderID.Value != nil:
				t.Errorf("Value = %q, want nil", *p.FolderID.Value)
			case tt.wantValue != nil && p.FolderID.Value == nil:
				t.Errorf("Value = nil, want %q", *tt.wantValue)
			case tt.wantValue != nil && *p.FolderID.Value != *tt.wantValue:
				t.Errorf("Value = %q, want %q", *p.FolderID.Value, *tt.wantValue)
			}
		})
	}
}

func TestOptionalStringRejectsNonString(t *testing.T) {
	var o OptionalString
	if err := json.Unmarshal([]byte(`42`), &o); err == nil {
		t.Error("expected an error for a non-string value")
	}
}

func strPtr(s string) *string { return &s }
