package task

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDecodeList(t *testing.T) {
	t.Run("preserves server order", func(t *testing.T) {
		payload := []byte(`[
			{"id": 3, "title": "Third", "description": null, "completed": true},
			{"id": 1, "title": "First", "description": "", "completed": false},
			{"id": 2, "title": "Second", "description": "details", "completed": false}
		]`)
		tasks, err := DecodeList(payload)
		if err != nil {
			t.Fatalf("DecodeList() error = %v", err)
		}
		wantIDs := []int64{3, 1, 2}
		if len(tasks) != len(wantIDs) {
			t.Fatalf("len(tasks) = %d, want %d", len(tasks), len(wantIDs))
		}
		for i, id := range wantIDs {
			if tasks[i].ID != id {
				t.Errorf("tasks[%d].ID = %d, want %d", i, tasks[i].ID, id)
			}
		}
		if tasks[0].Description != "" {
			t.Errorf("null description decoded as %q, want empty", tasks[0].Description)
		}
		if tasks[2].Description != "details" {
			t.Errorf("tasks[2].Description = %q, want details", tasks[2].Description)
		}
	})

	t.Run("empty array yields non-nil empty slice", func(t *testing.T) {
		tasks, err := DecodeList([]byte(`[]`))
		if err != nil {
			t.Fatalf("DecodeList() error = %v", err)
		}
		if tasks == nil || len(tasks) != 0 {
			t.Errorf("DecodeList([]) = %#v, want empty slice", tasks)
		}
	})

	t.Run("accepts extra fields and zone-less timestamps", func(t *testing.T) {
		payload := []byte(`[{"id": 1, "title": "Buy milk", "description": "", "completed": false,
			"created_at": "2024-05-01T10:00:00.123456", "owner": "ana"}]`)
		tasks, err := DecodeList(payload)
		if err != nil {
			t.Fatalf("DecodeList() error = %v", err)
		}
		if tasks[0].CreatedAt == nil {
			t.Fatal("CreatedAt not decoded")
		}
		want := time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC)
		if !tasks[0].CreatedAt.Equal(want) {
			t.Errorf("CreatedAt = %v, want %v", tasks[0].CreatedAt.Time, want)
		}
	})

	errorCases := []struct {
		name    string
		payload string
		want    string
	}{
		{"empty body", "", "empty"},
		{"not json", "<html>oops</html>", "not valid JSON"},
		{"object instead of array", `{"tasks": []}`, "schema"},
		{"missing title", `[{"id": 1, "completed": false}]`, "schema"},
		{"string id", `[{"id": "1", "title": "x", "completed": false}]`, "[0].id"},
		{"fractional id", `[{"id": 1.5, "title": "x", "completed": false}]`, "[0].id"},
		{"completed as string", `[{"id": 1, "title": "x", "completed": "yes"}]`, "[0].completed"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeList([]byte(tt.payload))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestDraft(t *testing.T) {
	d := Draft{Title: "  Buy milk \n", Description: "\t2 liters "}.Normalize()
	if d.Title != "Buy milk" || d.Description != "2 liters" {
		t.Errorf("Normalize() = %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	for _, title := range []string{"", "   ", "\n\t"} {
		err := Draft{Title: title}.Validate()
		if err == nil {
			t.Errorf("Validate(%q) = nil, want error", title)
			continue
		}
		if !strings.HasPrefix(err.Error(), "title:") {
			t.Errorf("Validate(%q) error = %q, want title path", title, err)
		}
	}
}

func TestCompletionPatchBody(t *testing.T) {
	for _, completed := range []bool{true, false} {
		data, err := json.Marshal(CompletionPatch(completed))
		if err != nil {
			t.Fatal(err)
		}
		want := `{"completed":false}`
		if completed {
			want = `{"completed":true}`
		}
		if string(data) != want {
			t.Errorf("CompletionPatch(%v) = %s, want %s", completed, data, want)
		}
	}
}

func TestPatchApply(t *testing.T) {
	title := "Renamed"
	done := true
	tk := Task{ID: 1, Title: "Old", Description: "keep"}
	Patch{Title: &title, Completed: &done}.Apply(&tk)

	if tk.Title != "Renamed" || !tk.Completed || tk.Description != "keep" {
		t.Errorf("Apply() = %+v", tk)
	}
	if !(Patch{}).Empty() {
		t.Error("zero Patch should be empty")
	}
}

func TestTimestamp(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01T10:00:00.5+02:00", time.Date(2024, 5, 1, 8, 0, 0, 500000000, time.UTC)},
		{"2024-05-01T10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01 10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ts, err := ParseTimestamp(tt.input)
			if err != nil {
				t.Fatalf("ParseTimestamp() error = %v", err)
			}
			if !ts.Equal(tt.want) {
				t.Errorf("ParseTimestamp() = %v, want %v", ts.Time, tt.want)
			}
		})
	}

	if _, err := ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for unrecognized timestamp")
	}

	var zero Timestamp
	if zero.String() != "" {
		t.Errorf("zero Timestamp String() = %q, want empty", zero.String())
	}
}

func TestHasDescription(t *testing.T) {
	cases := map[string]bool{"": false, "   ": false, "x": true}
	for desc, want := range cases {
		tk := Task{Description: desc}
		if got := tk.HasDescription(); got != want {
			t.Errorf("HasDescription(%q) = %v, want %v", desc, got, want)
		}
	}
}
