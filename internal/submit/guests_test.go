package submit

import "testing"

func TestClassifyGuest(t *testing.T) {
	tests := []struct {
		in        string
		wantName  string
		wantPhone string
		ok        bool
	}{
		{"+61 412 345 678", "Guest", "+61 412 345 678", true},
		{"(02) 9876-5432", "Guest", "(02) 9876-5432", true},
		{"0412345678", "Guest", "0412345678", true},
		{"John Smith", "John Smith", "", true},
		{"  Sam  ", "Sam", "", true},
		{"call 0412", "call 0412", "", true},
		{"   ", "", "", false},
	}
	for _, tt := range tests {
		row, ok := ClassifyGuest(tt.in)
		if ok != tt.ok {
			t.Errorf("ClassifyGuest(%q) ok = %v", tt.in, ok)
			continue
		}
		if !ok {
			continue
		}
		if row.Name != tt.wantName {
			t.Errorf("ClassifyGuest(%q).Name = %q, want %q", tt.in, row.Name, tt.wantName)
		}
		gotPhone := ""
		if row.Phone != nil {
			gotPhone = *row.Phone
		}
		if gotPhone != tt.wantPhone {
			t.Errorf("ClassifyGuest(%q).Phone = %q, want %q", tt.in, gotPhone, tt.wantPhone)
		}
	}
}

func TestGuestRowsSkipsBlanks(t *testing.T) {
	rows := GuestRows([]string{"Ann", "", "  ", "+1 555"})
	if len(rows) != 2 {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestProgressTerminal(t *testing.T) {
	if !ProgressComplete.Terminal() || !ProgressError.Terminal() || ProgressCreating.Terminal() {
		t.Error("Terminal() mismatch")
	}
}

func TestTrackerAbsorbsError(t *testing.T) {
	var seen []Progress
	tr := newTracker(func(p Progress) { seen = append(seen, p) })
	tr.set(ProgressConnecting)
	tr.set(ProgressError)
	tr.set(ProgressComplete)
	if tr.get() != ProgressError || len(seen) != 2 {
		t.Errorf("current = %s, seen = %v", tr.get(), seen)
	}
}
