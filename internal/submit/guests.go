package submit

import (
	"regexp"
	"strings"
)

// GuestRow is a guest record ready for insert.
type GuestRow struct {
	Name  string  `json:"name"`
	Phone *string `json:"phone"`
}

// PhoneGuestName is stored for guests entered by phone number.
const PhoneGuestName = "Guest"

var phonePattern = regexp.MustCompile(`^[+\d\s()-]+$`)

// IsPhone reports whether entry looks like a phone number.
func IsPhone(entry string) bool {
	return phonePattern.MatchString(entry)
}

// ClassifyGuest turns a free-text entry into a row. Blank entries are
// rejected.
func ClassifyGuest(entry string) (GuestRow, bool) {
	entry = strings.TrimSpace(entry)
	if entry == "" {
		return GuestRow{}, false
	}
	if IsPhone(entry) {
		phone := entry
		return GuestRow{Name: PhoneGuestName, Phone: &phone}, true
	}
	return GuestRow{Name: entry}, true
}

// GuestRows classifies every entry, skipping blanks.
func GuestRows(entries []string) []GuestRow {
	rows := make([]GuestRow, 0, len(entries))
	for _, e := range entries {
		if row, ok := ClassifyGuest(e); ok {
			rows = append(rows, row)
		}
	}
	return rows
}
