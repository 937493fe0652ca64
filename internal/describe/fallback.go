package describe

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/arosenfeld2003/lockstep/internal/template"
)

// venueKeywords mark a location as a specific place ("at"), as opposed to a
// town or region ("in").
var venueKeywords = []string{
	"hotel", "resort", "restaurant", "bar", "pub", "club", "hall", "venue",
	"lodge", "winery", "brewery", "estate", "house", "cafe", "garden",
	"chapel", "church", "manor", "spa", "beach", "park", "home", "room",
}

// IsVenue reports whether location names a venue.
func IsVenue(location string) bool {
	lower := strings.ToLower(location)
	for _, kw := range venueKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// LocationPhrase returns " at <loc>" for venues, " in <loc>" for places,
// and "" for a blank location.
func LocationPhrase(location string) string {
	location = strings.TrimSpace(location)
	if location == "" {
		return ""
	}
	if IsVenue(location) {
		return " at " + location
	}
	return " in " + location
}

// Placeholders: {host} is the possessive host name, {loc} the location
// phrase.
var fallbacks = map[template.ID][]string{
	template.IDWedding: {
		"Join us as we celebrate {host} wedding{loc}. Expect love, laughter and a dance floor that never empties.",
		"{host} big day is almost here! Come celebrate the happy couple{loc} with good food, great company and plenty of toasts.",
		"You're invited to {host} wedding{loc}. Dust off your dancing shoes and get ready for a day to remember.",
	},
	template.IDBucks: {
		"It's time to send off the groom in style. {host} bucks weekend{loc} is locked in, so clear your calendar.",
		"Legends only. Join the crew for {host} bucks weekend{loc}, with questionable decisions and great stories guaranteed.",
		"One last hurrah before the big day. {host} bucks{loc} is going to be one for the ages.",
	},
	template.IDHens: {
		"Grab your glitter! We're celebrating the bride-to-be at {host} hens party{loc}.",
		"Bubbles, laughs and a few surprises. Join us for {host} hens{loc} and help make it unforgettable.",
		"The countdown is on! {host} hens party{loc} is the celebration of the year.",
	},
	template.IDBirthday: {
		"Another trip around the sun! Come celebrate {host} birthday{loc}.",
		"Cake, candles and good company. You're invited to {host} birthday{loc}.",
		"It's party time. Help us make {host} birthday{loc} one to remember.",
	},
	template.IDTrip: {
		"Bags packed, passports ready. {host} trip{loc} is happening and you're on the list.",
		"Adventure awaits! Join the crew for {host} trip{loc}.",
		"Sun, sights and the best company. Don't miss {host} trip{loc}.",
	},
	template.IDReunion: {
		"It's been too long! The old crew is getting back together for {host} reunion{loc}.",
		"Same faces, new stories. Join us for {host} reunion{loc}.",
		"Time to catch up properly. You're invited to {host} reunion{loc}.",
	},
	template.IDDinner: {
		"Pull up a chair. {host} dinner party{loc} promises great food and even better conversation.",
		"An evening of good food and good friends. Join us for {host} dinner party{loc}.",
		"The table is set. You're invited to {host} dinner party{loc}.",
	},
	template.IDCustom: {
		"You're invited! Join us for {host} event{loc}.",
		"Save the date for {host} event{loc}. We'd love to see you there.",
		"Something special is happening{loc} and {host} guest list wouldn't be complete without you.",
	},
}

// Fallback returns a canned description for the event type. pick chooses
// among the variants and must return a number in [0, n).
func Fallback(id template.ID, host, location string, pick func(n int) int) string {
	options, ok := fallbacks[id]
	if !ok {
		options = fallbacks[template.IDCustom]
	}
	i := 0
	if pick != nil && len(options) > 1 {
		i = pick(len(options))
		if i < 0 || i >= len(options) {
			i = 0
		}
	}

	host = strings.TrimSpace(host)
	name := "the"
	if host != "" {
		name = template.MakePossessive(host)
	}
	out := strings.NewReplacer("{host}", name, "{loc}", LocationPhrase(location)).Replace(options[i])
	r, n := utf8.DecodeRuneInString(out)
	return string(unicode.ToUpper(r)) + out[n:]
}
