package template

func resolveTo(r Response) *Response { return &r }

func possessiveTitle(suffix string) func(string) string {
	return func(host string) string {
		return MakePossessive(host) + " " + suffix
	}
}

var order = []ID{
	IDWedding, IDBucks, IDHens, IDBirthday, IDTrip, IDReunion, IDDinner, IDCustom,
}

var dietaryOptions = []string{"None", "Vegetarian", "Vegan", "Gluten free", "Dairy free", "Other"}

var registry = map[ID]*EventTemplate{
	IDWedding: {
		ID:          IDWedding,
		Label:       "Wedding",
		Icon:        "💍",
		Blurb:       "Ceremony, reception and the weekend around it",
		NamePattern: possessiveTitle("Wedding"),
		Blocks: []Block{
			{Name: "Welcome Drinks Evening", DefaultDurationHours: 3},
			{Name: "Ceremony", DefaultDurationHours: 1, AttendanceRequired: true},
			{Name: "Reception Dinner", DefaultDurationHours: 5, AttendanceRequired: true},
			{Name: "Recovery Brunch", DefaultDurationHours: 2},
		},
		Questions: []Question{
			{Type: QuestionSingleSelect, Prompt: "Any dietary requirements?", Options: dietaryOptions, Required: true},
			{Type: QuestionBoolean, Prompt: "Are you bringing a plus one?"},
			{Type: QuestionText, Prompt: "A song that will get you on the dance floor"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -60, Type: CheckpointReminder, Name: "Save the date reminder"},
			{OffsetDays: -30, Type: CheckpointReminder, Name: "RSVP reminder"},
			{OffsetDays: -21, Type: CheckpointDeadline, Name: "RSVP deadline", AutoResolveTo: resolveTo(ResponseOut)},
			{OffsetDays: -7, Type: CheckpointFinal, Name: "Final numbers to venue"},
		},
		SuggestedLocations: []string{"Winery", "Garden estate", "Beach", "Chapel"},
	},
	IDBucks: {
		ID:          IDBucks,
		Label:       "Bucks Party",
		Icon:        "🍻",
		Blurb:       "A weekend away with the groom's crew",
		NamePattern: possessiveTitle("Bucks Weekend"),
		Blocks: []Block{
			{Name: "Arrival & Check-in", DefaultDurationHours: 2},
			{Name: "Friday Night Out", DefaultDurationHours: 5},
			{Name: "Saturday Morning Activity", DefaultDurationHours: 3, AttendanceRequired: true},
			{Name: "Saturday Dinner", DefaultDurationHours: 3, AttendanceRequired: true},
			{Name: "Sunday Recovery", DefaultDurationHours: 3},
		},
		Questions: []Question{
			{Type: QuestionMultiSelect, Prompt: "Which activities are you keen for?", Options: []string{"Golf", "Go karts", "Fishing", "Paintball", "Brewery tour"}},
			{Type: QuestionBoolean, Prompt: "Do you need a bed for both nights?", Required: true},
			{Type: QuestionNumber, Prompt: "How much are you comfortable spending (AUD)?"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -28, Type: CheckpointReminder, Name: "Lock in your spot"},
			{OffsetDays: -14, Type: CheckpointDeadline, Name: "Deposit and RSVP deadline", AutoResolveTo: resolveTo(ResponseOut)},
			{OffsetDays: -3, Type: CheckpointFinal, Name: "Final headcount"},
		},
		SuggestedLocations: []string{"Byron Bay", "Gold Coast", "Queenstown", "Hunter Valley"},
	},
	IDHens: {
		ID:          IDHens,
		Label:       "Hens Party",
		Icon:        "🥂",
		Blurb:       "Celebrate the bride with her favourite people",
		NamePattern: possessiveTitle("Hens Party"),
		Blocks: []Block{
			{Name: "Arrival Drinks", DefaultDurationHours: 2},
			{Name: "Pamper Morning", DefaultDurationHours: 3},
			{Name: "Long Lunch", DefaultDurationHours: 3, AttendanceRequired: true},
			{Name: "Cocktail Evening", DefaultDurationHours: 4},
		},
		Questions: []Question{
			{Type: QuestionSingleSelect, Prompt: "Any dietary requirements?", Options: dietaryOptions},
			{Type: QuestionMultiSelect, Prompt: "What are you up for?", Options: []string{"Spa", "Cocktail class", "Dance class", "Wine tasting"}},
			{Type: QuestionText, Prompt: "Your best story about the bride"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -30, Type: CheckpointReminder, Name: "RSVP reminder"},
			{OffsetDays: -14, Type: CheckpointDeadline, Name: "RSVP deadline", AutoResolveTo: resolveTo(ResponseOut)},
			{OffsetDays: -2, Type: CheckpointFinal, Name: "Final details"},
		},
		SuggestedLocations: []string{"Yarra Valley", "Noosa", "Barossa Valley", "Day spa"},
	},
	IDBirthday: {
		ID:          IDBirthday,
		Label:       "Birthday",
		Icon:        "🎂",
		Blurb:       "A party for the guest of honour",
		NamePattern: possessiveTitle("Birthday"),
		Blocks: []Block{
			{Name: "Birthday Dinner", DefaultDurationHours: 3, AttendanceRequired: true},
			{Name: "Party Night", DefaultDurationHours: 4},
		},
		Questions: []Question{
			{Type: QuestionSingleSelect, Prompt: "Any dietary requirements?", Options: dietaryOptions},
			{Type: QuestionBoolean, Prompt: "Chipping in for the group gift?"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -14, Type: CheckpointReminder, Name: "RSVP reminder"},
			{OffsetDays: -5, Type: CheckpointDeadline, Name: "RSVP deadline", AutoResolveTo: resolveTo(ResponseMaybe)},
		},
		SuggestedLocations: []string{"Restaurant", "Rooftop bar", "Backyard"},
	},
	IDTrip: {
		ID:          IDTrip,
		Label:       "Group Trip",
		Icon:        "✈️",
		Blurb:       "Travel together and keep everyone on the same page",
		NamePattern: possessiveTitle("Trip"),
		Blocks: []Block{
			{Name: "Arrival Day", DefaultDurationHours: 4},
			{Name: "Welcome Dinner", DefaultDurationHours: 3},
			{Name: "Group Day Trip Morning", DefaultDurationHours: 6},
			{Name: "Free Day", DefaultDurationHours: 8},
			{Name: "Farewell Night", DefaultDurationHours: 4},
			{Name: "Departure", DefaultDurationHours: 2},
		},
		Questions: []Question{
			{Type: QuestionSingleSelect, Prompt: "How are you getting there?", Options: []string{"Flying with the group", "Flying separately", "Driving"}, Required: true},
			{Type: QuestionBoolean, Prompt: "Happy to share a room?"},
			{Type: QuestionText, Prompt: "Passport name (exactly as printed)"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -90, Type: CheckpointReminder, Name: "Are you in?"},
			{OffsetDays: -60, Type: CheckpointDeadline, Name: "Flights booked", AutoResolveTo: resolveTo(ResponseOut)},
			{OffsetDays: -7, Type: CheckpointFinal, Name: "Final itinerary"},
		},
		SuggestedLocations: []string{"Bali", "Fiji", "Tokyo", "Tasmania"},
	},
	IDReunion: {
		ID:          IDReunion,
		Label:       "Reunion",
		Icon:        "🎓",
		Blurb:       "Bring the old crew back together",
		NamePattern: possessiveTitle("Reunion"),
		Blocks: []Block{
			{Name: "Reunion Night", DefaultDurationHours: 5, AttendanceRequired: true},
			{Name: "Family Picnic Lunch", DefaultDurationHours: 3},
		},
		Questions: []Question{
			{Type: QuestionNumber, Prompt: "How many are coming with you?"},
			{Type: QuestionText, Prompt: "What have you been up to?"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -45, Type: CheckpointReminder, Name: "Spread the word"},
			{OffsetDays: -14, Type: CheckpointDeadline, Name: "RSVP deadline", AutoResolveTo: resolveTo(ResponseMaybe)},
		},
		SuggestedLocations: []string{"School hall", "Local pub", "Park"},
	},
	IDDinner: {
		ID:          IDDinner,
		Label:       "Dinner Party",
		Icon:        "🍽️",
		Blurb:       "One night, one table",
		NamePattern: possessiveTitle("Dinner Party"),
		Blocks: []Block{
			{Name: "Dinner", DefaultDurationHours: 3, AttendanceRequired: true},
		},
		Questions: []Question{
			{Type: QuestionSingleSelect, Prompt: "Any dietary requirements?", Options: dietaryOptions, Required: true},
			{Type: QuestionBoolean, Prompt: "Bringing a bottle?"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -7, Type: CheckpointReminder, Name: "RSVP reminder"},
			{OffsetDays: -2, Type: CheckpointDeadline, Name: "Final numbers", AutoResolveTo: resolveTo(ResponseOut)},
		},
		SuggestedLocations: []string{"Home", "Restaurant", "Private dining room"},
	},
	IDCustom: {
		ID:          IDCustom,
		Label:       "Something Else",
		Icon:        "✨",
		Blurb:       "Start from a blank slate",
		NamePattern: possessiveTitle("Event"),
		Blocks: []Block{
			{Name: "Main Event", DefaultDurationHours: 3, AttendanceRequired: true},
		},
		Questions: []Question{
			{Type: QuestionText, Prompt: "Anything we should know?"},
		},
		Checkpoints: []Checkpoint{
			{OffsetDays: -14, Type: CheckpointReminder, Name: "RSVP reminder"},
			{OffsetDays: -3, Type: CheckpointFinal, Name: "Final details"},
		},
	},
}
