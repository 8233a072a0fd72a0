package config

// --------------------------------------------------------------------------
// Venue registry: static booking-site configuration, immutable at runtime
// --------------------------------------------------------------------------

// ProviderKind identifies an upstream booking API family.
type ProviderKind string

const (
	ProviderVivaCRM  ProviderKind = "vivacrm"
	ProviderYClients ProviderKind = "yclients"
)

// CourtConfig holds the adapter-specific identifiers for one bookable court
// type. Which fields are used depends on the location's provider.
type CourtConfig struct {
	// vivacrm
	APIURL        string
	StudioID      string
	SubServiceIDs []string

	// yclients
	ServiceID string
	StaffID   string
}

// Location describes one venue: its provider, the court types it offers,
// and display/booking metadata.
type Location struct {
	Name          string
	Provider      ProviderKind
	BookingLink   string
	Description   string
	DisplayInCase string

	// yclients venue identifiers
	CompanyID  string
	LocationID string

	// SlotGranularityMinutes is the minute step between bookable start
	// times on this site. Zero means the default of 60 (on the hour).
	SlotGranularityMinutes int

	Courts map[string]CourtConfig
}

// Granularity returns the effective slot granularity in minutes.
func (l Location) Granularity() int {
	if l.SlotGranularityMinutes <= 0 {
		return 60
	}
	return l.SlotGranularityMinutes
}

// CourtNames returns the location's court-type names in registry order.
func (l Location) CourtNames() []string {
	names := make([]string, 0, len(l.Courts))
	for name := range l.Courts {
		names = append(names, name)
	}
	return names
}

// LocationOrder fixes the menu ordering; map iteration order is not stable.
var LocationOrder = []string{
	"Лужники",
	"Лужники-2",
	"Фили (Дело спорт)",
	"Фили (Звезда)",
	"Химки",
	"Долгопрудный",
	"Мытищи",
	"Терехово",
}

// Locations maps a venue name to its configuration.
var Locations = map[string]Location{
	"Лужники": {
		Name:          "Лужники",
		Provider:      ProviderVivaCRM,
		BookingLink:   "https://moscowpdl.ru/#courtrental",
		Description:   "Корты от MoscowPDL",
		DisplayInCase: "в Лужниках",
		Courts: map[string]CourtConfig{
			"Открытый корт": {
				APIURL:        "https://api.vivacrm.ru/end-user/api/v1/wTksKv/products/master-services/08b5ef55-d1b4-4736-8152-4d5d5c52a4ab/timeslots",
				StudioID:      "eec3430e-a54a-4da6-99e5-1ba40bb86352",
				SubServiceIDs: []string{"c77df85e-e9a3-4e44-b5c5-e0ff45d1eefa"},
			},
			"Закрытый корт": {
				APIURL:        "https://api.vivacrm.ru/end-user/api/v1/wTksKv/products/master-services/08b5ef55-d1b4-4736-8152-4d5d5c52a4ab/timeslots",
				StudioID:      "29d6ab31-4ea1-4613-9738-257741b45cda",
				SubServiceIDs: []string{"d5b658b2-22a9-475d-82d3-f298a2af2ff5"},
			},
		},
	},
	"Лужники-2": {
		Name:          "Лужники-2",
		Provider:      ProviderYClients,
		BookingLink:   "https://padelfriends.ru/moscow",
		Description:   "Корты от Padel Friends",
		DisplayInCase: "в Лужниках-2",
		CompanyID:     "b861100",
		LocationID:    "804153",
		Courts: map[string]CourtConfig{
			"Корт для 4-х": {ServiceID: "11654151"},
			"Корт для 2-х": {ServiceID: "11663448"},
		},
	},
	"Фили (Дело спорт)": {
		Name:          "Фили (Дело спорт)",
		Provider:      ProviderYClients,
		BookingLink:   "https://lundapadel.ru/",
		Description:   "Корты от Lunda Padel",
		DisplayInCase: "на Филях (Дело спорт)",
		CompanyID:     "b911781",
		LocationID:    "1168982",
		Courts: map[string]CourtConfig{
			"Корт (тип 1)": {ServiceID: "17570389"},
			"Корт (тип 2)": {ServiceID: "17571377"},
		},
	},
	"Фили (Звезда)": {
		Name:          "Фили (Звезда)",
		Provider:      ProviderYClients,
		BookingLink:   "https://lundapadel.ru/",
		Description:   "Корты от Lunda Padel",
		DisplayInCase: "на Филях (Звезда)",
		CompanyID:     "b911781",
		LocationID:    "847747",
		Courts: map[string]CourtConfig{
			"Корт": {ServiceID: "12616669"},
		},
	},
	"Химки": {
		Name:          "Химки",
		Provider:      ProviderYClients,
		BookingLink:   "https://lundapadel.ru/",
		Description:   "Корты от Lunda Padel",
		DisplayInCase: "в Химках",
		CompanyID:     "b911781",
		LocationID:    "820948",
		Courts: map[string]CourtConfig{
			"Корт для 2-х": {ServiceID: "12077982"},
			"Корт для 4-х": {ServiceID: "11995111"},
			"Ultra корт":   {ServiceID: "11995098"},
		},
	},
	"Долгопрудный": {
		Name:          "Долгопрудный",
		Provider:      ProviderVivaCRM,
		BookingLink:   "https://paripadel.ru/admiral#booking",
		Description:   "Корты от Pari в яхт-клубе",
		DisplayInCase: "в Долгопрудном",
		Courts: map[string]CourtConfig{
			"Закрытый корт": {
				APIURL:        "https://api.vivacrm.ru/end-user/api/v1/ucYTIM/products/master-services/bc7ce7e6-40c3-4c23-885a-ac0bf38e90cc/timeslots",
				StudioID:      "a20eac9b-0e7e-4d84-9888-52d904feb74e",
				SubServiceIDs: []string{"2d8a66d5-cd3b-4154-b9f7-a54b0f14cad3"},
			},
		},
	},
	"Мытищи": {
		Name:          "Мытищи",
		Provider:      ProviderYClients,
		BookingLink:   "https://b918666.yclients.com/company/855029/personal/select-time?o=m-1",
		Description:   "Корты от A33",
		DisplayInCase: "в Мытищах",
		CompanyID:     "b918666",
		LocationID:    "855029",
		Courts: map[string]CourtConfig{
			"Открытый корт": {ServiceID: "15554204"},
		},
	},
	"Терехово": {
		Name:          "Терехово",
		Provider:      ProviderYClients,
		BookingLink:   "https://n1165596.yclients.com/company/1149911",
		Description:   "Корты от Академии Будущего",
		DisplayInCase: "в Терехово",
		CompanyID:     "n1165596",
		LocationID:    "1149911",
		Courts: map[string]CourtConfig{
			"Корт 1": {ServiceID: "18999132", StaffID: "3801338"},
			"Корт 2": {ServiceID: "17302417", StaffID: "3497691"},
			"Корт 3": {ServiceID: "17302417", StaffID: "3497812"},
			"Корт 4": {ServiceID: "17302417", StaffID: "3497820"},
			"Корт 5": {ServiceID: "17302417", StaffID: "3497822"},
		},
	},
}

// GetLocation looks up a venue by name.
func GetLocation(name string) (Location, bool) {
	loc, ok := Locations[name]
	return loc, ok
}
