package preferences

import "sort"

// regions maps a cruising region to its member countries.
var regions = map[string][]string{
	"Mediterranean": {
		"Spain", "France", "Monaco", "Italy", "Malta", "Greece", "Croatia",
		"Montenegro", "Turkey", "Cyprus", "Albania", "Slovenia", "Tunisia", "Morocco",
	},
	"Caribbean": {
		"Antigua and Barbuda", "Bahamas", "Barbados", "British Virgin Islands",
		"US Virgin Islands", "Grenada", "Saint Lucia", "Saint Vincent and the Grenadines",
		"Saint Kitts and Nevis", "Saint Martin", "Sint Maarten", "Saint Barthelemy",
		"Anguilla", "Turks and Caicos", "Cayman Islands", "Jamaica", "Dominican Republic",
		"Puerto Rico", "Guadeloupe", "Martinique", "Aruba", "Curacao",
	},
	"Northern Europe": {
		"United Kingdom", "Ireland", "Netherlands", "Belgium", "Germany", "Denmark",
		"Norway", "Sweden", "Finland", "Iceland", "Estonia", "Poland",
	},
	"Middle East": {
		"United Arab Emirates", "Qatar", "Saudi Arabia", "Oman", "Bahrain", "Kuwait",
		"Israel", "Jordan", "Egypt",
	},
	"Asia": {
		"Thailand", "Singapore", "Malaysia", "Indonesia", "Philippines", "Vietnam",
		"Cambodia", "Hong Kong", "China", "Japan", "South Korea", "Taiwan", "India", "Sri Lanka",
	},
	"South Pacific": {
		"Australia", "New Zealand", "Fiji", "French Polynesia", "Tonga", "Vanuatu",
		"New Caledonia", "Cook Islands", "Samoa",
	},
	"Indian Ocean": {
		"Maldives", "Seychelles", "Mauritius", "Madagascar", "Reunion", "Sri Lanka",
	},
	"North America": {
		"United States", "Canada", "Bermuda",
	},
	"Central America": {
		"Mexico", "Belize", "Guatemala", "Honduras", "El Salvador", "Nicaragua",
		"Costa Rica", "Panama",
	},
	"South America": {
		"Brazil", "Argentina", "Chile", "Uruguay", "Colombia", "Ecuador", "Peru", "Venezuela",
	},
}

// normalizedRegions indexes regions by their normalized name.
var normalizedRegions = func() map[string]string {
	index := make(map[string]string, len(regions))
	for name := range regions {
		index[Normalize(name)] = name
	}
	return index
}()

// IsRegion reports whether name is a known region. The lookup ignores case and surrounding spaces.
func IsRegion(name string) bool {
	_, ok := normalizedRegions[Normalize(name)]
	return ok
}

// RegionCountries returns the member countries of a region, or nil for an unknown region.
func RegionCountries(name string) []string {
	canonical, ok := normalizedRegions[Normalize(name)]
	if !ok {
		return nil
	}
	countries := regions[canonical]
	out := make([]string, len(countries))
	copy(out, countries)
	return out
}

// RegionNames returns every known region name in alphabetical order.
func RegionNames() []string {
	names := make([]string, 0, len(regions))
	for name := range regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
