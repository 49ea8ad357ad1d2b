package cron

// Confusing-token blocklists: 2-3 letter prefixes that double as a
// well-known abbreviation in a given locale (state/province codes,
// government and payment acronyms, bank brands, common tech/measurement
// units) and would mislead a user reading a reminder id like "PIX01" or
// "SP03". A curated representative subset per locale, spanning the same
// categories across all four supported locales.

var confusingIDsPtBR = map[string]bool{
	// Brazilian states
	"AL": true, "AM": true, "AP": true, "BA": true, "CE": true, "DF": true,
	"ES": true, "GO": true, "MA": true, "MG": true, "MS": true, "MT": true,
	"PA": true, "PB": true, "PE": true, "PI": true, "PR": true, "RJ": true,
	"RN": true, "RO": true, "RR": true, "RS": true, "SC": true, "SE": true,
	"SP": true, "TO": true,
	// Payment / government / documents
	"PIX": true, "CPF": true, "CNH": true, "PIS": true, "STF": true,
	"STJ": true, "TSE": true, "MPF": true, "SUS": true,
	// Banks / brands
	"BB": true, "NU": true, "XP": true, "CEF": true, "ITA": true,
	// Units / common acronyms
	"KG": true, "KM": true, "ML": true, "CM": true, "MM": true,
	"OK": true, "ID": true, "API": true, "URL": true, "PDF": true,
	"CPU": true, "GPU": true, "USB": true, "TV": true,
	// Months / weekdays (pt)
	"JAN": true, "FEV": true, "MAR": true, "ABR": true, "MAI": true,
	"JUN": true, "JUL": true, "AGO": true, "SET": true, "OUT": true,
	"NOV": true, "DEZ": true,
	"SEG": true, "TER": true, "QUA": true, "QUI": true, "SEX": true,
	"SAB": true, "DOM": true,
}

var confusingIDsPtPT = map[string]bool{
	// Portuguese districts
	"AV": true, "BE": true, "BR": true, "CO": true, "EV": true, "FA": true,
	"GU": true, "LE": true, "PO": true, "SA": true, "VI": true, "VR": true,
	// Government / documents
	"CC": true, "NIF": true, "NIB": true, "IRS": true, "IVA": true,
	"SNS": true, "INEM": true,
	// Banks
	"CGD": true, "BPI": true, "BES": true,
	// Units / common acronyms
	"KG": true, "KM": true, "ML": true, "CM": true, "MM": true,
	"OK": true, "ID": true, "API": true, "URL": true, "PDF": true,
	"CPU": true, "GPU": true, "USB": true, "TV": true,
	// Months / weekdays (pt)
	"JAN": true, "FEV": true, "MAR": true, "ABR": true, "MAI": true,
	"JUN": true, "JUL": true, "AGO": true, "SET": true, "OUT": true,
	"NOV": true, "DEZ": true,
	"SEG": true, "TER": true, "QUA": true, "QUI": true, "SEX": true,
	"SAB": true, "DOM": true,
}

var confusingIDsES = map[string]bool{
	// Spanish provinces
	"AL": true, "AV": true, "BA": true, "BU": true, "CA": true, "CO": true,
	"CR": true, "CU": true, "GR": true, "HU": true, "JA": true, "LE": true,
	"LO": true, "LU": true, "MA": true, "MU": true, "NA": true, "OR": true,
	"PO": true, "SA": true, "SE": true, "SG": true, "SO": true, "TO": true,
	"VA": true, "VI": true, "ZA": true,
	// Government / documents
	"DNI": true, "NIF": true, "CIF": true, "NIE": true, "IVA": true,
	"BOE": true, "DGT": true, "INE": true,
	// Units / common acronyms
	"KG": true, "KM": true, "ML": true, "CM": true, "MM": true,
	"OK": true, "ID": true, "API": true, "URL": true, "PDF": true,
	"CPU": true, "GPU": true, "USB": true, "TV": true,
	// Months / weekdays (es)
	"ENE": true, "FEB": true, "MAR": true, "ABR": true, "MAY": true,
	"JUN": true, "JUL": true, "AGO": true, "SEP": true, "OCT": true,
	"NOV": true, "DIC": true,
	"LUN": true, "MIE": true, "JUE": true, "VIE": true, "SAB": true, "DOM": true,
}

var confusingIDsEN = map[string]bool{
	// US state codes
	"AL": true, "AK": true, "AZ": true, "AR": true, "CA": true, "CO": true,
	"CT": true, "DE": true, "FL": true, "GA": true, "HI": true, "ID": true,
	"IL": true, "IN": true, "IA": true, "KS": true, "KY": true, "LA": true,
	"ME": true, "MD": true, "MA": true, "MI": true, "MN": true, "MS": true,
	"MO": true, "MT": true, "NE": true, "NV": true, "NH": true, "NJ": true,
	"NM": true, "NY": true, "NC": true, "ND": true, "OH": true, "OK": true,
	"OR": true, "PA": true, "RI": true, "SC": true, "SD": true, "TN": true,
	"TX": true, "UT": true, "VT": true, "VA": true, "WA": true, "WV": true,
	"WI": true, "WY": true,
	// Common acronyms
	"API": true, "URL": true, "PDF": true, "CPU": true, "GPU": true,
	"USB": true, "TV": true, "HIV": true, "HPV": true, "DNA": true,
	"RNA": true, "ICU": true,
	// Months / weekdays (en)
	"JAN": true, "FEB": true, "MAR": true, "APR": true, "MAY": true,
	"JUN": true, "JUL": true, "AUG": true, "SEP": true, "OCT": true,
	"NOV": true, "DEC": true,
	"MON": true, "TUE": true, "WED": true, "THU": true, "FRI": true,
	"SAT": true, "SUN": true,
}

var confusingByLocale = map[string]map[string]bool{
	"pt-BR": confusingIDsPtBR,
	"pt-PT": confusingIDsPtPT,
	"pt":    confusingIDsPtBR,
	"es":    confusingIDsES,
	"en":    confusingIDsEN,
}

// isConfusingID reports whether candidate is a known-confusing token in
// locale. An unrecognized or empty locale is treated conservatively: the
// candidate is checked against every locale's blocklist, so a generated id
// never collides with a confusing token in any supported language.
func isConfusingID(candidate, locale string) bool {
	if candidate == "" {
		return false
	}
	if set, ok := confusingByLocale[locale]; ok {
		return set[candidate]
	}
	for _, set := range confusingByLocale {
		if set[candidate] {
			return true
		}
	}
	return false
}
