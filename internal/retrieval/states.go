package retrieval

import "sort"

// mexicoStates maps the closed set of region codes the extractor may emit
// to the state names stored in the catalog's destination field. The names
// match the catalog data verbatim, including its nonstandard spellings, so
// the LIKE filter keeps working against existing records.
var mexicoStates = map[string]string{
	"HGO": "Hidalgo",
	"ROO": "Quintana Roo",
	"NAY": "Nayarit",
	"BCS": "Baja California Sur",
	"GTO": "Guanajuato Area",
	"TAB": "Tabasco",
	"BCN": "Baja California",
	"YUC": "Yucatan",
	"EMX": "Estado de Mexico",
	"CHI": "Chiuahua",
	"JAL": "Jalisco",
	"MXC": "Mexico Area",
	"VCZ": "Veracruz Area",
	"CAM": "Campeche Area",
	"PBL": "Puebla Area",
	"QRO": "Queretaro Area",
	"OAX": "Oaxaca",
	"MCH": "Michoacan",
	"CHP": "Chiapas",
	"TLX": "Tlaxcala Area",
	"SIN": "Sinaloa",
	"AGS": "Aguascalientes",
	"COA": "Coahuila",
	"COL": "Colima",
	"DGO": "Durango",
	"GRO": "Guerrero",
	"MOR": "Morelos",
	"NLE": "Nuevo León",
	"SLP": "San Luis Potosí",
	"SON": "Sonora",
	"TMS": "Tamaulipas",
	"ZAC": "Zacatecas",
}

// StateName resolves a region code to its catalog state name. Unknown or
// blank codes resolve to "" (no regional constraint).
func StateName(code string) string {
	return mexicoStates[code]
}

// ValidStateCode reports whether code belongs to the closed region set.
func ValidStateCode(code string) bool {
	_, ok := mexicoStates[code]
	return ok
}

// StateCodes returns the closed region code set in a stable order for
// prompt construction.
func StateCodes() []string {
	codes := make([]string, 0, len(mexicoStates))
	for c := range mexicoStates {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
