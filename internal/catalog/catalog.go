// Package catalog holds the static city → district mapping that backs the
// location selects on the listing form.
//
// The catalog is exhaustive for the cities the app serves. It is distinct
// from the filter facets on the browse screen, which are derived from
// whatever cities actually appear in the stored listings.
package catalog

// locations maps each supported city to its districts, in display order.
// Keys and values are the exact strings stored on listings — the browse
// filters compare them with plain equality.
var locations = map[string][]string{
	"Seoul": {
		"Gangnam", "Gangdong", "Gangbuk", "Gangseo", "Gwanak", "Gwangjin",
		"Guro", "Geumcheon", "Nowon", "Dobong", "Dongdaemun", "Dongjak",
		"Mapo", "Seodaemun", "Seocho", "Seongdong", "Seongbuk", "Songpa",
		"Yangcheon", "Yeongdeungpo", "Yongsan", "Eunpyeong", "Jongno",
		"Jung", "Jungnang",
	},
	"Busan": {
		"Gangseo", "Geumjeong", "Gijang", "Nam", "Dong", "Dongnae",
		"Busanjin", "Buk", "Sasang", "Saha", "Seo", "Suyeong",
		"Yeonje", "Yeongdo", "Jung", "Haeundae",
	},
	"Incheon": {
		"Ganghwa", "Gyeyang", "Namdong", "Dong", "Michuhol", "Bupyeong",
		"Seo", "Yeonsu", "Jung",
	},
	"Daegu": {
		"Gun-wi", "Nam", "Dalseo", "Dalseong", "Dong", "Buk", "Seo",
		"Suseong", "Jung",
	},
	"Daejeon": {"Daedeok", "Dong", "Seo", "Yuseong", "Jung"},
	"Gwangju": {"Gwangsan", "Nam", "Dong", "Buk", "Seo"},
	"Ulsan":   {"Nam", "Dong", "Buk", "Ulju", "Jung"},
}

// cityOrder fixes the display order of cities; map iteration order in Go is
// deliberately randomised, so we keep an explicit slice.
var cityOrder = []string{
	"Seoul", "Busan", "Incheon", "Daegu", "Daejeon", "Gwangju", "Ulsan",
}

// Cities returns the supported cities in display order.
// The returned slice is a copy — callers may not mutate the catalog.
func Cities() []string {
	out := make([]string, len(cityOrder))
	copy(out, cityOrder)
	return out
}

// Districts returns the districts of the given city in display order.
// Unknown or empty cities yield an empty (non-nil) slice, matching the
// form's behaviour of showing no district options until a known city is
// picked.
func Districts(city string) []string {
	ds, ok := locations[city]
	if !ok {
		return []string{}
	}
	out := make([]string, len(ds))
	copy(out, ds)
	return out
}
