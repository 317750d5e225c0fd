// Package wilaya holds the static table of Algeria's 58 administrative
// provinces and the name normalization used to match geocoder output
// against it.
package wilaya

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Count is the number of wilayas in the table.
const Count = 58

// Wilaya is one Algerian province.
type Wilaya struct {
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	NameAr  string   `json:"name_ar"`
	Aliases []string `json:"-"`
}

var table = []Wilaya{
	{Code: "01", Name: "Adrar", NameAr: "أدرار"},
	{Code: "02", Name: "Chlef", NameAr: "الشلف", Aliases: []string{"Ech Chlef", "Ech Cheliff"}},
	{Code: "03", Name: "Laghouat", NameAr: "الأغواط"},
	{Code: "04", Name: "Oum El Bouaghi", NameAr: "أم البواقي"},
	{Code: "05", Name: "Batna", NameAr: "باتنة"},
	{Code: "06", Name: "Béjaïa", NameAr: "بجاية", Aliases: []string{"Bougie", "Bgayet"}},
	{Code: "07", Name: "Biskra", NameAr: "بسكرة"},
	{Code: "08", Name: "Béchar", NameAr: "بشار"},
	{Code: "09", Name: "Blida", NameAr: "البليدة"},
	{Code: "10", Name: "Bouira", NameAr: "البويرة"},
	{Code: "11", Name: "Tamanrasset", NameAr: "تمنراست", Aliases: []string{"Tamanghasset"}},
	{Code: "12", Name: "Tébessa", NameAr: "تبسة"},
	{Code: "13", Name: "Tlemcen", NameAr: "تلمسان"},
	{Code: "14", Name: "Tiaret", NameAr: "تيارت"},
	{Code: "15", Name: "Tizi Ouzou", NameAr: "تيزي وزو"},
	{Code: "16", Name: "Alger", NameAr: "الجزائر", Aliases: []string{"Algiers", "Alger Centre", "El Djazair"}},
	{Code: "17", Name: "Djelfa", NameAr: "الجلفة"},
	{Code: "18", Name: "Jijel", NameAr: "جيجل"},
	{Code: "19", Name: "Sétif", NameAr: "سطيف"},
	{Code: "20", Name: "Saïda", NameAr: "سعيدة"},
	{Code: "21", Name: "Skikda", NameAr: "سكيكدة"},
	{Code: "22", Name: "Sidi Bel Abbès", NameAr: "سيدي بلعباس"},
	{Code: "23", Name: "Annaba", NameAr: "عنابة"},
	{Code: "24", Name: "Guelma", NameAr: "قالمة"},
	{Code: "25", Name: "Constantine", NameAr: "قسنطينة"},
	{Code: "26", Name: "Médéa", NameAr: "المدية"},
	{Code: "27", Name: "Mostaganem", NameAr: "مستغانم"},
	{Code: "28", Name: "M'Sila", NameAr: "المسيلة"},
	{Code: "29", Name: "Mascara", NameAr: "معسكر"},
	{Code: "30", Name: "Ouargla", NameAr: "ورقلة"},
	{Code: "31", Name: "Oran", NameAr: "وهران", Aliases: []string{"Wahran"}},
	{Code: "32", Name: "El Bayadh", NameAr: "البيض"},
	{Code: "33", Name: "Illizi", NameAr: "إليزي"},
	{Code: "34", Name: "Bordj Bou Arréridj", NameAr: "برج بوعريريج"},
	{Code: "35", Name: "Boumerdès", NameAr: "بومرداس"},
	{Code: "36", Name: "El Tarf", NameAr: "الطارف", Aliases: []string{"Et Tarf"}},
	{Code: "37", Name: "Tindouf", NameAr: "تندوف"},
	{Code: "38", Name: "Tissemsilt", NameAr: "تيسمسيلت"},
	{Code: "39", Name: "El Oued", NameAr: "الوادي", Aliases: []string{"Oued Souf"}},
	{Code: "40", Name: "Khenchela", NameAr: "خنشلة"},
	{Code: "41", Name: "Souk Ahras", NameAr: "سوق أهراس"},
	{Code: "42", Name: "Tipaza", NameAr: "تيبازة", Aliases: []string{"Tipasa"}},
	{Code: "43", Name: "Mila", NameAr: "ميلة"},
	{Code: "44", Name: "Aïn Defla", NameAr: "عين الدفلى"},
	{Code: "45", Name: "Naâma", NameAr: "النعامة"},
	{Code: "46", Name: "Aïn Témouchent", NameAr: "عين تموشنت"},
	{Code: "47", Name: "Ghardaïa", NameAr: "غرداية"},
	{Code: "48", Name: "Relizane", NameAr: "غليزان"},
	{Code: "49", Name: "Timimoun", NameAr: "تيميمون"},
	{Code: "50", Name: "Bordj Badji Mokhtar", NameAr: "برج باجي مختار"},
	{Code: "51", Name: "Ouled Djellal", NameAr: "أولاد جلال"},
	{Code: "52", Name: "Béni Abbès", NameAr: "بني عباس"},
	{Code: "53", Name: "In Salah", NameAr: "عين صالح", Aliases: []string{"Ain Salah"}},
	{Code: "54", Name: "In Guezzam", NameAr: "عين قزام", Aliases: []string{"Ain Guezzam"}},
	{Code: "55", Name: "Touggourt", NameAr: "تقرت"},
	{Code: "56", Name: "Djanet", NameAr: "جانت"},
	{Code: "57", Name: "El M'Ghair", NameAr: "المغير"},
	{Code: "58", Name: "El Meniaa", NameAr: "المنيعة", Aliases: []string{"El Menia", "El Goléa"}},
}

var (
	byCode map[string]Wilaya

	// normalized name or alias -> code
	byName map[string]string

	// normalized names ordered longest first for containment matching
	namesByLength []string
)

// Names that must never resolve to a wilaya even though they contain one.
var countryNames = map[string]struct{}{
	"algerie":   {},
	"algeria":   {},
	"al jazair": {},
}

var adminPrefix = regexp.MustCompile(`^(wilaya|province|daira|commune|ولاية)\s+(de\s+|d['’]\s*|of\s+)?`)

var nameSuffixes = []string{
	" province",
	" wilaya",
	" governorate",
}

func init() {
	byCode = make(map[string]Wilaya, len(table))
	byName = make(map[string]string, len(table)*3)
	for _, w := range table {
		byCode[w.Code] = w
		for _, n := range append([]string{w.Name, w.NameAr}, w.Aliases...) {
			key := Normalize(n)
			if key == "" {
				continue
			}
			byName[key] = w.Code
		}
	}
	namesByLength = make([]string, 0, len(byName))
	for n := range byName {
		namesByLength = append(namesByLength, n)
	}
	sort.Slice(namesByLength, func(i, j int) bool {
		if len(namesByLength[i]) != len(namesByLength[j]) {
			return len(namesByLength[i]) > len(namesByLength[j])
		}
		return namesByLength[i] < namesByLength[j]
	})
}

// All returns the wilayas ordered by code.
func All() []Wilaya {
	out := make([]Wilaya, len(table))
	copy(out, table)
	return out
}

// NormalizeCode converts "1", "01", " 16 " or "wilaya 7" into a two-digit
// code. ok is false when no valid code 01..58 can be derived.
func NormalizeCode(raw string) (code string, ok bool) {
	digits := make([]rune, 0, 2)
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits = append(digits, r)
		}
	}
	switch len(digits) {
	case 1:
		code = "0" + string(digits)
	case 2:
		code = string(digits)
	default:
		return "", false
	}
	if _, exists := byCode[code]; !exists {
		return "", false
	}
	return code, true
}

// ByCode looks up a wilaya by any code form accepted by NormalizeCode.
func ByCode(raw string) (Wilaya, bool) {
	code, ok := NormalizeCode(raw)
	if !ok {
		return Wilaya{}, false
	}
	return byCode[code], true
}

// MatchName resolves a free-form province, county or city name. Exact
// normalized matches win; otherwise the longest table name contained in the
// input (or containing it) is used.
func MatchName(name string) (Wilaya, bool) {
	key := Normalize(name)
	if key == "" {
		return Wilaya{}, false
	}
	if _, isCountry := countryNames[key]; isCountry {
		return Wilaya{}, false
	}
	if code, ok := byName[key]; ok {
		return byCode[code], true
	}
	for _, candidate := range namesByLength {
		if containsWord(key, candidate) {
			return byCode[byName[candidate]], true
		}
	}
	if len([]rune(key)) >= 4 {
		for _, candidate := range namesByLength {
			if strings.Contains(candidate, key) {
				return byCode[byName[candidate]], true
			}
		}
	}
	return Wilaya{}, false
}

// Normalize lowercases, strips diacritics, drops apostrophes, turns
// separators into single spaces and removes administrative prefixes.
func Normalize(name string) string {
	// transform chains carry state; build one per call
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}
	stripped = strings.ToLower(strings.TrimSpace(stripped))
	stripped = adminPrefix.ReplaceAllString(stripped, "")

	var b strings.Builder
	for _, r := range stripped {
		switch {
		case r == '\'' || r == '’' || r == '`':
		case r == '-' || r == '_' || r == ',' || r == '.' || unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	out := strings.Join(strings.Fields(b.String()), " ")

	for _, s := range nameSuffixes {
		if strings.HasSuffix(out, s) {
			out = strings.TrimSpace(strings.TrimSuffix(out, s))
			break
		}
	}
	return out
}

// containsWord reports whether needle appears in haystack on word boundaries.
func containsWord(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	idx := 0
	for {
		i := strings.Index(haystack[idx:], needle)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(needle)
		leftOK := start == 0 || haystack[start-1] == ' '
		rightOK := end == len(haystack) || haystack[end] == ' '
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
		if idx >= len(haystack) {
			return false
		}
	}
}
