package language

import "strings"

// Original is the target language sentinel meaning "no translation".
const Original = "original"

// Unknown is reported by the backend when detection produced nothing.
const Unknown = "unknown"

type entry struct {
	code2   string   // ISO 639-1
	code3   string   // ISO 639-2 primary
	alt3    string   // ISO 639-2 bibliographic variant
	display string   // English name
	words   []string // accepted spellings
}

// The first block mirrors the backend's translation targets; the rest covers
// languages Whisper commonly detects.
var languages = []entry{
	{"en", "eng", "", "English", []string{"english"}},
	{"es", "spa", "", "Spanish", []string{"spanish", "espanol", "español"}},
	{"fr", "fra", "fre", "French", []string{"french", "francais", "français"}},
	{"de", "deu", "ger", "German", []string{"german", "deutsch"}},
	{"it", "ita", "", "Italian", []string{"italian"}},
	{"pt", "por", "", "Portuguese", []string{"portuguese"}},
	{"ru", "rus", "", "Russian", []string{"russian"}},
	{"ja", "jpn", "", "Japanese", []string{"japanese"}},
	{"ko", "kor", "", "Korean", []string{"korean"}},
	{"zh", "zho", "chi", "Chinese", []string{"chinese", "mandarin"}},
	{"ar", "ara", "", "Arabic", []string{"arabic"}},
	{"hi", "hin", "", "Hindi", []string{"hindi"}},

	{"nl", "nld", "dut", "Dutch", []string{"dutch"}},
	{"pl", "pol", "", "Polish", []string{"polish"}},
	{"sv", "swe", "", "Swedish", []string{"swedish"}},
	{"da", "dan", "", "Danish", []string{"danish"}},
	{"no", "nor", "", "Norwegian", []string{"norwegian"}},
	{"fi", "fin", "", "Finnish", []string{"finnish"}},
	{"tr", "tur", "", "Turkish", []string{"turkish"}},
	{"uk", "ukr", "", "Ukrainian", []string{"ukrainian"}},
	{"el", "ell", "gre", "Greek", []string{"greek"}},
	{"he", "heb", "", "Hebrew", []string{"hebrew"}},
}

var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages)*2)
	for i := range languages {
		e := &languages[i]
		byCode2[e.code2] = e
		byCode3[e.code3] = e
		if e.alt3 != "" {
			byCode3[e.alt3] = e
		}
		for _, w := range e.words {
			byWord[w] = e
		}
	}
}

func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	if e, ok := byCode2[code]; ok {
		return e
	}
	if e, ok := byCode3[code]; ok {
		return e
	}
	if e, ok := byWord[code]; ok {
		return e
	}
	return nil
}

// IsOriginal reports whether code is the "original" sentinel.
func IsOriginal(code string) bool {
	return strings.EqualFold(strings.TrimSpace(code), Original)
}

// ToISO2 converts a recognized code or English name to ISO 639-1.
// Unknown two-letter input passes through; anything else yields "".
func ToISO2(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return ""
	}
	if e := lookup(code); e != nil {
		return e.code2
	}
	if len(code) == 2 {
		return code
	}
	return ""
}

// NormalizeTarget turns user input such as "Spanish", "spa" or " ES " into the
// code the backend expects. The sentinel and unrecognized values are returned
// lowercased so the catalog can reject them.
func NormalizeTarget(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == Original {
		return trimmed
	}
	if iso := ToISO2(trimmed); iso != "" {
		return iso
	}
	return trimmed
}

// NormalizeDetected canonicalizes the backend's detected language. An empty
// value becomes Unknown.
func NormalizeDetected(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	if trimmed == "" || trimmed == Unknown {
		return Unknown
	}
	if iso := ToISO2(trimmed); iso != "" {
		return iso
	}
	return trimmed
}

// DisplayName returns a human-readable name for code. The sentinel renders as
// "Original Language", empty or "unknown" input as "Unknown", and unrecognized
// codes uppercased.
func DisplayName(code string) string {
	trimmed := strings.TrimSpace(code)
	switch {
	case trimmed == "", strings.EqualFold(trimmed, Unknown):
		return "Unknown"
	case IsOriginal(trimmed):
		return "Original Language"
	}
	if e := lookup(trimmed); e != nil {
		return e.display
	}
	return strings.ToUpper(trimmed)
}
