package language

import "strings"

// Code is a normalized language bucket.
type Code string

const (
	English  Code = "eng"
	Japanese Code = "jpn"
	Chinese  Code = "zho"
	Unknown  Code = "unknown"
)

type entry struct {
	code2  string   // ISO 639-1
	code3  string   // ISO 639-2 primary
	alt3   string   // ISO 639-2 alternate (e.g. "fre" vs "fra")
	words  []string // full word forms (e.g. "english")
	bucket Code
}

var languages = []entry{
	{"en", "eng", "", []string{"english"}, English},
	{"es", "spa", "", []string{"spanish"}, English},
	{"fr", "fra", "fre", []string{"french"}, English},
	{"de", "deu", "ger", []string{"german"}, English},
	{"it", "ita", "", []string{"italian"}, English},
	{"pt", "por", "", []string{"portuguese"}, English},
	{"ru", "rus", "", []string{"russian"}, English},
	{"ja", "jpn", "", []string{"japanese", "日本語"}, Japanese},
	{"zh", "zho", "chi", []string{"chinese", "cmn", "中文"}, Chinese},
	{"ko", "kor", "", []string{"korean"}, Unknown},
	{"ar", "ara", "", []string{"arabic"}, Unknown},
	{"hi", "hin", "", []string{"hindi"}, Unknown},
	{"nl", "nld", "dut", []string{"dutch"}, Unknown},
	{"pl", "pol", "", []string{"polish"}, Unknown},
	{"sv", "swe", "", []string{"swedish"}, Unknown},
}

// Index maps built at init time.
var (
	byCode2 map[string]*entry
	byCode3 map[string]*entry
	byWord  map[string]*entry
)

func init() {
	byCode2 = make(map[string]*entry, len(languages))
	byCode3 = make(map[string]*entry, len(languages)*2)
	byWord = make(map[string]*entry, len(languages))
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
	if e := lookupExact(code); e != nil {
		return e
	}
	// Region tags: en-US, zh_TW, ja-JP.
	if i := strings.IndexAny(code, "-_"); i > 0 {
		return lookupExact(code[:i])
	}
	return nil
}

func lookupExact(code string) *entry {
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

// Normalize maps any reported code to a bucket. It never fails: empty and
// unrecognized input yields Unknown.
func Normalize(code string) Code {
	normalized, _ := Lookup(code)
	return normalized
}

// Lookup is Normalize plus whether the code was recognized at all. A
// recognized code can still map to Unknown (Korean, for example).
func Lookup(code string) (Code, bool) {
	if c := Code(strings.ToLower(strings.TrimSpace(code))); c.Valid() {
		return c, true
	}
	if e := lookup(code); e != nil {
		return e.bucket, true
	}
	return Unknown, false
}

// Valid reports whether c is one of the four buckets.
func (c Code) Valid() bool {
	switch c {
	case English, Japanese, Chinese, Unknown:
		return true
	default:
		return false
	}
}
