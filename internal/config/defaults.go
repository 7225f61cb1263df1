package config

const (
	defaultTargetDir        = "~/Books"
	defaultStateDir         = "~/.local/share/shelver"
	defaultLogDir           = "~/.local/share/shelver/logs"
	defaultTXTFolder        = "TXT"
	defaultMaxPathLength    = 250
	defaultProgressInterval = 50
	defaultPreviewLimit     = 100
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	failureReportName       = "failed_items.txt"
)

// Language keys used by the language_folders map.
const (
	LanguageEnglish  = "eng"
	LanguageJapanese = "jpn"
	LanguageChinese  = "zho"
	LanguageUnknown  = "unknown"
)

// Japanese category keys.
const (
	CategoryLightNovel   = "light_novel"
	CategoryMystery      = "mystery"
	CategoryScifiFantasy = "scifi_fantasy"
	CategoryLiterature   = "literature"
	CategoryOther        = "other"
)

// English category keys.
const (
	CategoryClassics   = "classics"
	CategoryFiction    = "fiction"
	CategoryNonFiction = "non_fiction"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			TargetDir: defaultTargetDir,
			StateDir:  defaultStateDir,
			LogDir:    defaultLogDir,
		},
		Sources: Sources{
			Catalog:    true,
			Filesystem: true,
			Formats:    []string{"epub", "mobi", "azw3"},
		},
		Taxonomy: Taxonomy{
			TXTFolder:     defaultTXTFolder,
			MaxPathLength: defaultMaxPathLength,
			LanguageFolders: map[string]string{
				LanguageEnglish:  "英文",
				LanguageJapanese: "日文",
				LanguageChinese:  "中文",
				LanguageUnknown:  "其他语言",
			},
			JapaneseCategories: map[string]string{
				CategoryLightNovel:   "轻小说",
				CategoryMystery:      "推理",
				CategoryScifiFantasy: "科幻奇幻",
				CategoryLiterature:   "文学",
				CategoryOther:        "其他",
			},
			EnglishCategories: map[string]string{
				CategoryClassics:   "Classics",
				CategoryFiction:    "Fiction",
				CategoryNonFiction: "Non-Fiction",
			},
			LightNovelKeywords: []string{
				"light novel", "ライトノベル", "ラノベ",
				"電撃文庫", "角川スニーカー文庫", "MF文庫J", "ファミ通文庫", "GA文庫", "富士見ファンタジア文庫",
			},
			Fiction: []FictionCategory{
				{Name: "mystery", Keywords: []string{"mystery", "detective", "crime", "thriller"}},
				{Name: "science fiction", Keywords: []string{"science fiction", "sci-fi", "scifi"}},
				{Name: "fantasy", Keywords: []string{"fantasy"}},
				{Name: "romance", Keywords: []string{"romance"}},
				{Name: "horror", Keywords: []string{"horror"}},
			},
			PathLanguageHints: map[string][]string{
				LanguageJapanese: {"日语", "日文"},
				LanguageEnglish:  {"英语", "英文"},
				LanguageChinese:  {"中文", "中国"},
			},
		},
		Run: Run{
			ProgressInterval:   defaultProgressInterval,
			ReloadFingerprints: true,
			PreviewLimit:       defaultPreviewLimit,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
