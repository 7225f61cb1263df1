package taxonomy

import (
	"strings"

	"shelver/internal/config"
)

// Fixed Japanese tag tables, matched as whole lower-cased tags.
var (
	japaneseMysteryTags      = []string{"mystery", "detective", "ミステリー", "推理"}
	japaneseScifiFantasyTags = []string{"science fiction", "fantasy", "sf", "ファンタジー"}
	japaneseLiteratureTags   = []string{"literary", "文芸", "純文学", "文学"}

	classicsTags       = []string{"classics", "classic"}
	genericFictionTags = []string{"fiction", "novel"}
)

// GeneralSubcategory is the subcategory of fiction without a more specific
// match.
const GeneralSubcategory = "general"

// ClassifyJapanese returns the Japanese category key for a book. Light-novel
// keywords match anywhere in the publisher or any tag and take priority;
// the remaining categories need an exact tag and are tried in the order
// mystery, scifi_fantasy, literature.
func ClassifyJapanese(tags []string, publisher string, lightNovelKeywords []string) string {
	lowered := lowerAll(tags)
	publisher = strings.ToLower(publisher)

	for _, keyword := range lightNovelKeywords {
		keyword = strings.ToLower(strings.TrimSpace(keyword))
		if keyword == "" {
			continue
		}
		if strings.Contains(publisher, keyword) || anyContains(lowered, keyword) {
			return config.CategoryLightNovel
		}
	}
	switch {
	case anyEqual(lowered, japaneseMysteryTags):
		return config.CategoryMystery
	case anyEqual(lowered, japaneseScifiFantasyTags):
		return config.CategoryScifiFantasy
	case anyEqual(lowered, japaneseLiteratureTags):
		return config.CategoryLiterature
	default:
		return config.CategoryOther
	}
}

// ClassifyEnglish returns the English category key and, for fiction, the
// subcategory name. A classics tag wins outright. Fiction subcategories are
// tried in configuration order and match when a keyword appears inside any
// tag. A plain fiction or novel tag gives the general subcategory.
func ClassifyEnglish(tags []string, fiction []config.FictionCategory) (category, subcategory string) {
	lowered := lowerAll(tags)

	if anyEqual(lowered, classicsTags) {
		return config.CategoryClassics, ""
	}
	for _, sub := range fiction {
		for _, keyword := range sub.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && anyContains(lowered, keyword) {
				return config.CategoryFiction, sub.Name
			}
		}
	}
	if anyEqual(lowered, genericFictionTags) {
		return config.CategoryFiction, GeneralSubcategory
	}
	return config.CategoryNonFiction, ""
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, strings.ToLower(strings.TrimSpace(v)))
	}
	return out
}

func anyContains(values []string, needle string) bool {
	for _, v := range values {
		if strings.Contains(v, needle) {
			return true
		}
	}
	return false
}

func anyEqual(values, candidates []string) bool {
	for _, v := range values {
		for _, c := range candidates {
			if v == c {
				return true
			}
		}
	}
	return false
}
