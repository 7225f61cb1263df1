// Package language normalizes reported language codes into the four folder
// buckets used by the library layout (eng, jpn, zho, unknown) and detects
// the script of short texts such as titles.
//
// Normalization accepts ISO 639-1 and 639-2 codes (including bibliographic
// alternates such as "chi" and "fre"), English word forms, and region
// suffixed tags such as "en-US" or "zh_TW". Western European languages fold
// into the English bucket because they share its folder.
package language
