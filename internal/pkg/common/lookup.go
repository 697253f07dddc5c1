package common

import "strings"

const (
	defaultCategoryEmoji = "🍽️"
	defaultCuisineFlag   = "🌍"
)

var categoryEmojis = map[string]string{
	"breakfast":     "🍳",
	"lunch":         "🥪",
	"dinner":        "🍲",
	"snack":         "🍿",
	"dessert":       "🍰",
	"beef":          "🥩",
	"chicken":       "🍗",
	"lamb":          "🍖",
	"goat":          "🐐",
	"pasta":         "🍝",
	"pork":          "🥓",
	"seafood":       "🦐",
	"side":          "🥗",
	"starter":       "🥟",
	"vegan":         "🥬",
	"vegetarian":    "🥕",
	"miscellaneous": "🍴",
}

var cuisineFlags = map[string]string{
	"american":      "🗽",
	"british":       "👑",
	"canadian":      "🍁",
	"chinese":       "🐉",
	"croatian":      "⚽",
	"dutch":         "🌷",
	"egyptian":      "🐫",
	"filipino":      "🌴",
	"french":        "🥐",
	"greek":         "🏛️",
	"indian":        "🪷",
	"irish":         "☘️",
	"italian":       "🍕",
	"jamaican":      "🌴",
	"japanese":      "🗾",
	"korean":        "🥢",
	"malaysian":     "🌺",
	"mexican":       "🌮",
	"moroccan":      "🕌",
	"pakistani":     "🌙",
	"polish":        "🦅",
	"portuguese":    "🚢",
	"russian":       "❄️",
	"spanish":       "💃",
	"thai":          "🛕",
	"tunisian":      "🏜️",
	"turkish":       "🧿",
	"ukrainian":     "🌻",
	"vietnamese":    "🍜",
	"australian":    "🦘",
	"saudi arabian": "🕋",
}

// CategoryEmoji 依分類回傳對應表情符號，未知分類回傳預設值
func CategoryEmoji(category string) string {
	if e, ok := categoryEmojis[strings.ToLower(strings.TrimSpace(category))]; ok {
		return e
	}
	return defaultCategoryEmoji
}

// CuisineFlag 依料理國別回傳對應符號
func CuisineFlag(cuisine string) string {
	if f, ok := cuisineFlags[strings.ToLower(strings.TrimSpace(cuisine))]; ok {
		return f
	}
	return defaultCuisineFlag
}
