package recipe

import (
	"strings"
	"unicode"
)

// NormalizeTitle 將任意菜名轉為標準標題：去除前後空白，每個詞首字大寫其餘小寫。
// "." "_" "-" 視為分隔符，例如 "apple.cake" 轉為 "Apple Cake"。
func NormalizeTitle(raw string) string {
	words := strings.FieldsFunc(raw, isTitleSeparator)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

func isTitleSeparator(r rune) bool {
	return unicode.IsSpace(r) || r == '.' || r == '_' || r == '-'
}
