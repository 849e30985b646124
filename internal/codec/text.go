package codec

import (
	"regexp"
	"strings"
)

// SplitLines 按行切分文本，兼容 \r\n
func SplitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// SplitFields 切分制表符分隔的行，无制表符时按空白切分
// 返回的字段已去掉首尾空白，空字段保留
func SplitFields(line string) []string {
	var parts []string
	if strings.Contains(line, "\t") {
		parts = strings.Split(line, "\t")
	} else {
		parts = strings.Fields(line)
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// SplitCSV 切分一行无引号的 CSV
// 交易所 CSV 不含带逗号的字段，字段去掉首尾空白
func SplitCSV(line string) []string {
	parts := strings.Split(line, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

// StripTags 去掉 HTML 标签并规整空白
func StripTags(s string) string {
	return CellText(tagRe.ReplaceAllString(s, " "))
}
