// Package vocab 维护期货领域词表。
// 包括品种提取、合约月份、基差字符串解析、中文品种名映射与交易所名录。
package vocab

import (
	"strconv"
	"strings"
)

// ExtractVariety 从合约代码提取品种代码
// 取开头连续的英文字母并转大写，如 "a2601" -> "A"，"2024" -> ""
func ExtractVariety(code string) string {
	end := 0
	for end < len(code) && isASCIILetter(code[end]) {
		end++
	}
	return strings.ToUpper(code[:end])
}

// ExtractLetters 提取字符串中全部英文字母并转大写
// 用于 "品种：苹果AP" 这类混排文本
func ExtractLetters(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if isASCIILetter(s[i]) {
			b.WriteByte(s[i])
		}
	}
	return strings.ToUpper(b.String())
}

// ContractMonth 提取合约月份
// 数字不少于 4 位时取最后 4 位，否则返回全部数字
func ContractMonth(code string) string {
	var b strings.Builder
	for i := 0; i < len(code); i++ {
		if code[i] >= '0' && code[i] <= '9' {
			b.WriteByte(code[i])
		}
	}
	digits := b.String()
	if len(digits) >= 4 {
		return digits[len(digits)-4:]
	}
	return digits
}

// ParseBasis 解析基差字符串
// 支持四种形式：
//   - "" -> (0, 0)
//   - "80.03%" -> (0, 80.03)
//   - "-176-0.22%" -> (-176, -0.22)，以最右侧且前一位是数字的正负号切分
//   - "-176" -> (-176, 0)
//
// 无法解析的片段按 0 处理
func ParseBasis(s string) (basis, rate float64) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}

	pct := strings.LastIndexByte(s, '%')
	if pct < 0 {
		return parseOrZero(s), 0
	}

	before := s[:pct]
	if v, err := strconv.ParseFloat(before, 64); err == nil {
		return 0, v
	}

	for i := len(before) - 1; i >= 1; i-- {
		c := before[i]
		if (c == '-' || c == '+') && before[i-1] >= '0' && before[i-1] <= '9' {
			return parseOrZero(before[:i]), parseOrZero(before[i:])
		}
	}
	return 0, parseOrZero(before)
}

func parseOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// IsLetters 判断字符串是否全部为英文字母（非空）
func IsLetters(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isASCIILetter(s[i]) {
			return false
		}
	}
	return true
}
