// Package fastparse 提供上游表格单元格的数值解析。
// 交易所与资讯站点的数字常带千分位逗号、NBSP、"-"/"--"/"–" 占位符或单位后缀，
// 这里统一清洗后交给 decimal 解析，避免二进制浮点在字符串层面引入误差。
package fastparse

import (
	"strings"

	"github.com/shopspring/decimal"
)

// placeholders 表示"无数据"的占位符
var placeholders = map[string]bool{
	"":     true,
	"-":    true,
	"--":   true,
	"---":  true,
	"—":    true,
	"–":    true,
	"null": true,
	"None": true,
}

// Clean 清洗单元格文本
// 去掉 NBSP、全角空格、千分位逗号与首尾空白
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, "\u3000", "")
	s = strings.ReplaceAll(s, ",", "")
	return strings.TrimSpace(s)
}

// IsPlaceholder 判断单元格是否为无数据占位符
func IsPlaceholder(s string) bool {
	return placeholders[Clean(s)]
}

// Decimal 解析为 decimal
// 参数 s: 单元格文本，如 "62,830"、"-176"
// 返回: 解析结果与是否有值
func Decimal(s string) (decimal.Decimal, bool) {
	c := Clean(s)
	if placeholders[c] {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(c)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParseFloat 解析浮点数，占位符与非法文本返回 ok=false
func ParseFloat(s string) (float64, bool) {
	d, ok := Decimal(s)
	if !ok {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// ParseInt 解析整数
// 允许 "1234.0" 这类 Excel 导出的整数形式，小数部分截断
func ParseInt(s string) (int64, bool) {
	d, ok := Decimal(s)
	if !ok {
		return 0, false
	}
	return d.IntPart(), true
}

// MustParseFloat 解析浮点数，失败时返回 0
func MustParseFloat(s string) float64 {
	v, _ := ParseFloat(s)
	return v
}

// MustParseInt 解析整数，失败时返回 0
func MustParseInt(s string) int64 {
	v, _ := ParseInt(s)
	return v
}

// OptFloat 解析可选浮点数，无值返回 nil
func OptFloat(s string) *float64 {
	v, ok := ParseFloat(s)
	if !ok {
		return nil
	}
	return &v
}

// OptInt 解析可选整数，无值返回 nil
func OptInt(s string) *int64 {
	v, ok := ParseInt(s)
	if !ok {
		return nil
	}
	return &v
}

// TrimUnit 去掉单位后缀后解析可选浮点数
// 参数 s: 如 "12%"、"6600元"
// 参数 unit: 单位后缀
func TrimUnit(s, unit string) *float64 {
	return OptFloat(strings.TrimSuffix(Clean(s), unit))
}

// Float 构造可选浮点数
func Float(v float64) *float64 { return &v }

// Int 构造可选整数
func Int(v int64) *int64 { return &v }
