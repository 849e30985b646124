// Package timeutil 提供北京时间相关的工具函数。
// 所有对外时间戳均为 ISO 8601 且带 +08:00 偏移，日期参数统一为 YYYYMMDD。
package timeutil

import (
	"fmt"
	"time"

	"market-data-gateway/internal/apperr"
)

// shanghai 北京时区
// 容器镜像可能缺少 tzdata，加载失败时退化为固定 +08:00 偏移
var shanghai = loadShanghai()

func loadShanghai() *time.Location {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		return time.FixedZone("CST", 8*3600)
	}
	return loc
}

// Location 返回北京时区
func Location() *time.Location { return shanghai }

// Now 获取当前北京时间
func Now() time.Time { return time.Now().In(shanghai) }

// NowRFC3339 获取当前北京时间的 RFC3339 字符串，如 2024-03-15T09:30:00+08:00
func NowRFC3339() string { return Now().Format(time.RFC3339) }

// Today 获取今天的 YYYYMMDD
func Today() string { return Now().Format("20060102") }

// ParseDate 解析 YYYYMMDD
// 返回: 北京时区零点，格式非法时返回错误
func ParseDate(s string) (time.Time, error) {
	if len(s) != 8 {
		return time.Time{}, fmt.Errorf("日期格式应为 YYYYMMDD: %q", s)
	}
	t, err := time.ParseInLocation("20060102", s, shanghai)
	if err != nil {
		return time.Time{}, fmt.Errorf("日期格式应为 YYYYMMDD: %q", s)
	}
	return t, nil
}

// FormatDate 格式化为 YYYYMMDD
func FormatDate(t time.Time) string { return t.Format("20060102") }

// Dashed 将 YYYYMMDD 转为 YYYY-MM-DD，非 8 位原样返回
func Dashed(date string) string {
	if len(date) != 8 {
		return date
	}
	return date[0:4] + "-" + date[4:6] + "-" + date[6:8]
}

// MaxRangeDays 日期区间最多包含的天数
const MaxRangeDays = 366

// DateRange 生成闭区间 [start, end] 内的所有日期
// 参数 start/end: YYYYMMDD
// 返回: 日期列表；开始日期晚于结束日期或区间超过 MaxRangeDays 天时返回错误
func DateRange(start, end string) ([]string, error) {
	s, err := ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("无效的开始日期: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("无效的结束日期: %w", err)
	}
	if s.After(e) {
		return nil, fmt.Errorf("开始日期不能大于结束日期")
	}
	if e.After(s.AddDate(0, 0, MaxRangeDays-1)) {
		return nil, fmt.Errorf("日期区间不能超过 %d 天", MaxRangeDays)
	}
	days := make([]string, 0, MaxRangeDays)
	for d := s; !d.After(e); d = d.AddDate(0, 0, 1) {
		days = append(days, FormatDate(d))
	}
	return days, nil
}

// NowMs 获取当前 Unix 毫秒时间戳
func NowMs() int64 { return time.Now().UnixMilli() }

// CheckDate 校验 YYYYMMDD 日期参数
// 返回: 非法时为 BadInput 错误
func CheckDate(date string) error {
	if _, err := ParseDate(date); err != nil {
		return apperr.BadInput("%v", err)
	}
	return nil
}
