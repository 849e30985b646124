// Package timeutil 时间工具测试
package timeutil

import (
	"strings"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"market-data-gateway/internal/apperr"
)

func TestNowRFC3339_Offset(t *testing.T) {
	s := NowRFC3339()
	if !strings.HasSuffix(s, "+08:00") {
		t.Fatalf("时间戳应带 +08:00: %s", s)
	}
}

func TestDateRange_Inclusive(t *testing.T) {
	days, err := DateRange("20240101", "20240103")
	if err != nil {
		t.Fatalf("DateRange 失败: %v", err)
	}
	want := []string{"20240101", "20240102", "20240103"}
	if strings.Join(days, ",") != strings.Join(want, ",") {
		t.Fatalf("期望 %v，实际 %v", want, days)
	}
}

func TestDateRange_Errors(t *testing.T) {
	if _, err := DateRange("20240105", "20240101"); err == nil {
		t.Fatalf("开始日期晚于结束日期应返回错误")
	}
	if _, err := DateRange("2024-01-01", "20240101"); err == nil {
		t.Fatalf("非法格式应返回错误")
	}
	if _, err := DateRange("19000101", "29991231"); err == nil {
		t.Fatalf("超长区间应返回错误")
	}
}

func TestDateRange_MaxSpan(t *testing.T) {
	// 2024 为闰年，全年 366 天
	days, err := DateRange("20240101", "20241231")
	if err != nil {
		t.Fatalf("366 天区间应允许: %v", err)
	}
	if len(days) != MaxRangeDays {
		t.Fatalf("期望 %d 天，实际 %d", MaxRangeDays, len(days))
	}
	if _, err := DateRange("20240101", "20250101"); err == nil {
		t.Fatalf("367 天区间应返回错误")
	}
}

func TestDashed(t *testing.T) {
	if got := Dashed("20240315"); got != "2024-03-15" {
		t.Fatalf("期望 2024-03-15，实际 %s", got)
	}
}

// **Feature: market-data-gateway, Property 3: Date Range Length**

// TestDateRange_Length 测试日期区间长度等于天数差加一
func TestDateRange_Length(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, Location())

	properties.Property("区间长度为天数差加一且严格递增", prop.ForAll(
		func(offset, span int) bool {
			s := base.AddDate(0, 0, offset)
			e := s.AddDate(0, 0, span)
			days, err := DateRange(FormatDate(s), FormatDate(e))
			if err != nil || len(days) != span+1 {
				return false
			}
			for i := 1; i < len(days); i++ {
				if days[i] <= days[i-1] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 2000),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}

func TestCheckDate(t *testing.T) {
	if err := CheckDate("20240315"); err != nil {
		t.Fatalf("合法日期不应报错: %v", err)
	}
	for _, bad := range []string{"", "2024-03-15", "20241345", "abcdefgh"} {
		if err := CheckDate(bad); !apperr.Is(err, apperr.KindBadInput) {
			t.Fatalf("%q 应返回 BadInput，实际 %v", bad, err)
		}
	}
}
