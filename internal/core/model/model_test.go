// Package model 领域记录测试
package model

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// **Feature: market-data-gateway, Property 9: Percent Convention**

// TestComputeChange_Percent 测试涨跌幅为百分比单位
func TestComputeChange_Percent(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("prev > 0 时涨跌幅等于 (cur-prev)/prev*100", prop.ForAll(
		func(cur, prev float64) bool {
			change, pct := ComputeChange(cur, prev)
			want := (cur - prev) / prev * 100
			return change == cur-prev && math.Abs(pct-want) < 1e-9
		},
		gen.Float64Range(0, 1e6),
		gen.Float64Range(0.01, 1e6),
	))

	properties.Property("prev 非正时涨跌幅为 0", prop.ForAll(
		func(cur, prev float64) bool {
			_, pct := ComputeChange(cur, prev)
			return pct == 0
		},
		gen.Float64Range(0, 1e6),
		gen.Float64Range(-1e6, 0),
	))

	properties.TestingRun(t)
}

// **Feature: market-data-gateway, Property 10: Summary Consistency**

// TestSumRows_Monotonic 测试非负排名行的汇总随 topN 单调不减
func TestSumRows_Monotonic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("top20 >= top15 >= top10 >= top5 >= 0", prop.ForAll(
		func(vols []int64) bool {
			rows := make([]RankRow, len(vols))
			for i, v := range vols {
				rows[i] = RankRow{Rank: i + 1, Vol: v, LongOpenInterest: v / 2, ShortOpenInterest: v / 3}
			}
			s := SumRows("CU2405", "CU", "20240315", rows)
			return s.VolTop5 >= 0 &&
				s.VolTop10 >= s.VolTop5 && s.VolTop15 >= s.VolTop10 && s.VolTop20 >= s.VolTop15 &&
				s.LongOpenInterestTop10 >= s.LongOpenInterestTop5 &&
				s.ShortOpenInterestTop10 >= s.ShortOpenInterestTop5
		},
		gen.SliceOf(gen.Int64Range(0, 1_000_000)),
	))

	properties.TestingRun(t)
}

func TestSumRows_Top5(t *testing.T) {
	var rows []RankRow
	for i := 1; i <= 7; i++ {
		rows = append(rows, RankRow{Rank: i, Vol: int64(i * 10), VolChg: -1})
	}
	s := SumRows("CU2405", "CU", "20240315", rows)
	if s.VolTop5 != 150 || s.VolChgTop5 != -5 {
		t.Fatalf("top5 错误: %+v", s)
	}
	if s.VolTop10 != 280 {
		t.Fatalf("top10 错误: %d", s.VolTop10)
	}
}

func TestRankTables_Sorted(t *testing.T) {
	tables := RankTables{
		"RB2410": {{Rank: 2}, {Rank: 1}},
		"CU2405": {{Rank: 1}},
	}
	out := tables.Sorted()
	if out[0].Symbol != "CU2405" || out[1].Data[0].Rank != 1 {
		t.Fatalf("排序错误: %+v", out)
	}
}

func TestParseHoldPosType(t *testing.T) {
	cases := map[string]int{"成交量": 2, "vol": 2, "多单": 3, "long": 3, "空单持仓": 4, "short": 4}
	for in, idx := range cases {
		typ, ok := ParseHoldPosType(in)
		if !ok || typ.TableIndex() != idx {
			t.Fatalf("%q: 期望表格 %d", in, idx)
		}
	}
	if _, ok := ParseHoldPosType("unknown"); ok {
		t.Fatalf("未知类型应失败")
	}
}

func TestIsSubtotal(t *testing.T) {
	if !IsSubtotal("合计") || !IsSubtotal("期货公司小计") || IsSubtotal("永安期货") {
		t.Fatalf("合计判断错误")
	}
}
