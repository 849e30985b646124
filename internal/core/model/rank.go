package model

import (
	"sort"
	"strings"
)

// RankRow 会员持仓排名行
// 成交量、持多单、持空单三组名次并排
type RankRow struct {
	Rank                 int    `json:"rank"`
	VolPartyName         string `json:"vol_party_name"`
	Vol                  int64  `json:"vol"`
	VolChg               int64  `json:"vol_chg"`
	LongPartyName        string `json:"long_party_name"`
	LongOpenInterest     int64  `json:"long_open_interest"`
	LongOpenInterestChg  int64  `json:"long_open_interest_chg"`
	ShortPartyName       string `json:"short_party_name"`
	ShortOpenInterest    int64  `json:"short_open_interest"`
	ShortOpenInterestChg int64  `json:"short_open_interest_chg"`
	// Symbol 合约代码
	Symbol string `json:"symbol"`
	// Variety 品种代码
	Variety string `json:"variety"`
}

// RankTable 单个合约的排名表
type RankTable struct {
	Symbol string    `json:"symbol"`
	Data   []RankRow `json:"data"`
}

// RankTables 合约代码到排名行
type RankTables map[string][]RankRow

// Sorted 按合约代码排序输出
func (t RankTables) Sorted() []RankTable {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]RankTable, 0, len(keys))
	for _, k := range keys {
		rows := t[k]
		sort.SliceStable(rows, func(i, j int) bool { return rows[i].Rank < rows[j].Rank })
		out = append(out, RankTable{Symbol: k, Data: rows})
	}
	return out
}

// Merge 合并另一组排名表，同名合约追加
func (t RankTables) Merge(other RankTables) {
	for k, rows := range other {
		t[k] = append(t[k], rows...)
	}
}

// RankSum 持仓排名汇总
// 每个 topN 字段是 rank <= N 的行之和
type RankSum struct {
	Symbol  string `json:"symbol"`
	Variety string `json:"variety"`

	VolTop5                  int64 `json:"vol_top5"`
	VolChgTop5               int64 `json:"vol_chg_top5"`
	LongOpenInterestTop5     int64 `json:"long_open_interest_top5"`
	LongOpenInterestChgTop5  int64 `json:"long_open_interest_chg_top5"`
	ShortOpenInterestTop5    int64 `json:"short_open_interest_top5"`
	ShortOpenInterestChgTop5 int64 `json:"short_open_interest_chg_top5"`

	VolTop10                  int64 `json:"vol_top10"`
	VolChgTop10               int64 `json:"vol_chg_top10"`
	LongOpenInterestTop10     int64 `json:"long_open_interest_top10"`
	LongOpenInterestChgTop10  int64 `json:"long_open_interest_chg_top10"`
	ShortOpenInterestTop10    int64 `json:"short_open_interest_top10"`
	ShortOpenInterestChgTop10 int64 `json:"short_open_interest_chg_top10"`

	VolTop15                  int64 `json:"vol_top15"`
	VolChgTop15               int64 `json:"vol_chg_top15"`
	LongOpenInterestTop15     int64 `json:"long_open_interest_top15"`
	LongOpenInterestChgTop15  int64 `json:"long_open_interest_chg_top15"`
	ShortOpenInterestTop15    int64 `json:"short_open_interest_top15"`
	ShortOpenInterestChgTop15 int64 `json:"short_open_interest_chg_top15"`

	VolTop20                  int64 `json:"vol_top20"`
	VolChgTop20               int64 `json:"vol_chg_top20"`
	LongOpenInterestTop20     int64 `json:"long_open_interest_top20"`
	LongOpenInterestChgTop20  int64 `json:"long_open_interest_chg_top20"`
	ShortOpenInterestTop20    int64 `json:"short_open_interest_top20"`
	ShortOpenInterestChgTop20 int64 `json:"short_open_interest_chg_top20"`

	// Date 交易日 YYYYMMDD
	Date string `json:"date"`
}

// bucket 单个 topN 的六项和
type bucket struct {
	vol, volChg, long, longChg, short, shortChg int64
}

func sumTop(rows []RankRow, n int) bucket {
	var b bucket
	for _, r := range rows {
		if r.Rank > n {
			continue
		}
		b.vol += r.Vol
		b.volChg += r.VolChg
		b.long += r.LongOpenInterest
		b.longChg += r.LongOpenInterestChg
		b.short += r.ShortOpenInterest
		b.shortChg += r.ShortOpenInterestChg
	}
	return b
}

// SumRows 计算一组排名行的 top5/10/15/20 汇总
func SumRows(symbol, variety, date string, rows []RankRow) RankSum {
	s := RankSum{Symbol: symbol, Variety: variety, Date: date}

	b := sumTop(rows, 5)
	s.VolTop5, s.VolChgTop5 = b.vol, b.volChg
	s.LongOpenInterestTop5, s.LongOpenInterestChgTop5 = b.long, b.longChg
	s.ShortOpenInterestTop5, s.ShortOpenInterestChgTop5 = b.short, b.shortChg

	b = sumTop(rows, 10)
	s.VolTop10, s.VolChgTop10 = b.vol, b.volChg
	s.LongOpenInterestTop10, s.LongOpenInterestChgTop10 = b.long, b.longChg
	s.ShortOpenInterestTop10, s.ShortOpenInterestChgTop10 = b.short, b.shortChg

	b = sumTop(rows, 15)
	s.VolTop15, s.VolChgTop15 = b.vol, b.volChg
	s.LongOpenInterestTop15, s.LongOpenInterestChgTop15 = b.long, b.longChg
	s.ShortOpenInterestTop15, s.ShortOpenInterestChgTop15 = b.short, b.shortChg

	b = sumTop(rows, 20)
	s.VolTop20, s.VolChgTop20 = b.vol, b.volChg
	s.LongOpenInterestTop20, s.LongOpenInterestChgTop20 = b.long, b.longChg
	s.ShortOpenInterestTop20, s.ShortOpenInterestChgTop20 = b.short, b.shortChg

	return s
}

// Add 累加另一条汇总的各项 topN 值，合约与日期不变
func (s *RankSum) Add(o RankSum) {
	s.VolTop5 += o.VolTop5
	s.VolChgTop5 += o.VolChgTop5
	s.LongOpenInterestTop5 += o.LongOpenInterestTop5
	s.LongOpenInterestChgTop5 += o.LongOpenInterestChgTop5
	s.ShortOpenInterestTop5 += o.ShortOpenInterestTop5
	s.ShortOpenInterestChgTop5 += o.ShortOpenInterestChgTop5

	s.VolTop10 += o.VolTop10
	s.VolChgTop10 += o.VolChgTop10
	s.LongOpenInterestTop10 += o.LongOpenInterestTop10
	s.LongOpenInterestChgTop10 += o.LongOpenInterestChgTop10
	s.ShortOpenInterestTop10 += o.ShortOpenInterestTop10
	s.ShortOpenInterestChgTop10 += o.ShortOpenInterestChgTop10

	s.VolTop15 += o.VolTop15
	s.VolChgTop15 += o.VolChgTop15
	s.LongOpenInterestTop15 += o.LongOpenInterestTop15
	s.LongOpenInterestChgTop15 += o.LongOpenInterestChgTop15
	s.ShortOpenInterestTop15 += o.ShortOpenInterestTop15
	s.ShortOpenInterestChgTop15 += o.ShortOpenInterestChgTop15

	s.VolTop20 += o.VolTop20
	s.VolChgTop20 += o.VolChgTop20
	s.LongOpenInterestTop20 += o.LongOpenInterestTop20
	s.LongOpenInterestChgTop20 += o.LongOpenInterestChgTop20
	s.ShortOpenInterestTop20 += o.ShortOpenInterestTop20
	s.ShortOpenInterestChgTop20 += o.ShortOpenInterestChgTop20
}

// IsSubtotal 判断名称是否为合计类标记
func IsSubtotal(name string) bool {
	for _, m := range subtotalMarks {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

var subtotalMarks = []string{"合计", "总计", "小计"}
