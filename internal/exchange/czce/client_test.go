// Package czce 郑商所适配器测试
package czce

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/transport"
)

var rankRows = [][]string{
	{"郑州商品交易所持仓排名表"},
	{"品种：苹果AP   日期：2024-03-15"},
	{"名次", "会员简称", "成交量", "增减", "会员简称", "持买仓量", "增减", "会员简称", "持卖仓量", "增减"},
	{"1", "中信期货", "1,000", "-10", "国泰君安", "800", "5", "永安期货", "700", "-"},
	{"合计", "", "1000", "", "", "800", "", "", "700", ""},
	{"合约：AP405   日期：2024-03-15"},
	{"名次", "会员简称", "成交量", "增减", "会员简称", "持买仓量", "增减", "会员简称", "持卖仓量", "增减"},
	{"1", "华泰期货", "500", "1", "中信期货", "400", "2", "国泰君安", "300", "3"},
	{"2", "永安期货", "400", "-1", "华泰期货", "300", "-2", "中信期货", "200", "-3"},
	{"3", "短行"},
}

func TestParseRank(t *testing.T) {
	tables := ParseRank(rankRows)
	require.Len(t, tables, 1)

	// 品种级排名不作为合约输出
	_, ok := tables["AP"]
	assert.False(t, ok)

	contract := tables["AP405"]
	require.Len(t, contract, 2)
	assert.Equal(t, "AP", contract[0].Variety)
	assert.Equal(t, int64(500), contract[0].Vol)
	assert.Equal(t, int64(-3), contract[1].ShortOpenInterestChg)
}

// TestParseRank_VarietySectionAfterContract 品种级区段出现在合约之后时，其数据行不归入前一个合约
func TestParseRank_VarietySectionAfterContract(t *testing.T) {
	rows := [][]string{
		{"合约：AP405   日期：2024-03-15"},
		{"1", "华泰期货", "60", "1", "中信期货", "40", "2", "国泰君安", "30", "3"},
		{"品种：苹果AP   日期：2024-03-15"},
		{"1", "中信期货", "100", "-10", "国泰君安", "80", "5", "永安期货", "70", "-"},
		{"合约：SR405   日期：2024-03-15"},
		{"1", "永安期货", "20", "0", "中信期货", "10", "0", "华泰期货", "5", "0"},
	}
	tables := ParseRank(rows)
	require.Len(t, tables, 2)
	require.Len(t, tables["AP405"], 1)
	assert.Equal(t, int64(60), tables["AP405"][0].Vol)
	require.Len(t, tables["SR405"], 1)
	assert.Equal(t, "SR", tables["SR405"][0].Variety)
	for sym, rs := range tables {
		for _, r := range rs {
			assert.Equal(t, sym, r.Symbol)
			assert.NotEqual(t, int64(100), r.Vol)
		}
	}
}

var warehouseRows = [][]string{
	{"郑州商品交易所仓单日报"},
	{"品种：白糖SR  单位：张"},
	{"仓库编号", "仓库简称", "仓单数量", "有效预报", "增减"},
	{"中粮屯河", "100", "20", "-5"},
	{"小计", "100", "20", "-5"},
	{"品种：苹果AP  单位：张"},
	{"仓库简称", "仓单数量", "有效预报", "增减"},
	{"万果", "50", "", "10"},
	{"", "1"},
	{"总计", "50", "", "10"},
}

func TestParseWarehouse(t *testing.T) {
	got := ParseWarehouse(warehouseRows)
	require.Len(t, got, 2)
	assert.Equal(t, "AP", got[0].Symbol)
	assert.Equal(t, "SR", got[1].Symbol)

	sr := got[1].Data
	require.Len(t, sr, 1)
	assert.Equal(t, "中粮屯河", sr[0].Warehouse)
	require.NotNil(t, sr[0].Change)
	assert.Equal(t, int64(-5), *sr[0].Change)

	ap := got[0].Data
	require.Len(t, ap, 1)
	assert.Nil(t, ap[0].ValidForecast)
}

// xlsxOf 将行写入内存中的 xlsx 工作簿
func xlsxOf(t *testing.T, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		require.NoError(t, f.SetSheetRow("Sheet1", fmt.Sprintf("A%d", i+1), &cells))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestClient_RankPicksExtensionAndFallsBack(t *testing.T) {
	book := xlsxOf(t, rankRows)
	var paths []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/2024/20240315/FutureDataHolding.xlsx" {
			w.Write(book)
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	opts.PerHostConcurrency = 1

	// 切换日之前先请求 .xls，失败后回退到 .xlsx
	c := NewClient(transport.New(opts, nil), Endpoints{Future: srv.URL}, "20251102", nil)
	tables, err := c.Rank(context.Background(), "20240315", []string{"ap"})
	require.NoError(t, err)
	assert.Len(t, tables, 1)
	assert.Equal(t, []string{"/2024/20240315/FutureDataHolding.xls", "/2024/20240315/FutureDataHolding.xlsx"}, paths)

	// 切换日之后直接请求 .xlsx
	paths = nil
	c = NewClient(transport.New(opts, nil), Endpoints{Future: srv.URL}, "20240101", nil)
	_, err = c.Rank(context.Background(), "20240315", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"/2024/20240315/FutureDataHolding.xlsx"}, paths)

	// 两种格式都不存在
	_, err = c.Warehouse(context.Background(), "20240316")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestClient_RankVarietyFilter(t *testing.T) {
	book := xlsxOf(t, rankRows)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(book)
	}))
	defer srv.Close()

	c := NewClient(transport.New(transport.DefaultOptions(), nil), Endpoints{Future: srv.URL}, "20240101", nil)
	tables, err := c.Rank(context.Background(), "20240315", []string{"SR"})
	require.NoError(t, err)
	assert.Empty(t, tables)
}
