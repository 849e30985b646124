// Package service 门面测试
package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/exchange/sina"
	"market-data-gateway/internal/transport"
)

const symbolJS = `ARRFUTURESNODES = {
	czce: ['郑州商品交易所', ['PTA', 'pta_qh', '16'], ['白糖', 'baitang_qh', '16']],
	dce: ['大连商品交易所', ['豆一', 'dou1_qh', '16']],
	shfe: ['上海期货交易所', ['沪铜', 'tong_qh', '16']],
	cffex: ['中国金融期货交易所', ['沪深300', 'hs300_qh', '16']],
	gfex: ['广州期货交易所', ['工业硅', 'gyg_qh', '16']]
};`

const tongList = `[{"symbol":"CU2406","name":"沪铜2406","trade":"70000","presettlement":"69000","position":"1200"},
{"symbol":"CU0","name":"沪铜连续","trade":"70000","presettlement":"69000","position":"100"}]`

// newTestFutures 创建只含新浪适配器的门面，返回品种映射下载次数
func newTestFutures(t *testing.T) (*Futures, *int32) {
	t.Helper()
	var jsCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/symbols.js":
			atomic.AddInt32(&jsCalls, 1)
			w.Write([]byte(symbolJS))
		case "/list":
			if r.URL.Query().Get("node") == "tong_qh" {
				w.Write([]byte(tongList))
				return
			}
			w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	ep := sina.DefaultEndpoints()
	ep.SymbolJS = srv.URL + "/symbols.js"
	ep.FuturesList = srv.URL + "/list"
	s := sina.NewClient(transport.New(opts, nil), ep, nil)
	return NewFutures(Sources{Sina: s}, nil), &jsCalls
}

func TestFutures_SymbolMapIsMemoized(t *testing.T) {
	f, calls := newTestFutures(t)
	ctx := context.Background()

	all, err := f.Symbols(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 6)

	shfe, err := f.ExchangeSymbols(ctx, "ine")
	require.NoError(t, err)
	require.Len(t, shfe, 1)
	assert.Equal(t, "tong_qh", shfe[0].Mark)

	_, err = f.ExchangeSymbols(ctx, "LME")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestFutures_RealtimeByVariety(t *testing.T) {
	f, _ := newTestFutures(t)
	ctx := context.Background()

	// 包含匹配："铜" 命中 "沪铜"
	quotes, err := f.RealtimeByVariety(ctx, "铜")
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.Equal(t, "CU2406", quotes[0].Symbol)

	_, err = f.RealtimeByVariety(ctx, "比特币")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestFutures_MainAndDisplay(t *testing.T) {
	f, _ := newTestFutures(t)
	ctx := context.Background()

	main, err := f.MainContracts(ctx, "SHFE")
	require.NoError(t, err)
	assert.Equal(t, []string{"CU2406"}, main)

	display, err := f.DisplayMain(ctx)
	require.NoError(t, err)
	require.Len(t, display, 1)
	assert.Equal(t, "CU0", display[0].Symbol)
	assert.Equal(t, "SHFE", display[0].Exchange)
}

func TestFutures_InputValidation(t *testing.T) {
	f, _ := newTestFutures(t)
	ctx := context.Background()

	_, err := f.Quotes(ctx, nil)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = f.ForeignQuotes(ctx, []string{})
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = f.HoldPosition(ctx, "持仓", "OI2501", "20240315")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = f.MainDaily(ctx, "V0", "20240301", "2024-03-10")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = f.MainDaily(ctx, "V0", "20240310", "20240301")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = f.RankTable(ctx, "lme", "20240315", nil)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))

	_, err = f.Inventory99(ctx, "")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
}

func TestFutures_RankSumSkipsUnconfigured(t *testing.T) {
	f, _ := newTestFutures(t)
	got, err := f.RankSum(context.Background(), "20240315", nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = f.RankTable(context.Background(), "shfe", "20240315", nil)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestStocks_SymbolValidation(t *testing.T) {
	s := NewStocks(nil, nil)
	_, err := s.Quote(context.Background(), "600000")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
	_, err = s.History(context.Background(), "sh60000", 10)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
}
