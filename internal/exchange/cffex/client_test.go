// Package cffex 中金所适配器测试
package cffex

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/transport"
)

const ifCSV = "交易日,合约,名次,成交量排名,,,持买单量排名,,,持卖单量排名,,\r\n" +
	"交易日,合约,名次,会员简称,成交量,比上一交易日增减,会员简称,持买单量,比上一交易日增减,会员简称,持卖单量,比上一交易日增减\r\n" +
	"20240315,IF2403,1,中信期货,12345,-100,国泰君安,8000,50,海通期货,9000,-20\r\n" +
	"20240315,IF2403,2,华泰期货,10000,20,中信期货,7000,-5,国泰君安,8500,10\r\n" +
	"20240315,IF2404,1,中信期货,500,5,国泰君安,300,0,海通期货,200,1\r\n" +
	"20240315,IF2404,x,bad,1,1,1,1,1,1,1,1\r\n"

func TestParseRank(t *testing.T) {
	tables := ParseRank(ifCSV)
	require.Len(t, tables, 2)
	require.Len(t, tables["IF2403"], 2)

	r := tables["IF2403"][0]
	assert.Equal(t, 1, r.Rank)
	assert.Equal(t, "中信期货", r.VolPartyName)
	assert.Equal(t, int64(12345), r.Vol)
	assert.Equal(t, int64(-100), r.VolChg)
	assert.Equal(t, int64(9000), r.ShortOpenInterest)
	assert.Equal(t, "IF", r.Variety)
	assert.Len(t, tables["IF2404"], 1)
}

func TestClient_RankFetchesRequestedVarieties(t *testing.T) {
	gbk, err := simplifiedchinese.GBK.NewEncoder().String(ifCSV)
	require.NoError(t, err)

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		switch r.URL.Path {
		case "/202403/15/IF_1.csv":
			w.Write([]byte(gbk))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	c := NewClient(transport.New(opts, nil), Endpoints{Rank: srv.URL}, nil)

	tables, err := c.Rank(context.Background(), "20240315", []string{"if", "T", "CU"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	require.Contains(t, tables, "IF2403")
	assert.Equal(t, "中信期货", tables["IF2403"][0].VolPartyName)
	for sym := range tables {
		assert.True(t, strings.HasPrefix(sym, "IF"))
	}
}

func TestClient_RankBlocked(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	c := NewClient(transport.New(opts, nil), Endpoints{Rank: srv.URL}, nil)

	_, err := c.Rank(context.Background(), "20240315", []string{"IF"})
	assert.Equal(t, apperr.KindUpstreamBlocked, apperr.KindOf(err))
}
