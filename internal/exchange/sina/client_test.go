package sina

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
)

// newTestClient 创建指向本地服务的适配器
func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	ep := Endpoints{
		Realtime:    srv.URL,
		FuturesList: srv.URL + "/list",
		SymbolJS:    srv.URL + "/symbols.js",
		JSONP:       srv.URL + "/jsonp.php",
		HoldPos:     srv.URL + "/holdpos",
		QuotesPage:  srv.URL + "/quotes",
		StockKLine:  srv.URL + "/kline",
		StockList:   srv.URL + "/stocks",
	}
	return NewClient(transport.New(opts, nil), ep, nil)
}

func TestClient_QuoteSendsRefererAndList(t *testing.T) {
	var gotPath, gotReferer string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotReferer = r.Header.Get("Referer")
		w.Write([]byte(cuLine()))
	})

	q, err := c.Quote(context.Background(), "CU2405")
	require.NoError(t, err)
	assert.Equal(t, "CU2405", q.Symbol)
	assert.True(t, strings.HasPrefix(gotPath, "/rn="))
	assert.True(t, strings.HasSuffix(gotPath, "&list=nf_CU2405"))
	assert.Equal(t, RefererVIP, gotReferer)
}

func TestClient_QuoteEmpty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`var hq_str_nf_ZZZ999="";`))
	})
	_, err := c.Quote(context.Background(), "ZZZ999")
	require.Error(t, err)
	assert.Equal(t, "API返回空数据", err.Error())
}

func TestClient_HoldPositionBanned(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-03-15", r.URL.Query().Get("t_date"))
		w.Write([]byte("<html>拒绝访问</html>"))
	})
	_, err := c.HoldPosition(context.Background(), model.HoldPosVolume, "OI2501", "20240315")
	assert.Equal(t, apperr.KindUpstreamBlocked, apperr.KindOf(err))

	_, err = c.HoldPosition(context.Background(), model.HoldPosVolume, "OI2501", "2024-03-15")
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
}

func TestClient_HoldPositionStatus456(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(456)
	})
	_, err := c.HoldPosition(context.Background(), model.HoldPosLong, "OI2501", "20240315")
	assert.Equal(t, apperr.KindUpstreamBlocked, apperr.KindOf(err))
}

func TestClient_ByNodeQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/list", r.URL.Path)
		assert.Equal(t, "tong_qh", q.Get("node"))
		assert.Equal(t, "position", q.Get("sort"))
		assert.Equal(t, "0", q.Get("asc"))
		w.Write([]byte(`[{"symbol":"CU2405","name":"沪铜2405","trade":"1","position":"5"}]`))
	})
	quotes, err := c.ByNode(context.Background(), "tong_qh", 1)
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "CU2405", quotes[0].Symbol)
}

func TestClient_MinuteRejectsPeriod(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("不应发出请求")
	})
	_, err := c.Minute(context.Background(), "CU2405", 7)
	assert.Equal(t, apperr.KindBadInput, apperr.KindOf(err))
}

func TestClient_MainDailyPath(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.URL.Path, "/jsonp.php/var _V0"))
		assert.Equal(t, "V0", r.URL.Query().Get("symbol"))
		w.Write([]byte(`var _V0=([{"d":"2024-03-01","o":"1","h":"1","l":"1","c":"1","v":"1","p":"7","s":"1"}]);`))
	})
	bars, err := c.MainDaily(context.Background(), "V0", "", "")
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, uint64(7), bars[0].Hold)
}

func TestClient_ForeignQuotesRawList(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "list=hf_CL,hf_GC", r.URL.RawQuery)
		w.Write([]byte(`var hq_str_hf_CL="78.5,,1,1,79,77,t,78,78.1,1,1,1,d";`))
	})
	quotes, err := c.ForeignQuotes(context.Background(), []string{"cl", "GC"})
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	assert.Equal(t, "NYMEX原油", quotes[0].Name)
}
