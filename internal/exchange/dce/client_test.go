// Package dce 大商所适配器测试
package dce

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/transport"
)

const m2405 = "大连商品交易所 持仓排名\n" +
	"合约：m2405  日期：2024-03-15\n" +
	"名次\t会员简称\t成交量\t增减\n" +
	"1\t中信期货\t12,000\t-300\n" +
	"2\t国泰君安\t9000\t200\n" +
	"3\t永安期货\t8000\t-\n" +
	"4\t华泰期货\t7000\t10\n" +
	"总计\t\t36000\t\n" +
	"名次\t会员简称\t持买单量\t增减\n" +
	"1\t国泰君安\t5000\t50\n" +
	"2\t中信期货\t4000\t-40\n" +
	"总计\t\t9000\t\n" +
	"名次\t会员简称\t持卖单量\t增减\n" +
	"1\t永安期货\t6000\t60\n" +
	"总计\t\t6000\t\n"

func TestParseRankFile(t *testing.T) {
	rows, err := ParseRankFile(m2405, "M2405")
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, 1, rows[0].Rank)
	assert.Equal(t, "中信期货", rows[0].VolPartyName)
	assert.Equal(t, int64(12000), rows[0].Vol)
	assert.Equal(t, int64(-300), rows[0].VolChg)
	assert.Equal(t, "国泰君安", rows[0].LongPartyName)
	assert.Equal(t, int64(-40), rows[1].LongOpenInterestChg)
	assert.Equal(t, "永安期货", rows[0].ShortPartyName)
	assert.Equal(t, "", rows[1].ShortPartyName)
	assert.Equal(t, int64(0), rows[2].VolChg)
	assert.Equal(t, "M", rows[3].Variety)

	_, err = ParseRankFile("名次\t会员\n", "M2405")
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

func zipOf(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, text := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(text))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseBatchZip(t *testing.T) {
	b := zipOf(t, map[string]string{
		"20240315_m2405_成交量.txt": m2405,
		"20240315_y2405_成交量.txt": strings.ReplaceAll(m2405, "m2405", "y2405"),
		"20240314_m2405_成交量.txt": m2405,
		"readme.txt":             "x",
	})
	tables, err := ParseBatchZip(b, "20240315", nil, nil)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
	assert.Contains(t, tables, "M2405")

	filtered, err := ParseBatchZip(b, "20240315", []string{"y"}, nil)
	require.NoError(t, err)
	assert.Len(t, filtered, 1)
	assert.Contains(t, filtered, "Y2405")

	_, err = ParseBatchZip([]byte("<html>error</html>"), "20240315", nil, nil)
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

const quotesPage = `<html><body>
<div class="selBox"><input type="button" onclick="javascript:setVariety('m');" value="豆粕"/></div>
<input class="selBox" type="button" onclick="setVariety('y')" value="豆油"/>
<input name="contract" type="button" onclick="javascript:setContract_id('2405');" value="m2405"/>
<table><tr><td>查询条件</td></tr></table>
<table>
<tr><td>名次</td><td>会员简称</td><td>成交量</td><td>增减</td><td>名次</td><td>会员简称</td><td>持买单量</td><td>增减</td><td>名次</td><td>会员简称</td><td>持卖单量</td><td>增减</td></tr>
<tr><td>1</td><td>中信期货</td><td>1,000</td><td>-10</td><td>1</td><td>国泰君安</td><td>800</td><td>5</td><td>1</td><td>永安期货</td><td>700</td><td>-3</td></tr>
<tr><td>总计</td><td></td><td>1000</td><td></td><td></td><td></td><td>800</td><td></td><td></td><td></td><td>700</td><td></td></tr>
</table>
</body></html>`

func TestParseHTMLPages(t *testing.T) {
	vars, err := ParseVarietyList([]byte(quotesPage))
	require.NoError(t, err)
	assert.Equal(t, []string{"m", "y"}, vars)

	contracts, err := ParseContractList([]byte(quotesPage), "m")
	require.NoError(t, err)
	assert.Equal(t, []string{"m2405"}, contracts)

	rows, err := ParseRankHTML([]byte(quotesPage), "m2405", "m")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "M2405", rows[0].Symbol)
	assert.Equal(t, "M", rows[0].Variety)
	assert.Equal(t, int64(1000), rows[0].Vol)
	assert.Equal(t, int64(-3), rows[0].ShortOpenInterestChg)
}

func TestParseWarehouse(t *testing.T) {
	body := `{"data":{"entityList":[
	 {"varietyOrder":"m","variety":"豆粕","whAbbr":"中储粮","deliveryAbbr":"大连","lastWbillQty":100,"wbillQty":"120","diff":20},
	 {"varietyOrder":"y","variety":"豆油","whAbbr":"中粮","deliveryAbbr":"","lastWbillQty":"1,000","wbillQty":900,"diff":-100}
	]}}`
	got, err := ParseWarehouse([]byte(body))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "M", got[0].VarietyCode)
	require.NotNil(t, got[0].DeliveryLocation)
	assert.Equal(t, "大连", *got[0].DeliveryLocation)
	assert.Equal(t, int64(120), got[0].TodayReceipt)
	assert.Nil(t, got[1].DeliveryLocation)
	assert.Equal(t, int64(1000), got[1].LastReceipt)
	assert.Equal(t, int64(-100), got[1].Change)

	_, err = ParseWarehouse([]byte(`{"data":{}}`))
	assert.Equal(t, apperr.KindParse, apperr.KindOf(err))
}

func testEndpoints(base string) Endpoints {
	return Endpoints{
		RankPage:      base + "/rank.html",
		BatchDownload: base + "/batchDownload",
		QuotesHTML:    base + "/quotes.html",
		WarehousePage: base + "/cdrb.html",
		Warehouse:     base + "/wbill",
	}
}

func TestClient_RankBatchUsesSessionCookie(t *testing.T) {
	b := zipOf(t, map[string]string{"20240315_m2405_成交量.txt": m2405})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rank.html":
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
		case "/batchDownload":
			if c, err := r.Cookie("JSESSIONID"); err != nil || c.Value != "abc" {
				w.WriteHeader(http.StatusPreconditionFailed)
				return
			}
			raw, _ := io.ReadAll(r.Body)
			var payload map[string]string
			assert.NoError(t, json.Unmarshal(raw, &payload))
			assert.Equal(t, "20240315", payload["tradeDate"])
			assert.Equal(t, "a2601", payload["contractId"])
			assert.Equal(t, "a", payload["varietyId"])
			w.Write(b)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	c := NewClient(transport.New(opts, nil), testEndpoints(srv.URL), "a2601", nil)

	tables, err := c.Rank(context.Background(), "20240315", nil)
	require.NoError(t, err)
	require.Contains(t, tables, "M2405")
	assert.Len(t, tables["M2405"], 4)
}

func TestClient_RankFallsBackToHTML(t *testing.T) {
	var htmlCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/batchDownload":
			w.WriteHeader(http.StatusPreconditionFailed)
		case "/quotes.html":
			htmlCalls.Add(1)
			assert.NoError(t, r.ParseForm())
			assert.Equal(t, "2", r.PostForm.Get("month"))
			w.Write([]byte(quotesPage))
		default:
			w.Write([]byte("ok"))
		}
	}))
	defer srv.Close()

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	c := NewClient(transport.New(opts, nil), testEndpoints(srv.URL), "a2601", nil)

	tables, err := c.Rank(context.Background(), "20240315", []string{"M"})
	require.NoError(t, err)
	require.Contains(t, tables, "M2405")
	// 品种列表 + m 的合约列表 + m2405
	assert.Equal(t, int32(3), htmlCalls.Load())
}

func TestClient_RankBlockedEverywhere(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPreconditionFailed)
	}))
	defer srv.Close()

	opts := transport.DefaultOptions()
	opts.MaxRetries = 0
	c := NewClient(transport.New(opts, nil), testEndpoints(srv.URL), "a2601", nil)

	_, err := c.Rank(context.Background(), "20240315", nil)
	assert.Equal(t, apperr.KindUpstreamBlocked, apperr.KindOf(err))
}
