package sina

import (
	"context"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
)

// minStockFields A 股实时行情最少字段数（含日期与时间）
const minStockFields = 32

// StockQuote 获取 A 股实时行情
// 参数 symbol: 带市场前缀的代码，如 sh600000
func (c *Client) StockQuote(ctx context.Context, symbol string) (model.StockQuote, error) {
	body, err := c.get(ctx, "sina_stock_realtime", &transport.Request{
		URL:     c.ep.Realtime + "/list=" + strings.ToLower(symbol),
		Referer: RefererFinance,
		GBK:     true,
	})
	if err != nil {
		return model.StockQuote{}, err
	}
	return ParseStockQuote(string(body), symbol)
}

// ParseStockQuote 解析 A 股实时行情
// 内容取第一个与最后一个双引号之间的部分
func ParseStockQuote(text, symbol string) (model.StockQuote, error) {
	start := strings.IndexByte(text, '"')
	end := strings.LastIndexByte(text, '"')
	if start < 0 || end <= start {
		return model.StockQuote{}, apperr.Parse("无法解析响应数据", []byte(text))
	}
	content := text[start+1 : end]
	if content == "" {
		return model.StockQuote{}, apperr.NotFound("股票代码 %s 可能无效或已退市", symbol)
	}
	f := strings.Split(content, ",")
	if len(f) < minStockFields {
		return model.StockQuote{}, apperr.New(apperr.KindParse, "数据字段不足")
	}

	prev := fastparse.MustParseFloat(f[2])
	current := fastparse.MustParseFloat(f[3])
	change, pct := model.ComputeChange(current, prev)
	if prev <= 0 {
		change = 0
	}
	return model.StockQuote{
		Symbol:        strings.ToUpper(symbol),
		Name:          f[0],
		CurrentPrice:  current,
		Change:        change,
		ChangePercent: pct,
		Open:          fastparse.MustParseFloat(f[1]),
		High:          fastparse.MustParseFloat(f[4]),
		Low:           fastparse.MustParseFloat(f[5]),
		PrevClose:     prev,
		Volume:        toUint(f[8]),
		Amount:        fastparse.MustParseFloat(f[9]),
		UpdatedAt:     f[30] + " " + f[31],
	}, nil
}

// StockHistory 获取 A 股日K线
// 参数 limit: 条数，0 时取 30
func (c *Client) StockHistory(ctx context.Context, symbol string, limit int) ([]model.StockBar, error) {
	body, err := c.get(ctx, "sina_stock_history", &transport.Request{
		URL: c.ep.StockKLine,
		Query: url.Values{
			"symbol":  {strings.ToLower(symbol)},
			"scale":   {"240"},
			"ma":      {"no"},
			"datalen": {formatLimit(limit, 30)},
		},
		Referer: RefererFinance,
	})
	if err != nil {
		return nil, err
	}
	return ParseStockHistory(body, symbol)
}

// ParseStockHistory 解析 A 股日K线
func ParseStockHistory(body []byte, symbol string) ([]model.StockBar, error) {
	arr, err := codec.JSONPArray(body)
	if err != nil {
		return nil, apperr.Parse("解析历史数据失败", body)
	}
	var out []model.StockBar
	for _, it := range arr.Array() {
		out = append(out, model.StockBar{
			Symbol: strings.ToUpper(symbol),
			Date:   it.Get("day").String(),
			Open:   fastparse.MustParseFloat(it.Get("open").String()),
			High:   fastparse.MustParseFloat(it.Get("high").String()),
			Low:    fastparse.MustParseFloat(it.Get("low").String()),
			Close:  fastparse.MustParseFloat(it.Get("close").String()),
			Volume: toUint(it.Get("volume").String()),
		})
	}
	return out, nil
}

// StockList 获取沪深 A 股列表（按代码升序）
// 参数 limit: 条数，0 时取 20
func (c *Client) StockList(ctx context.Context, limit int) ([]model.StockQuote, error) {
	body, err := c.get(ctx, "sina_stock_list", &transport.Request{
		URL: c.ep.StockList,
		Query: url.Values{
			"node": {"hs_a"},
			"page": {"1"},
			"num":  {formatLimit(limit, 20)},
			"sort": {"symbol"},
			"asc":  {"1"},
		},
		Referer: RefererVIP,
		GBK:     true,
	})
	if err != nil {
		return nil, err
	}
	return ParseStockList(body)
}

// ParseStockList 解析 A 股列表
// mktcap 单位为万元，转换为元
func ParseStockList(body []byte) ([]model.StockQuote, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperr.Parse("解析股票列表JSON失败", body)
	}
	now := timeutil.NowRFC3339()
	var out []model.StockQuote
	for _, it := range gjson.ParseBytes(body).Array() {
		mktcap := it.Get("mktcap").Float() * 10000
		out = append(out, model.StockQuote{
			Symbol:        it.Get("symbol").String(),
			Name:          it.Get("name").String(),
			CurrentPrice:  fastparse.MustParseFloat(it.Get("trade").String()),
			Change:        fastparse.MustParseFloat(it.Get("pricechange").String()),
			ChangePercent: fastparse.MustParseFloat(it.Get("changepercent").String()),
			Open:          fastparse.MustParseFloat(it.Get("open").String()),
			High:          fastparse.MustParseFloat(it.Get("high").String()),
			Low:           fastparse.MustParseFloat(it.Get("low").String()),
			PrevClose:     fastparse.MustParseFloat(it.Get("settlement").String()),
			Volume:        toUint(it.Get("volume").String()),
			Amount:        fastparse.MustParseFloat(it.Get("amount").String()),
			MarketCap:     fastparse.Float(mktcap),
			UpdatedAt:     now,
		})
	}
	return out, nil
}
