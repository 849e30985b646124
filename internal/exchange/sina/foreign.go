package sina

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
)

// ForeignSymbols 外盘期货品种名录
var ForeignSymbols = []model.ForeignSymbol{
	{Symbol: "新加坡铁矿石", Code: "FEF"},
	{Symbol: "马棕油", Code: "FCPO"},
	{Symbol: "日橡胶", Code: "RSS3"},
	{Symbol: "美国原糖", Code: "RS"},
	{Symbol: "CME比特币期货", Code: "BTC"},
	{Symbol: "NYBOT-棉花", Code: "CT"},
	{Symbol: "LME镍3个月", Code: "NID"},
	{Symbol: "LME铅3个月", Code: "PBD"},
	{Symbol: "LME锡3个月", Code: "SND"},
	{Symbol: "LME锌3个月", Code: "ZSD"},
	{Symbol: "LME铝3个月", Code: "AHD"},
	{Symbol: "LME铜3个月", Code: "CAD"},
	{Symbol: "CBOT-黄豆", Code: "S"},
	{Symbol: "CBOT-小麦", Code: "W"},
	{Symbol: "CBOT-玉米", Code: "C"},
	{Symbol: "CBOT-黄豆油", Code: "BO"},
	{Symbol: "CBOT-黄豆粉", Code: "SM"},
	{Symbol: "COMEX铜", Code: "HG"},
	{Symbol: "NYMEX天然气", Code: "NG"},
	{Symbol: "NYMEX原油", Code: "CL"},
	{Symbol: "COMEX白银", Code: "SI"},
	{Symbol: "COMEX黄金", Code: "GC"},
	{Symbol: "布伦特原油", Code: "OIL"},
	{Symbol: "伦敦金", Code: "XAU"},
	{Symbol: "伦敦银", Code: "XAG"},
	{Symbol: "伦敦铂金", Code: "XPT"},
	{Symbol: "伦敦钯金", Code: "XPD"},
	{Symbol: "欧洲碳排放", Code: "EUA"},
}

// foreignName 外盘代码对应的中文名，未知代码返回代码本身
func foreignName(code string) string {
	for _, s := range ForeignSymbols {
		if strings.EqualFold(s.Code, code) {
			return s.Symbol
		}
	}
	return code
}

// 外盘实时行情字段下标
const (
	foreignCurrent      = 0
	foreignHigh         = 4
	foreignLow          = 5
	foreignPrevSettle   = 7
	foreignOpen         = 8
	foreignOpenInterest = 9
	minForeignFields    = 13
)

// ForeignQuotes 批量获取外盘期货实时行情
// 参数 codes: 外盘代码，如 CL、GC
func (c *Client) ForeignQuotes(ctx context.Context, codes []string) ([]model.FuturesQuote, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	list := make([]string, len(codes))
	for i, code := range codes {
		list[i] = "hf_" + strings.ToUpper(strings.TrimSpace(code))
	}
	body, err := c.get(ctx, "sina_foreign_realtime", &transport.Request{
		URL:     c.ep.Realtime + "?list=" + strings.Join(list, ","),
		Referer: RefererFinance,
		GBK:     true,
	})
	if err != nil {
		return nil, err
	}
	quotes, failed := ParseForeignRealtime(string(body), codes)
	for code, ferr := range failed {
		c.logger.Warn("解析外盘行情失败", zap.String("code", code), zap.Error(ferr))
	}
	return quotes, nil
}

// ParseForeignRealtime 解析外盘实时行情
// 外盘接口不提供成交量，volume 固定为 0
func ParseForeignRealtime(text string, codes []string) ([]model.FuturesQuote, map[string]error) {
	failed := make(map[string]error)
	now := timeutil.NowRFC3339()
	var out []model.FuturesQuote
	for i, rec := range splitRecords(text) {
		code := rec.code
		if code == "" && i < len(codes) {
			code = strings.ToUpper(codes[i])
		}
		f := rec.fields
		if len(f) < minForeignFields {
			failed[code] = apperr.New(apperr.KindParse,
				fmt.Sprintf("数据字段不足: 期望至少%d个，实际%d个", minForeignFields, len(f)))
			continue
		}
		current := fastparse.MustParseFloat(f[foreignCurrent])
		prev := fastparse.MustParseFloat(f[foreignPrevSettle])
		change, pct := model.ComputeChange(current, prev)
		out = append(out, model.FuturesQuote{
			Symbol:         code,
			Name:           foreignName(code),
			CurrentPrice:   current,
			Change:         change,
			ChangePercent:  pct,
			Open:           fastparse.MustParseFloat(f[foreignOpen]),
			High:           fastparse.MustParseFloat(f[foreignHigh]),
			Low:            fastparse.MustParseFloat(f[foreignLow]),
			PrevSettlement: fastparse.Float(prev),
			OpenInterest:   optUint(f[foreignOpenInterest]),
			UpdatedAt:      now,
		})
	}
	return out, failed
}

// ForeignHistory 获取外盘期货日K线
func (c *Client) ForeignHistory(ctx context.Context, code string) ([]model.ForeignBar, error) {
	token := timeutil.Now().Format("2006_1_2")
	body, err := c.get(ctx, "sina_foreign_history", &transport.Request{
		URL:     c.ep.JSONP + "/var%20_S" + token + "=/GlobalFuturesService.getGlobalFuturesDailyKLine",
		Query:   url.Values{"symbol": {strings.ToUpper(code)}, "_": {token}, "source": {"web"}},
		Referer: RefererFinance,
	})
	if err != nil {
		return nil, err
	}
	return ParseForeignHistory(body)
}

// ParseForeignHistory 解析外盘日K线
// 取第一个 "[" 到最后一个 "]" 之间的数组，数值字段可能是字符串或数字
func ParseForeignHistory(body []byte) ([]model.ForeignBar, error) {
	s := string(body)
	start := strings.IndexByte(s, '[')
	end := strings.LastIndexByte(s, ']')
	if start < 0 || end <= start {
		return nil, apperr.Parse("外盘K线数据格式异常", body)
	}
	arr, err := codec.JSONPArray([]byte(s[start : end+1]))
	if err != nil {
		return nil, apperr.Parse("解析外盘K线失败", body)
	}

	var out []model.ForeignBar
	for _, it := range arr.Array() {
		date := it.Get("date").String()
		if date == "" {
			continue
		}
		out = append(out, model.ForeignBar{
			Date:   date,
			Open:   fastparse.MustParseFloat(it.Get("open").String()),
			High:   fastparse.MustParseFloat(it.Get("high").String()),
			Low:    fastparse.MustParseFloat(it.Get("low").String()),
			Close:  fastparse.MustParseFloat(it.Get("close").String()),
			Volume: toUint(it.Get("volume").String()),
		})
	}
	return out, nil
}

// foreignDetailTable 详情页中合约规格表的下标
const foreignDetailTable = 6

// ForeignDetail 获取外盘合约规格
func (c *Client) ForeignDetail(ctx context.Context, code string) (model.ForeignDetail, error) {
	body, err := c.get(ctx, "sina_foreign_detail", &transport.Request{
		URL: c.ep.QuotesPage + "/" + strings.ToUpper(code) + ".shtml",
		GBK: true,
	})
	if err != nil {
		return model.ForeignDetail{}, err
	}
	return ParseForeignDetail(body)
}

// ParseForeignDetail 解析外盘详情页
// 表格多于 7 个时取第 7 个，否则取最后一个；每行含一到两组 名称/值
func ParseForeignDetail(html []byte) (model.ForeignDetail, error) {
	doc, err := codec.ParseHTML(html)
	if err != nil {
		return model.ForeignDetail{}, apperr.Wrap(apperr.KindParse, err, "解析外盘详情页面失败")
	}
	tables := doc.Find("table")
	if tables.Length() == 0 {
		return model.ForeignDetail{}, apperr.NotFound("外盘详情页面没有表格")
	}
	idx := tables.Length() - 1
	if tables.Length() > foreignDetailTable {
		idx = foreignDetailTable
	}

	detail := model.ForeignDetail{Items: []model.DetailItem{}}
	tables.Eq(idx).Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := codec.RowCells(tr, "th,td")
		for i := 0; i+1 < len(cells) && i < 4; i += 2 {
			if cells[i] == "" || cells[i+1] == "" {
				continue
			}
			detail.Items = append(detail.Items, model.DetailItem{Name: cells[i], Value: cells[i+1]})
		}
	})
	return detail, nil
}
