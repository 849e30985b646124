package sina

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/tidwall/gjson"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
)

// MinutePeriods 分钟K线支持的周期
var MinutePeriods = []int{1, 5, 15, 30, 60}

// ValidMinutePeriod 判断分钟周期是否受支持
func ValidMinutePeriod(p int) bool {
	for _, v := range MinutePeriods {
		if v == p {
			return true
		}
	}
	return false
}

// Daily 获取合约日K线
// 参数 limit: 保留最近的条数，0 表示全部
func (c *Client) Daily(ctx context.Context, symbol string, limit int) ([]model.FuturesBar, error) {
	body, err := c.get(ctx, "sina_daily", &transport.Request{
		URL:     c.ep.JSONP + "/var%20_temp=/InnerFuturesNewService.getDailyKLine",
		Query:   url.Values{"symbol": {symbol}},
		Referer: RefererFinance,
	})
	if err != nil {
		return nil, err
	}
	return ParseBars(body, symbol, true, limit)
}

// Minute 获取合约分钟K线
// 参数 period: 1/5/15/30/60
func (c *Client) Minute(ctx context.Context, symbol string, period int) ([]model.FuturesBar, error) {
	if !ValidMinutePeriod(period) {
		return nil, apperr.BadInput("无效的周期: %d，支持 1/5/15/30/60", period)
	}
	body, err := c.get(ctx, "sina_minute", &transport.Request{
		URL:     c.ep.JSONP + "/=/InnerFuturesNewService.getFewMinLine",
		Query:   url.Values{"symbol": {symbol}, "type": {fmt.Sprint(period)}},
		Referer: RefererFinance,
	})
	if err != nil {
		return nil, err
	}
	return ParseBars(body, symbol, false, 0)
}

// ParseBars 解析K线响应
// 元素为 {d,o,h,l,c,v,p,s} 对象或等长数组；结果按日期升序且日期唯一
// 参数 withSettle: 是否读取结算价（分钟线没有）
// 参数 limit: 保留最后 limit 条，0 表示全部
func ParseBars(body []byte, symbol string, withSettle bool, limit int) ([]model.FuturesBar, error) {
	arr, err := codec.JSONPArray(body)
	if err != nil {
		return nil, apperr.Parse("解析K线数据失败", body)
	}

	var bars []model.FuturesBar
	for _, it := range arr.Array() {
		f := klineFields(it)
		if f.date == "" {
			continue
		}
		bar := model.FuturesBar{
			Symbol:       symbol,
			Date:         f.date,
			Open:         fastparse.MustParseFloat(f.open),
			High:         fastparse.MustParseFloat(f.high),
			Low:          fastparse.MustParseFloat(f.low),
			Close:        fastparse.MustParseFloat(f.close),
			Volume:       toUint(f.volume),
			OpenInterest: optUint(f.hold),
		}
		if withSettle {
			bar.Settlement = fastparse.OptFloat(f.settle)
		}
		bars = append(bars, bar)
	}

	bars = sortUniqueBars(bars)
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}
	return bars, nil
}

// kline 一根K线的原始字段
type kline struct {
	date, open, high, low, close, volume, hold, settle string
}

// klineFields 兼容对象与数组两种元素形式
func klineFields(it gjson.Result) kline {
	if it.IsArray() {
		a := it.Array()
		at := func(i int) string {
			if i < len(a) {
				return a[i].String()
			}
			return ""
		}
		return kline{at(0), at(1), at(2), at(3), at(4), at(5), at(6), at(7)}
	}
	return kline{
		date:   it.Get("d").String(),
		open:   it.Get("o").String(),
		high:   it.Get("h").String(),
		low:    it.Get("l").String(),
		close:  it.Get("c").String(),
		volume: it.Get("v").String(),
		hold:   it.Get("p").String(),
		settle: it.Get("s").String(),
	}
}

// sortUniqueBars 按日期升序排列，同一日期保留最后出现的一条
func sortUniqueBars(bars []model.FuturesBar) []model.FuturesBar {
	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date < bars[j].Date })
	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && out[n-1].Date == b.Date {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

// MainDaily 获取主力连续合约日线
// 参数 symbol: 连续合约代码，如 V0
// 参数 start/end: YYYYMMDD，为空表示不限
func (c *Client) MainDaily(ctx context.Context, symbol, start, end string) ([]model.MainDailyBar, error) {
	// 日期令牌只影响变量名，服务端不据此过滤
	token := timeutil.Now().Format("2006_01_02")
	body, err := c.get(ctx, "sina_main_daily", &transport.Request{
		URL:     c.ep.JSONP + "/var%20_" + url.PathEscape(symbol) + token + "=/InnerFuturesNewService.getDailyKLine",
		Query:   url.Values{"symbol": {symbol}, "_": {token}},
		Referer: RefererFinance,
	})
	if err != nil {
		return nil, err
	}
	return ParseMainDaily(body, start, end)
}

// ParseMainDaily 解析主力连续日线并按日期区间过滤
func ParseMainDaily(body []byte, start, end string) ([]model.MainDailyBar, error) {
	bars, err := ParseBars(body, "", true, 0)
	if err != nil {
		return nil, err
	}
	out := make([]model.MainDailyBar, 0, len(bars))
	for _, b := range bars {
		day := strings.ReplaceAll(b.Date, "-", "")
		if start != "" && day < start {
			continue
		}
		if end != "" && day > end {
			continue
		}
		var hold uint64
		if b.OpenInterest != nil {
			hold = *b.OpenInterest
		}
		out = append(out, model.MainDailyBar{
			Date:   b.Date,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
			Hold:   hold,
			Settle: b.Settlement,
		})
	}
	return out, nil
}
