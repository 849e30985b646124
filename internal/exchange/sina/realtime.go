package sina

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

// 国内期货实时行情字段下标
const (
	fieldName         = 0
	fieldOpen         = 2
	fieldHigh         = 3
	fieldLow          = 4
	fieldCurrent      = 8
	fieldPrevSettle   = 10
	fieldOpenInterest = 13
	fieldVolume       = 14
	minRealtimeFields = 15
)

// ErrEmptyQuote 上游对无效合约返回空字符串
var ErrEmptyQuote = apperr.New(apperr.KindParse, "API返回空数据")

// RealtimeCode 合约代码转为实时行情接口的 list 参数
// 中金所品种使用 CFF_ 前缀，其余使用 nf_
func RealtimeCode(symbol string) string {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if vocab.IsCFFEXProduct(vocab.ExtractVariety(symbol)) {
		return "CFF_" + symbol
	}
	return "nf_" + symbol
}

// Quote 获取单个合约实时行情
func (c *Client) Quote(ctx context.Context, symbol string) (model.FuturesQuote, error) {
	body, err := c.fetchRealtime(ctx, []string{RealtimeCode(symbol)})
	if err != nil {
		return model.FuturesQuote{}, err
	}
	return ParseRealtime(body, symbol)
}

// Quotes 批量获取合约实时行情
// 单条解析失败时记录日志并跳过
func (c *Client) Quotes(ctx context.Context, symbols []string) ([]model.FuturesQuote, error) {
	if len(symbols) == 0 {
		return nil, nil
	}
	codes := make([]string, len(symbols))
	for i, s := range symbols {
		codes[i] = RealtimeCode(s)
	}
	body, err := c.fetchRealtime(ctx, codes)
	if err != nil {
		return nil, err
	}
	quotes, failed := ParseRealtimeBatch(body, symbols)
	for sym, ferr := range failed {
		c.logger.Warn("解析实时行情失败", zap.String("symbol", sym), zap.Error(ferr))
	}
	return quotes, nil
}

// fetchRealtime 请求实时行情
// rn 为随机数，防止命中缓存
func (c *Client) fetchRealtime(ctx context.Context, codes []string) (string, error) {
	rn := strconv.FormatInt(timeutil.NowMs()&0x7FFFFFFF, 16)
	body, err := c.get(ctx, "sina_realtime", &transport.Request{
		URL:     c.ep.Realtime + "/rn=" + rn + "&list=" + strings.Join(codes, ","),
		Referer: RefererVIP,
		GBK:     true,
	})
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// ParseRealtime 解析单个合约的实时行情响应
// 参数 text: var hq_str_nf_CU2405="...";
// 参数 symbol: 请求的合约代码
func ParseRealtime(text, symbol string) (model.FuturesQuote, error) {
	recs := splitRecords(text)
	if len(recs) == 0 {
		return model.FuturesQuote{}, ErrEmptyQuote
	}
	return parseRealtimeFields(recs[0].fields, symbol)
}

// ParseRealtimeBatch 解析批量实时行情响应
// 记录按变量名与请求合约对应，变量名缺失时按顺序对应
// 返回: 解析成功的行情与失败合约的错误
func ParseRealtimeBatch(text string, symbols []string) ([]model.FuturesQuote, map[string]error) {
	wanted := make(map[string]string, len(symbols))
	for _, s := range symbols {
		wanted[strings.ToUpper(strings.TrimSpace(s))] = s
	}

	failed := make(map[string]error)
	var out []model.FuturesQuote
	for i, rec := range splitRecords(text) {
		symbol := rec.code
		if _, ok := wanted[symbol]; !ok {
			if i >= len(symbols) {
				continue
			}
			symbol = symbols[i]
		}
		q, err := parseRealtimeFields(rec.fields, symbol)
		if err != nil {
			failed[symbol] = err
			continue
		}
		out = append(out, q)
	}
	return out, failed
}

// record 一条 var hq_str_xxx="..." 记录
type record struct {
	// code 去掉 nf_/CFF_/hf_ 前缀后的代码（大写）
	code string
	// fields 逗号分隔的字段；空字符串时为 nil
	fields []string
}

// splitRecords 切分实时行情响应
func splitRecords(text string) []record {
	var out []record
	for _, part := range strings.Split(text, ";") {
		part = strings.TrimSpace(part)
		eq := strings.IndexByte(part, '=')
		if eq < 0 {
			continue
		}
		name := strings.TrimSpace(part[:eq])
		name = strings.TrimPrefix(name, "var ")
		name = strings.TrimPrefix(strings.TrimSpace(name), "hq_str_")
		for _, p := range []string{"nf_", "CFF_", "hf_"} {
			name = strings.TrimPrefix(name, p)
		}

		data := strings.Trim(strings.TrimSpace(part[eq+1:]), `"`)
		var fields []string
		if data != "" {
			fields = strings.Split(data, ",")
		}
		out = append(out, record{code: strings.ToUpper(name), fields: fields})
	}
	return out
}

// parseRealtimeFields 投影国内期货字段
func parseRealtimeFields(fields []string, symbol string) (model.FuturesQuote, error) {
	if len(fields) == 0 {
		return model.FuturesQuote{}, ErrEmptyQuote
	}
	if len(fields) < minRealtimeFields {
		return model.FuturesQuote{}, apperr.New(apperr.KindParse,
			fmt.Sprintf("数据字段不足: 期望至少%d个，实际%d个", minRealtimeFields, len(fields)))
	}

	current := fastparse.MustParseFloat(fields[fieldCurrent])
	prev := fastparse.MustParseFloat(fields[fieldPrevSettle])
	change, pct := model.ComputeChange(current, prev)

	return model.FuturesQuote{
		Symbol:         strings.ToUpper(strings.TrimSpace(symbol)),
		Name:           strings.TrimSpace(fields[fieldName]),
		CurrentPrice:   current,
		Change:         change,
		ChangePercent:  pct,
		Volume:         toUint(fields[fieldVolume]),
		Open:           fastparse.MustParseFloat(fields[fieldOpen]),
		High:           fastparse.MustParseFloat(fields[fieldHigh]),
		Low:            fastparse.MustParseFloat(fields[fieldLow]),
		PrevSettlement: fastparse.Float(prev),
		OpenInterest:   optUint(fields[fieldOpenInterest]),
		UpdatedAt:      timeutil.NowRFC3339(),
	}, nil
}

// toUint 解析非负整数，失败或为负时返回 0
func toUint(s string) uint64 {
	v, ok := fastparse.ParseInt(s)
	if !ok || v < 0 {
		return 0
	}
	return uint64(v)
}

// optUint 解析可选非负整数
func optUint(s string) *uint64 {
	v, ok := fastparse.ParseInt(s)
	if !ok || v < 0 {
		return nil
	}
	u := uint64(v)
	return &u
}
