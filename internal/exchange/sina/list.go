package sina

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
)

// ByNode 获取某品种节点下的合约列表，按持仓量降序
// 参数 node: 品种节点，如 tong_qh
// 参数 limit: 返回条数上限，0 表示全部
func (c *Client) ByNode(ctx context.Context, node string, limit int) ([]model.FuturesQuote, error) {
	body, err := c.get(ctx, "sina_list", &transport.Request{
		URL: c.ep.FuturesList,
		Query: url.Values{
			"page": {"1"},
			"sort": {"position"},
			"asc":  {"0"},
			"node": {node},
			"base": {"futures"},
		},
		Referer: RefererVIP,
		GBK:     true,
	})
	if err != nil {
		return nil, err
	}
	return ParseNodeList(body, limit)
}

// ParseNodeList 解析合约列表 JSON
// 上游以字符串或数字返回数值字段，两种形式都接受
func ParseNodeList(body []byte, limit int) ([]model.FuturesQuote, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperr.Parse("解析期货列表JSON失败", body)
	}
	items := gjson.ParseBytes(body).Array()
	if limit <= 0 || limit > len(items) {
		limit = len(items)
	}

	now := timeutil.NowRFC3339()
	out := make([]model.FuturesQuote, 0, limit)
	for _, it := range items[:limit] {
		current := fastparse.MustParseFloat(it.Get("trade").String())
		prev := fastparse.MustParseFloat(it.Get("presettlement").String())
		change, pct := model.ComputeChange(current, prev)
		out = append(out, model.FuturesQuote{
			Symbol:         it.Get("symbol").String(),
			Name:           it.Get("name").String(),
			CurrentPrice:   current,
			Change:         change,
			ChangePercent:  pct,
			Volume:         toUint(it.Get("volume").String()),
			Open:           fastparse.MustParseFloat(it.Get("open").String()),
			High:           fastparse.MustParseFloat(it.Get("high").String()),
			Low:            fastparse.MustParseFloat(it.Get("low").String()),
			Settlement:     fastparse.OptFloat(it.Get("settlement").String()),
			PrevSettlement: fastparse.Float(prev),
			OpenInterest:   optUint(it.Get("position").String()),
			UpdatedAt:      now,
		})
	}
	return out, nil
}

// MainOf 从合约列表中选出持仓量最大的合约
// 持仓量缺失视为 0，并列时取先出现者
func MainOf(quotes []model.FuturesQuote) (model.FuturesQuote, bool) {
	if len(quotes) == 0 {
		return model.FuturesQuote{}, false
	}
	best := 0
	for i := 1; i < len(quotes); i++ {
		if oi(quotes[i]) > oi(quotes[best]) {
			best = i
		}
	}
	return quotes[best], true
}

// SortByOpenInterest 按持仓量降序排序（稳定）
func SortByOpenInterest(quotes []model.FuturesQuote) {
	sort.SliceStable(quotes, func(i, j int) bool {
		return oi(quotes[i]) > oi(quotes[j])
	})
}

func oi(q model.FuturesQuote) uint64 {
	if q.OpenInterest == nil {
		return 0
	}
	return *q.OpenInterest
}

// PickContinuous 选出主力连续合约
// 取名称含"连续"且代码以 0 结尾的第一个合约
func PickContinuous(quotes []model.FuturesQuote) (model.MainContract, bool) {
	for _, q := range quotes {
		if strings.Contains(q.Name, "连续") && len(q.Symbol) > 0 && q.Symbol[len(q.Symbol)-1] == '0' {
			return model.MainContract{Symbol: q.Symbol, Name: q.Name}, true
		}
	}
	return model.MainContract{}, false
}

// formatLimit 查询参数中的条数
func formatLimit(limit, def int) string {
	if limit <= 0 {
		limit = def
	}
	return strconv.Itoa(limit)
}
