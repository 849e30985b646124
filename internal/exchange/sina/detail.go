package sina

import (
	"context"
	"regexp"
	"strings"

	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
)

var titleRe = regexp.MustCompile(`<title>([^<]+)</title>`)

// detailLabels 合约详情字段与页面标签
var detailLabels = []struct {
	label string
	set   func(d *model.ContractDetail, v string)
}{
	{"上市交易所", func(d *model.ContractDetail, v string) { d.Exchange = v }},
	{"交易单位", func(d *model.ContractDetail, v string) { d.TradingUnit = v }},
	{"报价单位", func(d *model.ContractDetail, v string) { d.QuoteUnit = v }},
	{"最小变动价位", func(d *model.ContractDetail, v string) { d.MinPriceChange = v }},
	{"涨跌停板幅度", func(d *model.ContractDetail, v string) { d.PriceLimit = v }},
	{"合约交割月份", func(d *model.ContractDetail, v string) { d.ContractMonths = v }},
	{"交易时间", func(d *model.ContractDetail, v string) { d.TradingHours = v }},
	{"最后交易日", func(d *model.ContractDetail, v string) { d.LastTradingDay = v }},
	{"最后交割日", func(d *model.ContractDetail, v string) { d.LastDeliveryDay = v }},
	{"交割品级", func(d *model.ContractDetail, v string) { d.DeliveryGrade = v }},
	{"最低交易保证金", func(d *model.ContractDetail, v string) { d.Margin = v }},
	{"交割方式", func(d *model.ContractDetail, v string) { d.DeliveryMethod = v }},
}

var detailLabelRes = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(detailLabels))
	for i, l := range detailLabels {
		out[i] = regexp.MustCompile(l.label + `[：:]\s*([^<\n]+)`)
	}
	return out
}()

// ContractDetail 获取合约详情
func (c *Client) ContractDetail(ctx context.Context, symbol string) (model.ContractDetail, error) {
	body, err := c.get(ctx, "sina_contract_detail", &transport.Request{
		URL: c.ep.QuotesPage + "/" + symbol + ".shtml",
		GBK: true,
	})
	if err != nil {
		return model.ContractDetail{}, err
	}
	return ParseContractDetail(string(body), symbol), nil
}

// ParseContractDetail 从合约页面提取详情字段
// 缺失的字段为空字符串
func ParseContractDetail(html, symbol string) model.ContractDetail {
	d := model.ContractDetail{Symbol: symbol, Name: firstGroup(titleRe, html)}
	for i, l := range detailLabels {
		l.set(&d, firstGroup(detailLabelRes[i], html))
	}
	return d
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
