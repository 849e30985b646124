// Package qihuo9 九期网期货手续费与保证金适配器
package qihuo9

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
)

// DefaultURL 手续费页面
const DefaultURL = "https://www.9qihuo.com/qihuoshouxufei"

// AllExchanges 表示不过滤交易所
const AllExchanges = "所有"

// exchangeMarkers 表格中的交易所分组行
var exchangeMarkers = []string{
	"上海期货交易所",
	"大连商品交易所",
	"郑州商品交易所",
	"上海国际能源交易中心",
	"广州期货交易所",
	"中国金融期货交易所",
}

// Client 九期网适配器
type Client struct {
	http   *transport.Client
	url    string
	logger *zap.Logger
}

// NewClient 创建九期网适配器
func NewClient(http *transport.Client, url string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, url: url, logger: logger.Named("qihuo9")}
}

// CommInfo 获取手续费与保证金
// 参数 exchange: 交易所中文全称，空或 "所有" 表示全部
func (c *Client) CommInfo(ctx context.Context, exchange string) ([]model.CommInfo, error) {
	resp, err := c.http.Do(ctx, &transport.Request{Source: "qihuo9", URL: c.url, GBK: true})
	if err != nil {
		return nil, err
	}
	rows, err := ParseCommInfo(resp.Body, exchange)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.New(apperr.KindParse, "未能解析到期货手续费数据，请检查九期网是否可访问")
	}
	return rows, nil
}

// ParseCommInfo 解析手续费表
// 表格中交易所分组行之后有两行表头，再之后是该交易所的数据行
func ParseCommInfo(page []byte, exchange string) ([]model.CommInfo, error) {
	doc, err := codec.ParseHTML(page)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析九期网页面失败")
	}
	table, ok := codec.TableAt(doc, 0)
	if !ok {
		return nil, apperr.New(apperr.KindParse, "未找到手续费表格")
	}

	filter := exchange != "" && exchange != AllExchanges
	var (
		out     []model.CommInfo
		current string
		skip    int
	)
	for _, cells := range codec.Rows(table, "td") {
		if len(cells) == 0 {
			continue
		}
		if m := marker(cells[0]); m != "" {
			current, skip = m, 2
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if current == "" || len(cells) < 12 {
			continue
		}
		if filter && current != exchange {
			continue
		}
		out = append(out, project(current, cells))
	}
	return out, nil
}

func marker(cell string) string {
	for _, m := range exchangeMarkers {
		if strings.Contains(cell, m) {
			return m
		}
	}
	return ""
}

// project 数据行投影
// 列: 合约名(代码), 现价, 涨停/跌停, 买保证金%, 卖保证金%, 每手保证金, 开仓费, 平昨费, 平今费, 每跳盈利, 手续费合计, 每跳净利, 备注
func project(exchange string, cells []string) model.CommInfo {
	info := model.CommInfo{Exchange: exchange}
	info.ContractName, info.ContractCode = splitContract(cells[0])
	info.CurrentPrice = fastparse.OptFloat(cells[1])
	if up, down, ok := strings.Cut(cells[2], "/"); ok {
		info.LimitUp = fastparse.OptFloat(up)
		info.LimitDown = fastparse.OptFloat(down)
	}
	info.MarginBuy = fastparse.TrimUnit(cells[3], "%")
	info.MarginSell = fastparse.TrimUnit(cells[4], "%")
	info.MarginPerLot = fastparse.TrimUnit(cells[5], "元")
	info.FeeOpenRatio, info.FeeOpenYuan = ParseFee(cells[6])
	info.FeeCloseYesterdayRatio, info.FeeCloseYesterdayYuan = ParseFee(cells[7])
	info.FeeCloseTodayRatio, info.FeeCloseTodayYuan = ParseFee(cells[8])
	info.ProfitPerTick = fastparse.OptFloat(cells[9])
	info.FeeTotal = fastparse.TrimUnit(cells[10], "元")
	info.NetProfitPerTick = fastparse.OptFloat(cells[11])
	if len(cells) > 12 {
		remark := cells[12]
		info.Remark = &remark
	}
	return info
}

// splitContract 拆分 "沪铜2405(cu2405)"
func splitContract(s string) (name, code string) {
	name, rest, ok := strings.Cut(s, "(")
	if !ok {
		return strings.TrimSpace(s), ""
	}
	return strings.TrimSpace(name), strings.TrimSuffix(strings.TrimSpace(rest), ")")
}

// ParseFee 解析手续费单元格
// "万分之0.5" 或 "万分之0.5/..." 为比例（返回小数），"3元" 为固定金额
func ParseFee(s string) (ratio, yuan *float64) {
	s = strings.TrimSpace(s)
	switch {
	case strings.Contains(s, "万分之"):
		first, _, _ := strings.Cut(strings.ReplaceAll(s, "万分之", ""), "/")
		if v, ok := fastparse.ParseFloat(first); ok {
			v /= 10000
			ratio = &v
		}
	case strings.Contains(s, "元"):
		yuan = fastparse.OptFloat(strings.ReplaceAll(s, "元", ""))
	}
	return ratio, yuan
}
