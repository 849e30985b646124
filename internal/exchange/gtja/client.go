// Package gtja 国泰君安期货交易规则适配器
package gtja

import (
	"context"
	"net/url"
	"strconv"
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

// DefaultURL 交易日历与规则页面
const DefaultURL = "https://www.gtjaqh.com/pc/calendar"

// Client 国泰君安适配器
type Client struct {
	http   *transport.Client
	url    string
	logger *zap.Logger
}

// NewClient 创建国泰君安适配器
func NewClient(http *transport.Client, url string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, url: url, logger: logger.Named("gtja")}
}

// Rules 获取交易规则
// 参数 date: YYYYMMDD，为空表示上海时区的今天
func (c *Client) Rules(ctx context.Context, date string) ([]model.Rule, error) {
	if date == "" {
		date = timeutil.Today()
	}
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	resp, err := c.http.Do(ctx, &transport.Request{
		Source: "gtja",
		URL:    c.url,
		Query:  url.Values{"date": {date}},
		GBK:    true,
	})
	if err != nil {
		return nil, err
	}
	return ParseRules(resp.Body)
}

// ParseRules 解析交易规则表
// 列: 交易所, 品种, 代码, 保证金%, 涨跌停%, 合约乘数, 最小变动价位, 最大下单量, 特殊说明, 备注
func ParseRules(page []byte) ([]model.Rule, error) {
	text := string(page)
	if !strings.Contains(text, "交易保证金比例") && !strings.Contains(text, "涨跌停板幅度") {
		return nil, apperr.Parse("未找到交易规则数据表格", page)
	}
	doc, err := codec.ParseHTML(page)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析交易规则页面失败")
	}

	out := []model.Rule{}
	doc.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		cells := codec.RowCells(tr, "td")
		if len(cells) == 0 {
			cells = codec.RowCells(tr, "th")
		}
		if len(cells) < 6 || isHeader(cells) {
			return
		}
		if cells[0] == "" && cells[1] == "" {
			return
		}
		out = append(out, model.Rule{
			Exchange:     cells[0],
			Product:      cells[1],
			Code:         cells[2],
			MarginRate:   fastparse.TrimUnit(cells[3], "%"),
			PriceLimit:   fastparse.TrimUnit(cells[4], "%"),
			ContractSize: optCell(cells, 5, fastparse.OptFloat),
			PriceTick:    optCell(cells, 6, fastparse.OptFloat),
			MaxOrderSize: optCell(cells, 7, parseUint),
			SpecialNote:  optText(cells, 8),
			Remark:       optText(cells, 9),
		})
	})
	return out, nil
}

func isHeader(cells []string) bool {
	for i, c := range cells {
		if i >= 4 {
			break
		}
		if c == "品种" || strings.Contains(c, "交易所") || strings.Contains(c, "交易保证金比例") || strings.Contains(c, "保证金收取标准") {
			return true
		}
	}
	return false
}

func optCell[T any](cells []string, i int, parse func(string) *T) *T {
	if i >= len(cells) {
		return nil
	}
	return parse(cells[i])
}

func optText(cells []string, i int) *string {
	if i >= len(cells) || cells[i] == "" {
		return nil
	}
	s := cells[i]
	return &s
}

func parseUint(s string) *uint64 {
	v, err := strconv.ParseUint(fastparse.Clean(s), 10, 64)
	if err != nil {
		return nil
	}
	return &v
}
