// Package ppi 生意社（100ppi）现货价格与基差适配器
package ppi

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

// Endpoints 生意社页面目录
type Endpoints struct {
	// Spot 现货与基差日报，页面为 /day-YYYY-MM-DD.html
	Spot string
	// SpotPrevious 含 180 日基差统计的日报
	SpotPrevious string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Spot:         "https://www.100ppi.com/sf",
		SpotPrevious: "https://www.100ppi.com/sf2",
	}
}

// Client 生意社适配器
type Client struct {
	http   *transport.Client
	ep     Endpoints
	logger *zap.Logger
}

// NewClient 创建生意社适配器
func NewClient(http *transport.Client, ep Endpoints, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, ep: ep, logger: logger.Named("ppi")}
}

func (c *Client) page(ctx context.Context, source, dir, date string) (*goquery.Selection, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	resp, err := c.http.Do(ctx, &transport.Request{
		Source: source,
		URL:    dir + "/day-" + timeutil.Dashed(date) + ".html",
		GBK:    true,
	})
	if err != nil {
		return nil, apperr.AsNotFound(err, "生意社 %s 无现货数据，可能是非交易日", date)
	}
	return fdata(resp.Body)
}

// fdata 定位数据表 #fdata
func fdata(body []byte) (*goquery.Selection, error) {
	doc, err := codec.ParseHTML(body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析生意社页面失败")
	}
	table := doc.Find("table#fdata").First()
	if table.Length() == 0 {
		return nil, apperr.New(apperr.KindNotFound, "未找到数据表格(#fdata)")
	}
	return table, nil
}

// SpotPrice 获取现货价格与基差
// 参数 symbols: 品种过滤，为空表示全部
func (c *Client) SpotPrice(ctx context.Context, date string, symbols []string) ([]model.SpotPrice, error) {
	table, err := c.page(ctx, "ppi_spot", c.ep.Spot, date)
	if err != nil {
		return nil, err
	}
	return ParseSpotPrice(table, date, symbols), nil
}

// skipRow 表头、交易所分组行与空行
func skipRow(first string) bool {
	return first == "" || first == "商品" || strings.Contains(first, "交易所")
}

// ParseSpotPrice 解析现货日报表格
// 列: 商品, 现货价, 近月合约, 近月价, 近月基差, 近月基差率, 最高/低, 主力合约, 主力价, ...
// 基差 = 合约价 - 现货价；基差率 = 合约价/现货价 - 1（小数）
func ParseSpotPrice(table *goquery.Selection, date string, symbols []string) []model.SpotPrice {
	out := []model.SpotPrice{}
	for _, cells := range codec.Rows(table, "td") {
		if len(cells) < 10 {
			continue
		}
		name := strings.ReplaceAll(cells[0], " ", "")
		if skipRow(name) {
			continue
		}
		symbol, ok := vocab.ChineseToEnglish(name)
		if !ok {
			if !vocab.IsLetters(name) {
				continue
			}
			symbol = strings.ToUpper(name)
		}
		if len(symbols) > 0 && !vocab.Contains(symbols, symbol) {
			continue
		}

		spot := fastparse.MustParseFloat(cells[1])
		if spot == 0 {
			continue
		}
		nearPrice := fastparse.MustParseFloat(cells[3])
		domPrice := fastparse.MustParseFloat(cells[8])
		lower := strings.ToLower(symbol)

		out = append(out, model.SpotPrice{
			Date:                  date,
			Symbol:                symbol,
			SpotPrice:             spot,
			NearContract:          lower + vocab.ContractMonth(cells[2]),
			NearContractPrice:     nearPrice,
			DominantContract:      lower + vocab.ContractMonth(cells[7]),
			DominantContractPrice: domPrice,
			NearBasis:             nearPrice - spot,
			DomBasis:              domPrice - spot,
			NearBasisRate:         nearPrice/spot - 1,
			DomBasisRate:          domPrice/spot - 1,
		})
	}
	return out
}

// SpotPricePrevious 获取现货与主力基差及 180 日统计
func (c *Client) SpotPricePrevious(ctx context.Context, date string) ([]model.SpotPricePrevious, error) {
	table, err := c.page(ctx, "ppi_spot_previous", c.ep.SpotPrevious, date)
	if err != nil {
		return nil, err
	}
	return ParseSpotPricePrevious(table), nil
}

// ParseSpotPricePrevious 解析含 180 日统计的表格
// 列: 商品, 现货价, 主力合约, 主力价, 基差(含基差率), 180日最高, 180日最低, 180日均值
func ParseSpotPricePrevious(table *goquery.Selection) []model.SpotPricePrevious {
	out := []model.SpotPricePrevious{}
	for _, cells := range codec.Rows(table, "td") {
		if len(cells) < 8 {
			continue
		}
		name := cells[0]
		if skipRow(name) {
			continue
		}
		spot := fastparse.MustParseFloat(cells[1])
		if spot == 0 {
			continue
		}
		basis, rate := vocab.ParseBasis(strings.ReplaceAll(cells[4], " ", ""))
		out = append(out, model.SpotPricePrevious{
			Commodity:        name,
			SpotPrice:        spot,
			DominantContract: cells[2],
			DominantPrice:    fastparse.MustParseFloat(cells[3]),
			Basis:            basis,
			BasisRate:        rate,
			Basis180dHigh:    fastparse.OptFloat(cells[5]),
			Basis180dLow:     fastparse.OptFloat(cells[6]),
			Basis180dAvg:     fastparse.OptFloat(cells[7]),
		})
	}
	return out
}
