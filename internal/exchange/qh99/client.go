// Package qh99 99期货网库存适配器
// 页面数据嵌在 Next.js 的 __NEXT_DATA__ 脚本中。
package qh99

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
)

// DefaultURL 库存页面
const DefaultURL = "https://www.99qh.com/data/stockIn"

// Client 99期货网适配器
type Client struct {
	http   *transport.Client
	url    string
	logger *zap.Logger
}

// NewClient 创建 99期货网适配器
func NewClient(http *transport.Client, url string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, url: url, logger: logger.Named("qh99")}
}

func (c *Client) nextData(ctx context.Context, query url.Values) (gjson.Result, error) {
	resp, err := c.http.Do(ctx, &transport.Request{Source: "qh99", URL: c.url, Query: query})
	if err != nil {
		return gjson.Result{}, err
	}
	return NextData(resp.Body)
}

// NextData 提取页面中的 __NEXT_DATA__ JSON
func NextData(page []byte) (gjson.Result, error) {
	doc, err := codec.ParseHTML(page)
	if err != nil {
		return gjson.Result{}, apperr.Wrap(apperr.KindParse, err, "解析99期货网页面失败")
	}
	script := doc.Find("script#__NEXT_DATA__").First()
	if script.Length() == 0 {
		return gjson.Result{}, apperr.Parse("未找到__NEXT_DATA__脚本标签", page)
	}
	raw := strings.TrimSpace(script.Text())
	if !gjson.Valid(raw) {
		return gjson.Result{}, apperr.Parse("解析JSON失败", []byte(raw))
	}
	return gjson.Parse(raw), nil
}

// Products 获取品种列表
func (c *Client) Products(ctx context.Context) ([]model.Product99, error) {
	data, err := c.nextData(ctx, nil)
	if err != nil {
		return nil, err
	}
	return ParseProducts(data), nil
}

// ParseProducts 展开 varietyListData[].productList[]
// 没有编号或名称的品种跳过
func ParseProducts(data gjson.Result) []model.Product99 {
	out := []model.Product99{}
	data.Get("props.pageProps.data.varietyListData").ForEach(func(_, group gjson.Result) bool {
		group.Get("productList").ForEach(func(_, p gjson.Result) bool {
			id, name := p.Get("productId").Int(), p.Get("name").String()
			if id > 0 && name != "" {
				out = append(out, model.Product99{ProductID: id, Name: name, Code: p.Get("code").String()})
			}
			return true
		})
		return true
	})
	return out
}

// FindProduct 按中文名或代码（忽略大小写）查找品种
func FindProduct(products []model.Product99, symbol string) (model.Product99, bool) {
	for _, p := range products {
		if p.Name == symbol || strings.EqualFold(p.Code, symbol) {
			return p, true
		}
	}
	return model.Product99{}, false
}

// Inventory 获取品种库存走势
// 参数 symbol: 中文名（如 "豆一"）或代码（如 "A"）
func (c *Client) Inventory(ctx context.Context, symbol string) ([]model.Inventory99, error) {
	products, err := c.Products(ctx)
	if err != nil {
		return nil, err
	}
	p, ok := FindProduct(products, symbol)
	if !ok {
		return nil, apperr.NotFound("未找到品种 %s 对应的编号", symbol)
	}
	data, err := c.nextData(ctx, url.Values{"productId": {strconv.FormatInt(p.ProductID, 10)}})
	if err != nil {
		return nil, err
	}
	return ParseInventory(data), nil
}

// ParseInventory 解析 positionTrendChartListData.list
// 每个点为 [日期, 收盘价, 库存]，按日期升序
func ParseInventory(data gjson.Result) []model.Inventory99 {
	out := []model.Inventory99{}
	data.Get("props.pageProps.data.positionTrendChartListData.list").ForEach(func(_, item gjson.Result) bool {
		if !item.IsArray() {
			return true
		}
		date := item.Get("0").String()
		if date == "" {
			return true
		}
		out = append(out, model.Inventory99{
			Date:       date,
			ClosePrice: optNumber(item.Get("1")),
			Inventory:  optNumber(item.Get("2")),
		})
		return true
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// optNumber 数字或数字字符串，null 与非法值为 nil
func optNumber(v gjson.Result) *float64 {
	switch v.Type {
	case gjson.Number:
		f := v.Float()
		return &f
	case gjson.String:
		return fastparse.OptFloat(v.String())
	}
	return nil
}
