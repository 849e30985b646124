// Package openctp OpenCTP 手续费快照适配器
package openctp

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
)

// DefaultURL 手续费页面
const DefaultURL = "http://openctp.cn/fees.html"

// Client OpenCTP 适配器
type Client struct {
	http   *transport.Client
	url    string
	logger *zap.Logger
}

// NewClient 创建 OpenCTP 适配器
func NewClient(http *transport.Client, url string, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, url: url, logger: logger.Named("openctp")}
}

// FeesInfo 获取手续费快照
func (c *Client) FeesInfo(ctx context.Context) ([]model.FeeInfo, error) {
	resp, err := c.http.Do(ctx, &transport.Request{Source: "openctp", URL: c.url, GBK: true})
	if err != nil {
		return nil, err
	}
	rows, err := ParseFees(resp.Body)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("OpenCTP 手续费快照", zap.Int("rows", len(rows)))
	return rows, nil
}

var generatedRe = regexp.MustCompile(`Generated at ([^.]+)\.`)

// ParseFees 解析手续费表
// 页面只有一个 tbody，每行 16 列以上，全部字段保留原文
func ParseFees(page []byte) ([]model.FeeInfo, error) {
	updated := "未知"
	if m := generatedRe.FindSubmatch(page); m != nil {
		updated = strings.TrimSpace(string(m[1]))
	}

	doc, err := codec.ParseHTML(page)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析OpenCTP页面失败")
	}
	tbody := doc.Find("tbody").First()
	if tbody.Length() == 0 {
		return nil, apperr.Parse("未找到费用数据表格", page)
	}

	out := []model.FeeInfo{}
	for _, c := range codec.Rows(tbody.ParentsFiltered("table").First(), "td") {
		if len(c) < 16 {
			continue
		}
		out = append(out, model.FeeInfo{
			Exchange:          c[0],
			ContractCode:      c[1],
			ContractName:      c[2],
			ProductCode:       c[3],
			ProductName:       c[4],
			ContractSize:      c[5],
			PriceTick:         c[6],
			OpenFeeRate:       c[7],
			OpenFee:           c[8],
			CloseFeeRate:      c[9],
			CloseFee:          c[10],
			CloseTodayFeeRate: c[11],
			CloseTodayFee:     c[12],
			LongMarginRate:    c[13],
			ShortMarginRate:   c[15],
			UpdatedAt:         updated,
		})
	}
	return out, nil
}
