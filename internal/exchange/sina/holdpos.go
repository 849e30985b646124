package sina

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
)

// HoldPosition 获取合约会员持仓排名
// 参数 typ: 成交量/多单/空单
// 参数 contract: 合约代码，如 OI2501
// 参数 date: YYYYMMDD
func (c *Client) HoldPosition(ctx context.Context, typ model.HoldPosType, contract, date string) ([]model.HoldPosition, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, "sina_hold_pos", &transport.Request{
		URL:        c.ep.HoldPos,
		Query:      url.Values{"t_breed": {contract}, "t_date": {timeutil.Dashed(date)}},
		Referer:    RefererVIP,
		GBK:        true,
		BanMarkers: banMarkers,
	})
	if err != nil {
		return nil, err
	}
	return ParseHoldPosition(body, typ)
}

// ParseHoldPosition 解析持仓排名页面
// 页面按出现顺序第 3/4/5 个表格分别为成交量、多单、空单
func ParseHoldPosition(html []byte, typ model.HoldPosType) ([]model.HoldPosition, error) {
	doc, err := codec.ParseHTML(html)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindParse, err, "解析持仓排名页面失败")
	}
	table, ok := codec.TableAt(doc, typ.TableIndex())
	if !ok {
		return nil, apperr.NotFound("未找到持仓排名表格，可能当日无数据")
	}

	var out []model.HoldPosition
	for _, cells := range codec.Rows(table, "td") {
		if len(cells) < 3 {
			continue
		}
		if strings.Contains(cells[0], "合计") || strings.Contains(cells[1], "合计") {
			continue
		}
		rank, err := strconv.Atoi(strings.TrimSpace(cells[0]))
		if err != nil || rank <= 0 {
			continue
		}
		pos := model.HoldPosition{
			Rank:    rank,
			Company: cells[1],
			Value:   fastparse.MustParseInt(cells[2]),
		}
		if len(cells) > 3 {
			pos.Change = fastparse.MustParseInt(cells[3])
		}
		out = append(out, pos)
	}
	return out, nil
}
