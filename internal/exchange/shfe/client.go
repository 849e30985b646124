// Package shfe 上海期货交易所适配器
// 数据来自交易所每日发布的 .dat（JSON）文件：会员持仓排名与仓单日报。
package shfe

import (
	"context"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

const referer = "https://www.shfe.com.cn/"

// Endpoints 上期所文件目录
type Endpoints struct {
	// DailyData 每日数据目录，持仓排名为 pm<date>.dat，仓单为 <date>dailystock.dat
	DailyData string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{DailyData: "https://www.shfe.com.cn/data/tradedata/future/dailydata"}
}

// Client 上期所适配器
type Client struct {
	http   *transport.Client
	ep     Endpoints
	logger *zap.Logger
}

// NewClient 创建上期所适配器
func NewClient(http *transport.Client, ep Endpoints, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, ep: ep, logger: logger.Named("shfe")}
}

// fetch 下载某日文件
func (c *Client) fetch(ctx context.Context, source, name, date string) ([]byte, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}
	resp, err := c.http.Do(ctx, &transport.Request{
		Source:  source,
		URL:     c.ep.DailyData + "/" + name,
		Referer: referer,
	})
	if err != nil {
		return nil, apperr.AsNotFound(err, "上期所 %s 无数据，可能是非交易日", date)
	}
	return resp.Body, nil
}

// Rank 获取会员持仓排名
// 参数 date: YYYYMMDD
// 参数 vars: 品种过滤，为空表示全部
func (c *Client) Rank(ctx context.Context, date string, vars []string) (model.RankTables, error) {
	body, err := c.fetch(ctx, "shfe_rank", "pm"+date+".dat", date)
	if err != nil {
		return nil, err
	}
	return ParseRank(body, vars)
}

// subtotalRank 上期所合计行使用的名次
const subtotalRank = 999

// ParseRank 解析持仓排名文件
// 遍历 o_cursor，按合约分组
// 名次不在 1..998 的行（999 为期货公司合计）与会员名为合计/小计的行被丢弃
func ParseRank(body []byte, vars []string) (model.RankTables, error) {
	cursor, err := cursorOf(body)
	if err != nil {
		return nil, err
	}

	tables := make(model.RankTables)
	for _, it := range cursor {
		rank := int(it.Get("RANK").Int())
		if rank <= 0 || rank >= subtotalRank {
			continue
		}
		volParty := strings.TrimSpace(it.Get("PARTICIPANTABBR1").String())
		longParty := strings.TrimSpace(it.Get("PARTICIPANTABBR2").String())
		shortParty := strings.TrimSpace(it.Get("PARTICIPANTABBR3").String())
		if model.IsSubtotal(volParty) || model.IsSubtotal(longParty) || model.IsSubtotal(shortParty) {
			continue
		}
		symbol := strings.ToUpper(strings.TrimSpace(it.Get("INSTRUMENTID").String()))
		if symbol == "" {
			continue
		}
		variety := vocab.ExtractVariety(symbol)
		if len(vars) > 0 && !vocab.Contains(vars, variety) {
			continue
		}
		tables[symbol] = append(tables[symbol], model.RankRow{
			Rank:                 rank,
			VolPartyName:         volParty,
			Vol:                  it.Get("CJ1").Int(),
			VolChg:               it.Get("CJ1_CHG").Int(),
			LongPartyName:        longParty,
			LongOpenInterest:     it.Get("CJ2").Int(),
			LongOpenInterestChg:  it.Get("CJ2_CHG").Int(),
			ShortPartyName:       shortParty,
			ShortOpenInterest:    it.Get("CJ3").Int(),
			ShortOpenInterestChg: it.Get("CJ3_CHG").Int(),
			Symbol:               symbol,
			Variety:              variety,
		})
	}
	return tables, nil
}

// Warehouse 获取仓单日报
func (c *Client) Warehouse(ctx context.Context, date string) ([]model.SHFEReceipts, error) {
	body, err := c.fetch(ctx, "shfe_warehouse", date+"dailystock.dat", date)
	if err != nil {
		return nil, err
	}
	return ParseWarehouse(body)
}

// ParseWarehouse 解析仓单日报，按品种名分组并按品种名排序
// 名称字段形如 "铜$$COPPER"，只取 $ 之前的中文部分
func ParseWarehouse(body []byte) ([]model.SHFEReceipts, error) {
	cursor, err := cursorOf(body)
	if err != nil {
		return nil, err
	}

	grouped := make(map[string][]model.SHFEReceipt)
	for _, it := range cursor {
		variety := beforeDollar(it.Get("VARNAME").String())
		if variety == "" {
			continue
		}
		grouped[variety] = append(grouped[variety], model.SHFEReceipt{
			Variety:      variety,
			Region:       beforeDollar(it.Get("REGNAME").String()),
			Warehouse:    beforeDollar(it.Get("WHABBRNAME").String()),
			LastReceipt:  it.Get("WRTWGHTS").Int(),
			TodayReceipt: it.Get("WRTQTY").Int(),
			Change:       it.Get("WRTCHANGE").Int(),
			Unit:         strings.TrimSpace(it.Get("UNIT").String()),
		})
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]model.SHFEReceipts, 0, len(keys))
	for _, k := range keys {
		out = append(out, model.SHFEReceipts{Symbol: k, Data: grouped[k]})
	}
	return out, nil
}

func cursorOf(body []byte) ([]gjson.Result, error) {
	if !gjson.ValidBytes(body) {
		return nil, apperr.Parse("解析上期所数据失败", body)
	}
	cursor := gjson.GetBytes(body, "o_cursor")
	if !cursor.IsArray() {
		return nil, apperr.Parse("未找到o_cursor数据", body)
	}
	return cursor.Array(), nil
}

func beforeDollar(s string) string {
	if i := strings.IndexByte(s, '$'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
