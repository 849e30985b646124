// Package cffex 中国金融期货交易所适配器
// 会员持仓排名按品种发布为 GBK 编码的 CSV 文件。
package cffex

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/codec"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/util/fastparse"
	"market-data-gateway/internal/util/timeutil"
	"market-data-gateway/internal/vocab"
)

// Endpoints 中金所文件目录
type Endpoints struct {
	// Rank 持仓排名目录，文件为 <YYYYMM>/<DD>/<VAR>_1.csv
	Rank string
}

// DefaultEndpoints 线上地址
func DefaultEndpoints() Endpoints {
	return Endpoints{Rank: "http://www.cffex.com.cn/sj/ccpm"}
}

// Client 中金所适配器
type Client struct {
	http   *transport.Client
	ep     Endpoints
	logger *zap.Logger
}

// NewClient 创建中金所适配器
func NewClient(http *transport.Client, ep Endpoints, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{http: http, ep: ep, logger: logger.Named("cffex")}
}

// Rank 获取会员持仓排名
// 每个品种单独下载，单个品种失败记录日志后跳过
// 参数 vars: 品种过滤，为空表示全部中金所品种
func (c *Client) Rank(ctx context.Context, date string, vars []string) (model.RankTables, error) {
	if err := timeutil.CheckDate(date); err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		tables = make(model.RankTables)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(2)
	for _, v := range vocab.FilterVarieties(vocab.CFFEXVarieties, vars) {
		g.Go(func() error {
			url := c.ep.Rank + "/" + date[:6] + "/" + date[6:] + "/" + v + "_1.csv"
			resp, err := c.http.Do(gctx, &transport.Request{Source: "cffex_rank", URL: url, GBK: true})
			if err != nil {
				if apperr.Is(err, apperr.KindUpstreamBlocked) {
					return err
				}
				c.logger.Warn("获取中金所持仓排名失败", zap.String("variety", v), zap.Error(err))
				return nil
			}
			part := ParseRank(string(resp.Body))
			mu.Lock()
			tables.Merge(part)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

// ParseRank 解析持仓排名 CSV
// 字段: 交易日,合约,名次,成交量会员,成交量,增减,多头会员,持买单量,增减,空头会员,持卖单量,增减
func ParseRank(text string) model.RankTables {
	tables := make(model.RankTables)
	for _, line := range codec.SplitLines(text) {
		line = strings.TrimSpace(line)
		if line == "" || strings.Contains(line, "交易日") || strings.Contains(line, "合约") || strings.Contains(line, "名次") {
			continue
		}
		f := codec.SplitCSV(line)
		if len(f) < 12 {
			continue
		}
		symbol := strings.ToUpper(f[1])
		if symbol == "" {
			continue
		}
		rank, err := strconv.Atoi(f[2])
		if err != nil || rank <= 0 {
			continue
		}
		tables[symbol] = append(tables[symbol], model.RankRow{
			Rank:                 rank,
			VolPartyName:         f[3],
			Vol:                  fastparse.MustParseInt(f[4]),
			VolChg:               fastparse.MustParseInt(f[5]),
			LongPartyName:        f[6],
			LongOpenInterest:     fastparse.MustParseInt(f[7]),
			LongOpenInterestChg:  fastparse.MustParseInt(f[8]),
			ShortPartyName:       f[9],
			ShortOpenInterest:    fastparse.MustParseInt(f[10]),
			ShortOpenInterestChg: fastparse.MustParseInt(f[11]),
			Symbol:               symbol,
			Variety:              vocab.ExtractVariety(symbol),
		})
	}
	return tables
}
