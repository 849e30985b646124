package aggregate

import (
	"context"

	"go.uber.org/zap"

	"market-data-gateway/internal/core/model"
)

// SpotSource 单日现货价格来源
type SpotSource interface {
	SpotPrice(ctx context.Context, date string, symbols []string) ([]model.SpotPrice, error)
}

// Spot 现货价格日线汇总器
type Spot struct {
	src    SpotSource
	logger *zap.Logger
}

// NewSpot 创建现货价格日线汇总器
func NewSpot(src SpotSource, logger *zap.Logger) *Spot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Spot{src: src, logger: logger.Named("spot_daily")}
}

// Daily 逐日获取 [start, end] 区间的现货价格并拼接
// 单日失败（多为非交易日）记 Warn 后继续；请求被取消时返回错误
func (s *Spot) Daily(ctx context.Context, start, end string, symbols []string) ([]model.SpotPrice, error) {
	dates, err := dateRange(start, end)
	if err != nil {
		return nil, err
	}

	out := []model.SpotPrice{}
	for _, date := range dates {
		rows, err := s.src.SpotPrice(ctx, date, symbols)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			s.logger.Warn("现货价格获取失败，可能是非交易日", zap.String("date", date), zap.Error(err))
			continue
		}
		out = append(out, rows...)
	}
	s.logger.Debug("现货价格日线", zap.String("start", start), zap.String("end", end), zap.Int("rows", len(out)))
	return out, nil
}
