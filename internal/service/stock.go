package service

import (
	"context"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/exchange/sina"
)

// stockSymbolRe 带市场前缀的 A 股代码
var stockSymbolRe = regexp.MustCompile(`^(?i)(sh|sz|bj)\d{6}$`)

// Stocks A 股门面
type Stocks struct {
	sina   *sina.Client
	logger *zap.Logger
}

// NewStocks 创建 A 股门面
func NewStocks(sinaClient *sina.Client, logger *zap.Logger) *Stocks {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stocks{sina: sinaClient, logger: logger.Named("stocks")}
}

func checkStockSymbol(symbol string) error {
	if !stockSymbolRe.MatchString(symbol) {
		return apperr.BadInput("无效的股票代码: %s，应为 sh600000 形式", symbol)
	}
	return nil
}

// Quote 实时行情
func (s *Stocks) Quote(ctx context.Context, symbol string) (model.StockQuote, error) {
	if err := checkStockSymbol(symbol); err != nil {
		return model.StockQuote{}, err
	}
	return s.sina.StockQuote(ctx, strings.ToLower(symbol))
}

// History 日 K 线
func (s *Stocks) History(ctx context.Context, symbol string, limit int) ([]model.StockBar, error) {
	if err := checkStockSymbol(symbol); err != nil {
		return nil, err
	}
	return s.sina.StockHistory(ctx, symbol, limit)
}

// List 沪深 A 股列表
func (s *Stocks) List(ctx context.Context, limit int) ([]model.StockQuote, error) {
	return s.sina.StockList(ctx, limit)
}
