package sina

import (
	"context"
	"regexp"
	"strings"

	"market-data-gateway/internal/apperr"
	"market-data-gateway/internal/core/model"
	"market-data-gateway/internal/transport"
	"market-data-gateway/internal/vocab"
)

const nodesAnchor = "ARRFUTURESNODES = {"

// nodeItemRe 匹配 ['中文名', 'mark', '...'] 三元组
var nodeItemRe = regexp.MustCompile(`\['([^']+)',\s*'([^']+)',\s*'[^']*'`)

// exchangeKeyRes 各交易所键的位置
var exchangeKeyRes = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(vocab.SinaNodeKeys))
	for _, k := range vocab.SinaNodeKeys {
		m[k] = regexp.MustCompile(`\b` + k + `\s*:\s*\[`)
	}
	return m
}()

// SymbolMarks 下载并解析品种映射
func (c *Client) SymbolMarks(ctx context.Context) ([]model.SymbolMark, error) {
	body, err := c.get(ctx, "sina_symbols", &transport.Request{
		URL:     c.ep.SymbolJS,
		Referer: RefererVIP,
		GBK:     true,
	})
	if err != nil {
		return nil, err
	}
	return ParseSymbolMarks(string(body))
}

// ParseSymbolMarks 解析品种映射脚本
// 每个交易所的区段截止到下一个交易所键，只保留以 _qh 结尾的节点
// 返回: 按 czce/dce/shfe/cffex/gfex 顺序排列的映射
func ParseSymbolMarks(js string) ([]model.SymbolMark, error) {
	start := strings.Index(js, nodesAnchor)
	if start < 0 {
		return nil, apperr.Parse("未找到 ARRFUTURESNODES 定义", []byte(js))
	}
	body := js[start+len(nodesAnchor):]
	if end := strings.Index(body, "};"); end >= 0 {
		body = body[:end]
	}

	type section struct {
		key        string
		start, end int
	}
	var sections []section
	for _, k := range vocab.SinaNodeKeys {
		loc := exchangeKeyRes[k].FindStringIndex(body)
		if loc == nil {
			continue
		}
		sections = append(sections, section{key: k, start: loc[1], end: len(body)})
	}
	// 区段以下一个交易所键的起点为界（不假设键的出现顺序）
	for i := range sections {
		for j := range sections {
			if s := sections[j].start; s > sections[i].start && s < sections[i].end {
				sections[i].end = s
			}
		}
	}

	var out []model.SymbolMark
	for _, sec := range sections {
		exchange, _ := vocab.SinaExchangeName(sec.key)
		for _, m := range nodeItemRe.FindAllStringSubmatch(body[sec.start:sec.end], -1) {
			if !strings.HasSuffix(m[2], "_qh") {
				continue
			}
			out = append(out, model.SymbolMark{Exchange: exchange, Symbol: m[1], Mark: m[2]})
		}
	}
	if len(out) == 0 {
		return nil, apperr.Parse("品种映射为空", []byte(body))
	}
	return out, nil
}
