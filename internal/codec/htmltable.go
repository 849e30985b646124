package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseHTML 解析 HTML 文档
func ParseHTML(b []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}
	return doc, nil
}

// ParseHTMLString 解析已转码的 HTML 文本
func ParseHTMLString(s string) (*goquery.Document, error) {
	return ParseHTML([]byte(s))
}

// CellText 单元格文本规整
// NBSP、全角空格与连续空白压成一个空格后去掉首尾空白
func CellText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.ReplaceAll(s, "\u3000", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Rows 将表格投影为单元格文本矩阵
// 参数 table: 表格节点
// 参数 cellSel: 单元格选择器，通常为 "td" 或 "td,th"
// 只取属于该表格本身的行，嵌套表格的行不计入
func Rows(table *goquery.Selection, cellSel string) [][]string {
	var rows [][]string
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		if !tr.ParentsFiltered("table").First().IsSelection(table) {
			return
		}
		rows = append(rows, RowCells(tr, cellSel))
	})
	return rows
}

// RowCells 投影单行
func RowCells(tr *goquery.Selection, cellSel string) []string {
	cells := tr.ChildrenFiltered(cellSel)
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, CellText(c.Text()))
	})
	return out
}

// TableAt 按下标取文档中的表格（按出现顺序，含嵌套表格）
// 返回: 表格节点；越界时 ok=false
func TableAt(doc *goquery.Document, idx int) (*goquery.Selection, bool) {
	tables := doc.Find("table")
	if idx < 0 || idx >= tables.Length() {
		return nil, false
	}
	return tables.Eq(idx), true
}
