package codec

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// oleMagic 旧版 .xls（OLE2 复合文档）文件头
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// ErrEmptyWorkbook 工作簿没有工作表
var ErrEmptyWorkbook = errors.New("Excel文件没有工作表")

// ReadFirstSheet 读取工作簿第一个工作表的全部行
// 根据文件头自动选择 xlsx 或 xls 解析器；单元格统一为字符串，
// 浮点数去掉多余的尾随零，空单元格为 ""。
func ReadFirstSheet(b []byte) ([][]string, error) {
	switch {
	case IsZip(b):
		return readXLSX(b)
	case bytes.HasPrefix(b, oleMagic):
		return readXLS(b)
	default:
		return nil, fmt.Errorf("无法识别的 Excel 格式")
	}
}

func readXLSX(b []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("打开Excel文件失败: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("读取工作表失败: %w", err)
	}
	for i := range rows {
		for j := range rows[i] {
			rows[i][j] = normalizeCell(rows[i][j])
		}
	}
	return rows, nil
}

func readXLS(b []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(b), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("打开Excel文件失败: %w", err)
	}
	if wb.NumSheets() == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, ErrEmptyWorkbook
	}

	rows := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, 0, row.LastCol())
		for j := 0; j < row.LastCol(); j++ {
			cells = append(cells, normalizeCell(row.Col(j)))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

var trailingZeroRe = regexp.MustCompile(`^(-?\d+)\.(\d*?)0+$`)

// normalizeCell 去掉空白与浮点数的多余尾随零，如 "1234.500" -> "1234.5"，"12.0" -> "12"
func normalizeCell(s string) string {
	s = strings.TrimSpace(strings.ReplaceAll(s, "\u00a0", " "))
	m := trailingZeroRe.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	if m[2] == "" {
		return m[1]
	}
	return m[1] + "." + m[2]
}
