package codec

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
)

// ZipEntry ZIP 内的文本文件
type ZipEntry struct {
	// Name 文件名（已转为 UTF-8）
	Name string
	// Text 文件内容（UTF-8，必要时由 GBK 转换）
	Text string
}

// ReadZip 展开内存中的 ZIP 并返回文本条目
// 参数 b: ZIP 字节
// 参数 keep: 文件名过滤，nil 表示全部保留
func ReadZip(b []byte, keep func(name string) bool) ([]ZipEntry, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("打开 ZIP 失败: %w", err)
	}

	entries := make([]ZipEntry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name := f.Name
		if f.NonUTF8 {
			name = DecodeGBK([]byte(name))
		}
		if keep != nil && !keep(name) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("读取 ZIP 条目 %s 失败: %w", name, err)
		}
		raw, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("读取 ZIP 条目 %s 失败: %w", name, err)
		}
		entries = append(entries, ZipEntry{Name: name, Text: DecodeUTF8OrGBK(raw)})
	}
	return entries, nil
}

// IsZip 判断字节是否以 ZIP 本地文件头开头
func IsZip(b []byte) bool {
	return bytes.HasPrefix(b, []byte("PK\x03\x04"))
}
