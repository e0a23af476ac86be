package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kart-io/sentinel-ask/pkg/utils/json"
)

// Source 语料库的持久化来源。
type Source interface {
	// Read 读取全部记录。来源缺失、不可读或格式错误时返回错误。
	Read(ctx context.Context) ([]Record, error)
}

// ErrMalformedRecord 表示记录缺少 text 或 embedding 字段。
var ErrMalformedRecord = errors.New("malformed corpus record")

// fileRecord 是语料文件中一条记录的格式。
// texto 是 text 的别名，兼容早期构建工具生成的语料文件。
type fileRecord struct {
	ID        string    `json:"id"`
	Text      *string   `json:"text,omitempty"`
	Texto     *string   `json:"texto,omitempty"`
	Embedding []float32 `json:"embedding"`
}

// FileSource 从 JSON 文件读写语料库。
type FileSource struct {
	path string
}

// NewFileSource 创建以 path 为语料文件的来源。
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path 返回语料文件路径。
func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) String() string {
	return "file:" + s.path
}

// Read 读取并解析语料文件。
func (s *FileSource) Read(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return Decode(data)
}

// Decode 解析语料文件内容。顶层必须是数组，每条记录都必须带有
// 非空的 embedding 以及 text（或 texto）。
func Decode(data []byte) ([]Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("decode corpus: top-level value is not an array")
	}

	var raw []fileRecord
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}

	records := make([]Record, 0, len(raw))
	for i, r := range raw {
		text := r.Text
		if text == nil {
			text = r.Texto
		}
		if text == nil {
			return nil, fmt.Errorf("record %d (%q): missing text: %w", i, r.ID, ErrMalformedRecord)
		}
		if len(r.Embedding) == 0 {
			return nil, fmt.Errorf("record %d (%q): missing embedding: %w", i, r.ID, ErrMalformedRecord)
		}
		records = append(records, Record{ID: r.ID, Text: *text, Embedding: r.Embedding})
	}
	return records, nil
}

// Save 以原子替换的方式写入语料文件。
func (s *FileSource) Save(ctx context.Context, records []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	out := make([]fileRecord, len(records))
	for i, r := range records {
		text := r.Text
		out[i] = fileRecord{ID: r.ID, Text: &text, Embedding: r.Embedding}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp corpus file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write corpus: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close corpus: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace corpus: %w", err)
	}
	return nil
}
