package store

import (
	"iter"
	"slices"
)

// Record 语料库中的一条记录。加载后不可修改。
type Record struct {
	ID        string
	Text      string
	Embedding []float32
}

// Clone 返回记录的深拷贝。
func (r Record) Clone() Record {
	return Record{ID: r.ID, Text: r.Text, Embedding: slices.Clone(r.Embedding)}
}

// Corpus 有序的只读记录集合。
type Corpus struct {
	records []Record
}

// NewCorpus 以 records 的副本创建语料库。
func NewCorpus(records []Record) *Corpus {
	cloned := make([]Record, len(records))
	for i, r := range records {
		cloned[i] = r.Clone()
	}
	return &Corpus{records: cloned}
}

// Len 返回记录数。
func (c *Corpus) Len() int {
	return len(c.records)
}

// All 按语料库顺序遍历记录。产出的 Embedding 与缓存共享底层数组，只能读取；
// 需要修改时使用 Record.Clone 或 Records。
func (c *Corpus) All() iter.Seq2[int, Record] {
	return func(yield func(int, Record) bool) {
		for i, r := range c.records {
			if !yield(i, r) {
				return
			}
		}
	}
}

// Records 返回所有记录的深拷贝。
func (c *Corpus) Records() []Record {
	out := make([]Record, len(c.records))
	for i, r := range c.records {
		out[i] = r.Clone()
	}
	return out
}
