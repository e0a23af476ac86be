package biz

import (
	"cmp"
	"fmt"
	"iter"
	"math"
	"slices"

	"github.com/kart-io/sentinel-ask/internal/ask/store"
	"github.com/kart-io/sentinel-ask/pkg/utils/errors"
)

// ScoredRecord 一条语料记录及其与查询向量的相似度。
type ScoredRecord struct {
	Record store.Record
	Score  float64
}

// Ranking 按相似度降序排列的记录，分数相同时保持语料库原始顺序。
type Ranking struct {
	items []ScoredRecord
}

// Len 返回参与排序的记录数。
func (r *Ranking) Len() int {
	return len(r.items)
}

// All 按排名顺序遍历所有记录。可以多次遍历，每次都从第一名开始。
// 产出的记录是副本，修改不会影响语料库缓存。
func (r *Ranking) All() iter.Seq[ScoredRecord] {
	return func(yield func(ScoredRecord) bool) {
		for _, item := range r.items {
			if !yield(item.clone()) {
				return
			}
		}
	}
}

// Top 返回前 min(k, Len()) 条记录的副本。k <= 0 时返回空切片。
func (r *Ranking) Top(k int) []ScoredRecord {
	k = max(0, min(k, len(r.items)))
	top := make([]ScoredRecord, k)
	for i, item := range r.items[:k] {
		top[i] = item.clone()
	}
	return top
}

func (s ScoredRecord) clone() ScoredRecord {
	return ScoredRecord{Record: s.Record.Clone(), Score: s.Score}
}

// CosineSimilarity 计算两个向量的余弦相似度，累加在 float64 中进行。
// 长度不同返回错误；任一向量范数为零时结果为 NaN。
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("vector length %d != %d", len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return math.NaN(), nil
	}

	sim := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// 浮点误差可能略微越界
	return max(-1, min(1, sim)), nil
}

// Rank 按与 query 的余弦相似度对语料库排序。
// 任何一条记录的维度与 query 不同都返回 ErrDimensionMismatch；
// 相似度无定义（零向量）的记录不参与排名。
func Rank(query []float32, corpus *store.Corpus) (*Ranking, error) {
	items := make([]ScoredRecord, 0, corpus.Len())
	for _, rec := range corpus.All() {
		score, err := CosineSimilarity(query, rec.Embedding)
		if err != nil {
			return nil, errors.ErrDimensionMismatch.WithCause(
				fmt.Errorf("record %q: %w", rec.ID, err))
		}
		if math.IsNaN(score) {
			continue
		}
		items = append(items, ScoredRecord{Record: rec, Score: score})
	}

	slices.SortStableFunc(items, func(a, b ScoredRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})
	return &Ranking{items: items}, nil
}
