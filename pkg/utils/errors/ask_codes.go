package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// 问答服务代码: 21 (业务服务范围 20-79)
// 错误码格式: AABBCCC

var (
	// 问题为空、仅含空白或不是合法 UTF-8 (类别 01)
	ErrInvalidQuestion = NewRequestErr(ServiceAsk, 1, "Invalid question", "问题无效")

	// 语料库无法加载 (类别 07)
	ErrCorpusUnavailable = NewError(ServiceAsk, CategoryInternal, 1, http.StatusServiceUnavailable, codes.Unavailable, "Corpus unavailable", "语料库不可用")
	// 查询向量与语料向量维度不一致 (类别 07)
	ErrDimensionMismatch = NewInternalErr(ServiceAsk, 2, "Embedding dimension mismatch", "向量维度不一致")

	// 上游模型服务失败 (类别 10)
	ErrEmbeddingProvider  = NewNetworkErr(ServiceAsk, 1, "Embedding provider error", "向量服务调用失败")
	ErrCompletionProvider = NewNetworkErr(ServiceAsk, 2, "Completion provider error", "对话模型调用失败")
)
