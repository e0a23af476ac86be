// Package biz 实现问答流水线。
//
// 一次提问依次经过：输入校验、语料加载、问题向量化、相似度排序与 top-K 选取、
// 提示词组装、答案生成。任何一步都不重试；失败以带错误码的 Errno 返回，
// 原始原因只写入日志。
package biz
