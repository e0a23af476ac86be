// Package store 负责语料库的持久化格式与进程内缓存。
//
// 语料库在进程生命周期内只加载一次：首次并发访问共享同一次加载，
// 加载成功后的 *Corpus 在之后的每次调用中原样返回，加载失败不会被缓存。
package store
