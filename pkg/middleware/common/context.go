// Package common holds request-scoped helpers shared by the middleware and
// the business layer without pulling in the HTTP framework.
package common

import (
	"context"
	"crypto/rand"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// HeaderXRequestID is the header name for request ID.
const HeaderXRequestID = "X-Request-ID"

// RequestIDKey is the context key type for request ID.
type RequestIDKey struct{}

// GetRequestID returns the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestIDKey{}, requestID)
}

// ULIDGenerator 生成单调递增的 ULID。
//
// 格式: 01AN4Z07BY79KA1307SR9X4MV3
//   - 前 10 字符: 时间戳 (毫秒)
//   - 后 16 字符: 随机熵
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy io.Reader
}

// NewULIDGenerator 创建新的 ULID 生成器，同一毫秒内生成的 ID 也保持有序。
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// Generate 返回一个新的 ULID 字符串。
func (g *ULIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy).String()
}

var defaultGenerator = NewULIDGenerator()

// GenerateRequestID returns a new request ID from the shared ULID generator.
func GenerateRequestID() string {
	return defaultGenerator.Generate()
}
