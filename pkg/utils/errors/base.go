package errors

import (
	"net/http"

	"google.golang.org/grpc/codes"
)

// Common errors (service 00).
var (
	OK = &Errno{Code: 0, HTTP: http.StatusOK, GRPCCode: codes.OK, MessageEN: "Success", MessageZH: "成功"}

	ErrBadRequest       = NewRequestErr(ServiceCommon, 1, "Bad request", "请求错误")
	ErrMethodNotAllowed = NewError(ServiceCommon, CategoryRequest, 2, http.StatusMethodNotAllowed, codes.Unimplemented, "Method not allowed", "方法不允许")
	ErrNotFound         = NewError(ServiceCommon, CategoryResource, 1, http.StatusNotFound, codes.NotFound, "Resource not found", "资源不存在")
	ErrInternal         = NewInternalErr(ServiceCommon, 1, "Internal server error", "服务器内部错误")
)
