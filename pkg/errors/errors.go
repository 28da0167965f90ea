package errors

import "errors"

// ErrStateChanged 条件更新未命中：记录已被其他请求修改或删除
var ErrStateChanged = errors.New("record state changed by another operation")
