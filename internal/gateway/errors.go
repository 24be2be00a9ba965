package gateway

import (
	"errors"
	"fmt"
)

// ErrRemoteCall 远程调用失败的统一哨兵，RemoteError 通过 errors.Is 匹配它
var ErrRemoteCall = errors.New("order platform call failed")

// ErrNotFound 平台记录不存在
var ErrNotFound = errors.New("order platform record not found")

// RemoteError 远程调用错误，保留平台返回的原始消息供用户提示
type RemoteError struct {
	Procedure  string
	StatusCode int
	Message    string
	Err        error
}

func (e *RemoteError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Procedure, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Procedure, e.Err)
	}
	return fmt.Sprintf("%s: status %d", e.Procedure, e.StatusCode)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Is 使 RemoteError 匹配 ErrRemoteCall
func (e *RemoteError) Is(target error) bool {
	return target == ErrRemoteCall
}

// UserMessage 提取可展示给用户的消息：优先平台消息，否则通用回退
func UserMessage(err error) string {
	var remote *RemoteError
	if errors.As(err, &remote) && remote.Message != "" {
		return remote.Message
	}
	return "order platform is temporarily unavailable"
}
