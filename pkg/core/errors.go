package core

import "github.com/pkg/errors"

// 配置校验错误。具体错误通过errors.Wrap包装以下错误，使用errors.Cause或errors.Is判断类别
var (
	ErrLimit      = errors.New("非法的数值界限")
	ErrPolicy     = errors.New("未知的阈值策略")
	ErrCharacter  = errors.New("标识符含有非法字符")
	ErrTime       = errors.New("非法的时间")
	ErrWorkingSet = errors.New("非法的运行状态")
	ErrBinding    = errors.New("非法的绑定记录")
)

var validationErrors = []error{ErrLimit, ErrPolicy, ErrCharacter, ErrTime, ErrWorkingSet, ErrBinding}

func IsValidationError(err error) bool {
	cause := errors.Cause(err)
	for _, e := range validationErrors {
		if cause == e {
			return true
		}
	}
	return false
}
