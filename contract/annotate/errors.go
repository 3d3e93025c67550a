package annotate

import "errors"

// 状态不满足
var (
	ErrSaleRunning        = errors.New("sale is still running")
	ErrSaleNotRunning     = errors.New("sale is not running")
	ErrNotExpired         = errors.New("project is not expired")
	ErrNotSuccess         = errors.New("project has not succeeded")
	ErrExpired            = errors.New("project is expired")
	ErrAnnotationFinished = errors.New("annotation is finished")
)

// 参数校验
var (
	ErrInvalidAmount     = errors.New("amount must be positive")
	ErrEmptyLabel        = errors.New("label cannot be empty")
	ErrInvalidTarget     = errors.New("target amount must be positive")
	ErrInvalidDeadline   = errors.New("deadline must be in the future")
	ErrInvalidRecipient  = errors.New("recipient cannot be empty")
	ErrInvalidRewardUnit = errors.New("reward unit must be positive")
)

// 查找失败
var (
	ErrProjectNotFound = errors.New("project not found")
	ErrTaskNotFound    = errors.New("data point not found")
)
