package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// 错误类别，handler 只依据类别映射响应码
var (
	ErrNotFound        = errors.New("资源不存在")
	ErrInvalidArgument = errors.New("参数错误")
	ErrConflict        = errors.New("状态冲突")
	ErrInternal        = errors.New("服务器内部错误")
)

// Error 带类别的业务错误，Message 直接展示给调用方
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// 具体错误
var (
	ErrMemberNotFound       = newError(ErrNotFound, "会员不存在")
	ErrSubscriptionNotFound = newError(ErrNotFound, "订阅不存在")
	ErrPaymentNotFound      = newError(ErrNotFound, "支付记录不存在")

	ErrInvalidDuration    = newError(ErrInvalidArgument, "订阅时长必须大于 0")
	ErrInvalidPrice       = newError(ErrInvalidArgument, "价格不能为负数")
	ErrInvalidAmount      = newError(ErrInvalidArgument, "金额必须大于 0")
	ErrInvalidMemberType  = newError(ErrInvalidArgument, "无效的会员类型")
	ErrInvalidRole        = newError(ErrInvalidArgument, "无效的角色")
	ErrInvalidWindow      = newError(ErrInvalidArgument, "天数不能为负数")
	ErrInvalidCriterion   = newError(ErrInvalidArgument, "无效的重复检测类型")
	ErrNoSourceMembers    = newError(ErrInvalidArgument, "至少需要一个被合并的会员")
	ErrTargetInSources    = newError(ErrInvalidArgument, "目标会员不能同时出现在被合并列表中")
	ErrMergeMemberMissing = newError(ErrInvalidArgument, "合并的会员中有不存在的记录")
	ErrInvalidStatus      = newError(ErrInvalidArgument, "无效的订阅状态")
	ErrInvalidSignature   = newError(ErrInvalidArgument, "签名校验失败")
	ErrPaymentDisabled    = newError(ErrInvalidArgument, "在线支付未配置")

	ErrEmailExists           = newError(ErrConflict, "邮箱已被注册")
	ErrLastSuperAdmin        = newError(ErrConflict, "不能降级或删除最后一个超级管理员")
	ErrNotPending            = newError(ErrConflict, "该会员不是待审核状态")
	ErrSubscriptionExpired   = newError(ErrConflict, "已过期的订阅不能重新激活")
	ErrMergeConcurrent       = newError(ErrConflict, "会员已被其他合并操作处理")
	ErrPaymentAlreadySettled = newError(ErrConflict, "支付已处于终态")
	ErrSweepInProgress       = newError(ErrConflict, "每日检查正在其他实例上运行")

	ErrInvalidCredentials = errors.New("邮箱或密码错误")
	ErrAccountNotApproved = errors.New("账号尚未通过审核")
)

// internalError 包装持久化错误，对外只暴露类别
func internalError(err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInternal, err)
}

// notFoundOr 把 gorm.ErrRecordNotFound 映射为 notFound，其余视为内部错误
func notFoundOr(err, notFound error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound
	}
	return internalError(err)
}

// AsError 取出业务错误，未分类的错误返回 nil
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
