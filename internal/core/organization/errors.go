package organization

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument はサービスへの入力が前提条件を満たさない場合に返却されます。
var ErrInvalidArgument = errors.New("invalid argument")

// DomainError は前提条件違反を表すエラーです。
type DomainError struct {
	Op  string
	Msg string
}

func newDomainError(op, format string, args ...any) *DomainError {
	return &DomainError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("organization: %s: %s", e.Op, e.Msg)
}

// Unwrap は ErrInvalidArgument を返します。
func (e *DomainError) Unwrap() error {
	return ErrInvalidArgument
}
