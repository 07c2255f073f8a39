package evaluator

import "fmt"

func newError(kind ErrorKind, format string, a ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, a...)}
}

func newTypeError(format string, a ...interface{}) *Error {
	return newError(ERR_TYPE, format, a...)
}

func newBoundsError(format string, a ...interface{}) *Error {
	return newError(ERR_BOUNDS, format, a...)
}

func newRuntimeError(format string, a ...interface{}) *Error {
	return newError(ERR_RUNTIME, format, a...)
}

func newFormatError(format string, a ...interface{}) *Error {
	return newError(ERR_FORMAT, format, a...)
}

func newArityError(name string, want string, got int) *Error {
	return newError(ERR_ARITY, "%s expects %s arguments, got %d", name, want, got)
}
