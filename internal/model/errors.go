package model

import "fmt"

// ValidationKind classifies a recoverable input failure.
type ValidationKind string

const (
	KindEmptyTitle        ValidationKind = "EmptyTitle"
	KindEmptyDescription  ValidationKind = "EmptyDescription"
	KindNoSubItems        ValidationKind = "NoSubItems"
	KindEmptySubItemName  ValidationKind = "EmptySubItemName"
	KindIndexOutOfRange   ValidationKind = "IndexOutOfRange"
	KindCompletionDerived ValidationKind = "CompletionDerived"
	KindInvalidPriority   ValidationKind = "InvalidPriority"
)

// ValidationError reports a rejected task input or mutation. Two
// ValidationErrors match under errors.Is when their kinds are equal,
// so the exported sentinels can be compared against detailed errors.
type ValidationError struct {
	Kind   ValidationKind
	Detail string
}

func (e *ValidationError) Error() string {
	msg := validationMessages[e.Kind]
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	return msg
}

// Is matches on Kind.
func (e *ValidationError) Is(target error) bool {
	t, ok := target.(*ValidationError)
	return ok && t.Kind == e.Kind
}

var validationMessages = map[ValidationKind]string{
	KindEmptyTitle:        "task title must not be empty",
	KindEmptyDescription:  "task description must not be empty",
	KindNoSubItems:        "task needs at least one sub-item",
	KindEmptySubItemName:  "sub-item name must not be empty",
	KindIndexOutOfRange:   "sub-item index out of range",
	KindCompletionDerived: "completion is derived from sub-items",
	KindInvalidPriority:   "unknown priority",
}

// Sentinels for errors.Is.
var (
	ErrEmptyTitle        = &ValidationError{Kind: KindEmptyTitle}
	ErrEmptyDescription  = &ValidationError{Kind: KindEmptyDescription}
	ErrNoSubItems        = &ValidationError{Kind: KindNoSubItems}
	ErrEmptySubItemName  = &ValidationError{Kind: KindEmptySubItemName}
	ErrIndexOutOfRange   = &ValidationError{Kind: KindIndexOutOfRange}
	ErrCompletionDerived = &ValidationError{Kind: KindCompletionDerived}
	ErrInvalidPriority   = &ValidationError{Kind: KindInvalidPriority}
)

func indexError(index, length int) error {
	return &ValidationError{
		Kind:   KindIndexOutOfRange,
		Detail: fmt.Sprintf("index %d, %d sub-items", index, length),
	}
}
