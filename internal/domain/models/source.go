package models

// SourceStatus tags the outcome of one aggregation task.
type SourceStatus string

const (
	StatusSuccess     SourceStatus = "success"
	StatusUnavailable SourceStatus = "unavailable"
)

// SourceResult is either Success{Data} or Unavailable{Reason}.
// Every aggregation slot resolves to one of the two.
type SourceResult[T any] struct {
	Status SourceStatus `json:"status"`
	Data   T            `json:"data,omitempty"`
	Reason string       `json:"reason,omitempty"`
}

// Success wraps data.
func Success[T any](data T) SourceResult[T] {
	return SourceResult[T]{Status: StatusSuccess, Data: data}
}

// Unavailable records why a source produced nothing.
func Unavailable[T any](reason string) SourceResult[T] {
	if reason == "" {
		reason = "unavailable"
	}
	return SourceResult[T]{Status: StatusUnavailable, Reason: reason}
}

// OK reports whether the result carries data.
func (r SourceResult[T]) OK() bool { return r.Status == StatusSuccess }
