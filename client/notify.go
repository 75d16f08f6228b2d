package client

import "errors"

// NoticeLevel classifies operator-facing notices.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
	NoticeError   NoticeLevel = "error"
)

// Notifier receives transient operator notices. Controllers report every
// outcome here instead of returning raw errors to the view layer.
type Notifier interface {
	Notify(level NoticeLevel, message string)
}

// NopNotifier discards notices.
type NopNotifier struct{}

func (NopNotifier) Notify(NoticeLevel, string) {}

const genericFailure = "action failed, please try again"

// failureMessage prefers the server's own text when the backend supplied
// one.
func failureMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return genericFailure
}
