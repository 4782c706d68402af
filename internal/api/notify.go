package api

// Notifier is the global user-visible notification channel (toasts in the
// mobile shell, stderr in the CLI). No error is silently discarded: every
// surfaced failure fires at least one notification.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// NopNotifier discards notifications. Useful in tests.
type NopNotifier struct{}

func (NopNotifier) Success(string, string) {}
func (NopNotifier) Error(string, string)   {}
