package errors

import "sync"

var (
	defaultHandler *ErrorHandler
	once           sync.Once
)

// GetDefaultHandler returns the process-wide handler, creating it on
// first use.
func GetDefaultHandler() (*ErrorHandler, error) {
	var err error
	once.Do(func() {
		defaultHandler, err = NewErrorHandler()
	})
	return defaultHandler, err
}

// HandleError reports err through the default handler. It is a no-op when
// the handler itself cannot be constructed; the caller still exits non-zero.
func HandleError(err error) {
	if handler, handlerErr := GetDefaultHandler(); handlerErr == nil {
		handler.Handle(err)
	}
}

// resetDefaultHandler resets the singleton for testing purposes
func resetDefaultHandler() {
	defaultHandler = nil
	once = sync.Once{}
}
