package storage

import "errors"

// ErrEmptyName is returned when an entry is written without a name.
var ErrEmptyName = errors.New("storage: empty entry name")

// LocalStorage is a durable string-to-string map kept on the operator's machine.
type LocalStorage interface {
	Get(name string) (string, bool)

	Set(name, value string) error
}
