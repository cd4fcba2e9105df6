package sqlstore

// StorageError carries an engine failure unchanged. Its message is the
// engine's own message.
type StorageError struct {
	Query string
	Err   error
}

func (e *StorageError) Error() string { return e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }
