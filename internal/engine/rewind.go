package engine

// Rewind sets cursor back to read, so the next Fetch replays the oldest
// undiscarded object again. Performs no flash I/O.
func (e *Engine) Rewind() error {
	if err := e.requireInitialized(); err != nil {
		return err
	}
	e.cursor = e.read
	return nil
}
