package clipboard

import cb "github.com/atotto/clipboard"

// Writer performs the actual clipboard write.
type Writer interface {
	WriteAll(text string) error
}

// System writes to the OS clipboard.
type System struct{}

func (System) WriteAll(text string) error {
	return cb.WriteAll(text)
}

