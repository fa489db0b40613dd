package repositories

import (
	"log"

	"github.com/dgraph-io/badger/v4"
)

// badgerLogger routes badger's output through a standard logger, dropping
// debug messages.
type badgerLogger struct {
	*log.Logger
}

func newBadgerLogger(l *log.Logger) badger.Logger {
	if l == nil {
		return nil
	}
	return badgerLogger{l}
}

func (l badgerLogger) Errorf(f string, v ...interface{})   { l.Printf("ERROR: "+f, v...) }
func (l badgerLogger) Warningf(f string, v ...interface{}) { l.Printf("WARNING: "+f, v...) }
func (l badgerLogger) Infof(f string, v ...interface{})    { l.Printf("INFO: "+f, v...) }
func (l badgerLogger) Debugf(string, ...interface{})       {}
