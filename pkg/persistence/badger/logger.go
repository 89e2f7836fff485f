package badger

import (
	"strings"

	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// badgerLoggerAdapter routes badger's printf-style logs into zap under a
// "badger" component field. Badger terminates lines with a newline that zap
// does not need.
type badgerLoggerAdapter struct {
	logger *zap.Logger
}

var _ badgerdb.Logger = (*badgerLoggerAdapter)(nil)

func (b *badgerLoggerAdapter) sugar() *zap.SugaredLogger {
	return b.logger.With(zap.String("component", "badger")).Sugar()
}

func (b *badgerLoggerAdapter) Errorf(format string, args ...interface{}) {
	b.sugar().Errorf(strings.TrimSuffix(format, "\n"), args...)
}

func (b *badgerLoggerAdapter) Warningf(format string, args ...interface{}) {
	b.sugar().Warnf(strings.TrimSuffix(format, "\n"), args...)
}

func (b *badgerLoggerAdapter) Infof(format string, args ...interface{}) {
	b.sugar().Infof(strings.TrimSuffix(format, "\n"), args...)
}

func (b *badgerLoggerAdapter) Debugf(format string, args ...interface{}) {
	b.sugar().Debugf(strings.TrimSuffix(format, "\n"), args...)
}
