package dbf

import (
	"io"
	"log/slog"
	"time"

	"github.com/pkg/errors"
)

type options struct {
	charset        Charset
	languageDriver byte
	version        byte
	logger         *slog.Logger
	now            func() time.Time
	err            error
}

// Option configures a Reader, Writer or Appender.
type Option func(*options)

// WithEncoding selects a mahonia charset by name for Character fields.
func WithEncoding(name string) Option {
	return func(o *options) {
		cs, err := MahoniaCharset(name)
		if err != nil {
			o.err = err
			return
		}
		o.charset = cs
	}
}

func WithCharset(cs Charset) Option {
	return func(o *options) {
		if cs == nil {
			o.err = errors.Wrap(ErrUnknownCharset, "nil charset")
			return
		}
		o.charset = cs
	}
}

// WithLanguageDriver stamps the language driver byte into new headers and
// selects its code page for Character fields.
func WithLanguageDriver(id byte) Option {
	return func(o *options) {
		cs, err := LanguageDriverCharset(id)
		if err != nil {
			o.err = err
			return
		}
		o.charset = cs
		o.languageDriver = id
	}
}

func WithVersion(v byte) Option {
	return func(o *options) { o.version = v }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithClock overrides the source of the header's last-update date.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func newOptions(opts []Option) (options, error) {
	o := options{
		version: Version3,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.err != nil {
		return o, errors.Wrap(o.err, "option")
	}
	return o, nil
}

// charsetFor picks the configured charset, else the one named by a loaded
// header's language driver, else the default.
func (o *options) charsetFor(languageDriver byte) Charset {
	if o.charset != nil {
		return o.charset
	}
	if languageDriver != 0 {
		if cs, err := LanguageDriverCharset(languageDriver); err == nil {
			return cs
		}
		o.logger.Debug("dbf: unknown language driver, using default charset", "driver", languageDriver)
	}
	return defaultCharset
}
