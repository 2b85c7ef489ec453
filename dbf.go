// Package dbf reads and writes dBase III tables (.dbf files).
//
// A table is written either in one pass to any io.Writer:
//
//	tw, err := dbf.NewWriter().SetFields(dbf.CharField("NAME", 10), dbf.NumericField("QTY", 5, 0))
//	err = tw.AddValues("Red", 10)
//	err = tw.WriteFile("colors.dbf")
//
// or extended in place with an Appender, which only overwrites the trailing
// end-of-file marker and the record count of an existing file:
//
//	a, err := dbf.OpenAppender("colors.dbf")
//	err = a.AddValues("Green", 33)
//	err = a.Close()
//
// Readers and appenders hold exclusive use of their file; callers serialize
// access to the same file across goroutines and processes.
package dbf

import (
	"fmt"
	"time"
)

const (
	SPACE      = 0x20
	EOF        = 0x1A
	NUL        = 0x00
	TERMINATOR = 0x0D
	DELETED    = '*'

	// Version3 is the dBase III version marker written by default.
	Version3 = 0x03

	headerSize = 32
	fieldSize  = 32
)

// Date is a calendar day. Header update dates and Date field values use it
// so that no time zone ever leaks into the file.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

func (d Date) IsZero() bool {
	return d == Date{}
}

// Valid reports whether d names a real calendar day.
func (d Date) Valid() bool {
	return d.Month >= time.January && d.Month <= time.December && d.Day >= 1 && DateOf(d.Time()) == d
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}
