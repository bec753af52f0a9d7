package fs

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// Duration is a time.Duration which can be read from config. A zero
// Duration means off.
type Duration time.Duration

// String turns Duration into a string
func (d Duration) String() string {
	if d == 0 {
		return "off"
	}
	return time.Duration(d).String()
}

// Set a Duration from "off", "0" or anything time.ParseDuration takes
func (d *Duration) Set(s string) error {
	if s == "off" || s == "0" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(err, "bad duration %q", s)
	}
	if v < 0 {
		return errors.Errorf("duration can't be negative %q", s)
	}
	*d = Duration(v)
	return nil
}

// Type of the value
func (d *Duration) Type() string {
	return "Duration"
}

// Scan implements the fmt.Scanner interface
func (d *Duration) Scan(s fmt.ScanState, ch rune) error {
	token, err := s.Token(true, nil)
	if err != nil {
		return err
	}
	return d.Set(string(token))
}
