package fs

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// SizeSuffix is an int64 with a friendly way of printing and setting
// binary multiples.
type SizeSuffix int64

// Common multipliers for SizeSuffix
const (
	Byte SizeSuffix = 1 << (iota * 10)
	Kibi
	Mebi
	Gibi
	Tebi
	Pebi
)

var sizeSuffixes = []struct {
	suffix string
	mult   SizeSuffix
}{
	{"Pi", Pebi},
	{"Ti", Tebi},
	{"Gi", Gibi},
	{"Mi", Mebi},
	{"Ki", Kibi},
}

// String turns SizeSuffix into a string, eg "5Mi" or "1.500Ki"
func (x SizeSuffix) String() string {
	switch {
	case x < 0:
		return "off"
	case x == 0:
		return "0"
	}
	for _, s := range sizeSuffixes {
		if x >= s.mult {
			v := float64(x) / float64(s.mult)
			if math.Floor(v) == v {
				return fmt.Sprintf("%d%s", int64(v), s.suffix)
			}
			return fmt.Sprintf("%.3f%s", v, s.suffix)
		}
	}
	return strconv.FormatInt(int64(x), 10)
}

// ByteUnit returns the size with a "B" unit appended, eg "5MiB"
func (x SizeSuffix) ByteUnit() string {
	s := x.String()
	if x <= 0 {
		return s
	}
	if x < Kibi {
		return s + " B"
	}
	return s + "B"
}

// Set a SizeSuffix from a string like "5M", "5Mi", "5MiB" or "4096".
// A bare number is bytes.
func (x *SizeSuffix) Set(s string) error {
	if s == "" {
		return errors.New("empty string")
	}
	if strings.ToLower(s) == "off" {
		*x = -1
		return nil
	}
	mult := Byte
	in := strings.TrimSuffix(strings.TrimSuffix(s, "B"), "b")
	in = strings.TrimSuffix(in, "i")
	if in != "" {
		switch in[len(in)-1] {
		case 'k', 'K':
			mult = Kibi
		case 'm', 'M':
			mult = Mebi
		case 'g', 'G':
			mult = Gibi
		case 't', 'T':
			mult = Tebi
		case 'p', 'P':
			mult = Pebi
		}
		if mult != Byte {
			in = in[:len(in)-1]
		}
	}
	value, err := strconv.ParseFloat(in, 64)
	if err != nil {
		return errors.Wrapf(err, "bad size %q", s)
	}
	if value < 0 {
		return errors.Errorf("size can't be negative %q", s)
	}
	*x = SizeSuffix(value * float64(mult))
	return nil
}

// Type of the value
func (x *SizeSuffix) Type() string {
	return "SizeSuffix"
}

// Scan implements the fmt.Scanner interface
func (x *SizeSuffix) Scan(s fmt.ScanState, ch rune) error {
	token, err := s.Token(true, nil)
	if err != nil {
		return err
	}
	return x.Set(string(token))
}
