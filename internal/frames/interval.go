package frames

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const groupSeparator = "__"

var (
	ErrMissingSeparator = errors.New("missing \"__\" between start and end groups")
	ErrTooFewTokens     = errors.New("too few tokens")
	ErrNotNumeric       = errors.New("not a number")
	ErrOutOfRange       = errors.New("out of range")
)

// display window of one subtitle, relative to track start
type Interval struct {
	Start time.Duration
	End   time.Duration
}

func (iv Interval) Duration() time.Duration {
	return iv.End - iv.Start
}

// Ordered reports start <= end.
func (iv Interval) Ordered() bool {
	return iv.Start <= iv.End
}

func (iv Interval) String() string {
	return fmt.Sprintf("%s --> %s", iv.Start, iv.End)
}

// ParseError reports which group and token of a frame name did not follow the
// timing convention. Token is -1 when the group as a whole is unusable.
type ParseError struct {
	Name  string
	Group string
	Token int
	Err   error
}

func (e *ParseError) Error() string {
	if e.Token < 0 {
		return fmt.Sprintf("parse %q: %s group: %v", e.Name, e.Group, e.Err)
	}
	return fmt.Sprintf("parse %q: %s group token %d: %v", e.Name, e.Group, e.Token, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// field widths of the hour, minute, second and millisecond prefixes
var fieldWidths = [4]int{2, 2, 2, 3}

// ParseInterval derives the display interval from a frame's base name.
//
// Two layouts are understood. The extractor layout
//
//	0_00_01_234__0_00_03_456_0070000007200000000000000000000
//
// carries four underscore-separated tokens per group and the leading 2-2-2-3
// digits of each token are used. The compact layout
//
//	000001234_a__000003456_b
//
// packs HHMMSSmmm into the first token of each group. A trailing file
// extension is ignored. start <= end is not checked here.
func ParseInterval(name string) (Interval, error) {
	name = strings.TrimSuffix(name, filepath.Ext(name))

	startGroup, endGroup, ok := strings.Cut(name, groupSeparator)
	if !ok {
		return Interval{}, &ParseError{Name: name, Group: "end", Token: -1, Err: ErrMissingSeparator}
	}

	start, err := parseGroup(name, "start", startGroup)
	if err != nil {
		return Interval{}, err
	}
	end, err := parseGroup(name, "end", endGroup)
	if err != nil {
		return Interval{}, err
	}

	return Interval{Start: start, End: end}, nil
}

func parseGroup(name, group, value string) (time.Duration, error) {
	tokens := strings.Split(value, "_")

	var fields [4]string
	if isDigits(tokens[0]) && len(tokens[0]) == 9 {
		compact := tokens[0]
		fields = [4]string{compact[0:2], compact[2:4], compact[4:6], compact[6:9]}
	} else {
		if len(tokens) < 4 {
			return 0, &ParseError{Name: name, Group: group, Token: len(tokens), Err: ErrTooFewTokens}
		}
		// an all-digit hour token wider than its field would otherwise be
		// truncated into a different time
		if isDigits(tokens[0]) && len(tokens[0]) > fieldWidths[0] {
			return 0, &ParseError{
				Name:  name,
				Group: group,
				Token: 0,
				Err:   fmt.Errorf("%w: hours %s", ErrOutOfRange, tokens[0]),
			}
		}
		for i, width := range fieldWidths {
			fields[i] = prefix(tokens[i], width)
		}
	}

	var nums [4]int
	for i, field := range fields {
		if field == "" || !isDigits(field) {
			return 0, &ParseError{
				Name:  name,
				Group: group,
				Token: i,
				Err:   fmt.Errorf("%w: %q", ErrNotNumeric, field),
			}
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return 0, &ParseError{Name: name, Group: group, Token: i, Err: err}
		}
		nums[i] = n
	}

	// minutes and seconds must fit a clock; hours were bounded to 99 above
	for _, i := range []int{1, 2} {
		if nums[i] >= 60 {
			return 0, &ParseError{
				Name:  name,
				Group: group,
				Token: i,
				Err:   fmt.Errorf("%w: %d", ErrOutOfRange, nums[i]),
			}
		}
	}

	return time.Duration(nums[0])*time.Hour +
		time.Duration(nums[1])*time.Minute +
		time.Duration(nums[2])*time.Second +
		time.Duration(nums[3])*time.Millisecond, nil
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
