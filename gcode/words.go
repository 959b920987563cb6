package gcode

import (
	"errors"
	"strconv"
	"strings"
)

// ErrBadWord is returned when a word is present but its value cannot be parsed.
var ErrBadWord = errors.New("malformed word")

// StripComment returns the code part of the line, without ';' comment and
// surrounding spaces.
func StripComment(line string) string {
	if i := strings.IndexByte(line, ';'); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(line)
}

// IsComment reports whether the line holds nothing but a comment.
func IsComment(line string) bool {
	t := strings.TrimSpace(line)
	return len(t) > 0 && t[0] == ';'
}

// IsMove reports whether the line is a linear move (G0 or G1).
func IsMove(line string) bool {
	fields := strings.Fields(StripComment(line))
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "G0", "G1", "G00", "G01":
		return true
	}
	return false
}

// Word looks up value of the word with given address letter. Second value is
// false if the word is absent; error is returned when it is present but not a
// number.
func Word(line string, letter byte) (float64, bool, error) {
	for _, f := range strings.Fields(StripComment(line)) {
		if f[0] != letter {
			continue
		}
		v, err := strconv.ParseFloat(f[1:], 64)
		if err != nil {
			return 0, true, errors.Join(ErrBadWord, err)
		}
		return v, true, nil
	}
	return 0, false, nil
}

// SetWord replaces value of the word with given address letter keeping the
// rest of the line, comment included, intact. Line without such word is
// returned as is.
func SetWord(line string, letter byte, value float64, prec int) string {
	code, comment := line, ""
	if i := strings.IndexByte(line, ';'); i >= 0 {
		code, comment = line[:i], line[i:]
	}

	start := -1
	for i := 0; i < len(code); i++ {
		if code[i] == letter && (i == 0 || code[i-1] == ' ' || code[i-1] == '\t') {
			start = i
			break
		}
	}
	if start < 0 {
		return line
	}
	end := start + 1
	for end < len(code) && code[end] != ' ' && code[end] != '\t' {
		end++
	}
	return code[:start+1] + strconv.FormatFloat(value, 'f', prec, 64) + code[end:] + comment
}
