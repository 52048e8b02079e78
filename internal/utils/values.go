package utils

import (
	"strconv"
	"strings"
)

// ParseValue converts a command-line value to bool, int or float when it
// looks like one and leaves it a string otherwise.
func ParseValue(s string) any {
	switch strings.ToLower(s) {
	case "true":
		return true
	case "false":
		return false
	}
	if strings.Contains(s, ".") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
		return s
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return s
}
