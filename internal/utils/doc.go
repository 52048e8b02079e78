// Package utils provides small helpers shared by the commands: reading piped
// input, detecting interactive sessions and parsing loosely typed values.
package utils
