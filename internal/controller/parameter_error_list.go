package controller

import (
	"encoding/base64"
	"strconv"
	"strings"
)

// ParameterErrorList contains a list of human-readable errors about parameters.
type ParameterErrorList []string

// AppendIfEmptyOrBlankSpaces appends the error message specified if `str` is empty or contains only blank spaces.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the trimmed string
func (pel *ParameterErrorList) AppendIfEmptyOrBlankSpaces(str string, errMsg string) string {
	if str = strings.TrimSpace(str); str == "" {
		*pel = append(*pel, errMsg)
	}

	return str
}

// AppendIfNotPositiveInt appends the error message specified if `str` is not a positive int.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the parsed int or 0 if it can't be parsed as int
func (pel *ParameterErrorList) AppendIfNotPositiveInt(str string, errMsg string) int {
	intResult, err := strconv.Atoi(str)
	if err != nil {
		*pel = append(*pel, errMsg)
		return 0
	}

	if intResult < 1 {
		*pel = append(*pel, errMsg)
	}

	return intResult
}

// AppendIfNotUint64 appends the error message specified if `str` is not an unsigned 64-bit integer.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the parsed uint64 or 0 if there's error
func (pel *ParameterErrorList) AppendIfNotUint64(str string, errMsg string) uint64 {
	uintResult, err := strconv.ParseUint(str, 10, 64)
	if err != nil {
		*pel = append(*pel, errMsg)
	}

	return uintResult
}

// AppendIfNotBase64 appends the error message specified if `str` is not a Base64 encoded string.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the decoded bytes or nil if there's error
func (pel *ParameterErrorList) AppendIfNotBase64(str string, errMsg string) []byte {
	decoded, err := base64.StdEncoding.DecodeString(str)
	if err != nil {
		*pel = append(*pel, errMsg)
		return nil
	}

	return decoded
}
