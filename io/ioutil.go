// Package io provides the file helpers used by compression drivers and
// the block-framed compressed stream Writer and Reader.
package io

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	kanzi "github.com/backwardn/kanzi-go"
)

// IOError carries a human readable message and a stable error code from
// the kanzi error table.
type IOError struct {
	msg  string
	code int
}

// NewIOError creates an error with the given message and code.
func NewIOError(msg string, code int) *IOError {
	return &IOError{msg: msg, code: code}
}

// Error returns the message with the error code appended.
func (e *IOError) Error() string {
	return fmt.Sprintf("%s (error %d)", e.msg, e.code)
}

// Message returns the message alone.
func (e *IOError) Message() string {
	return e.msg
}

// ErrorCode returns the stable error code.
func (e *IOError) ErrorCode() int {
	return e.code
}

// CreateFileList expands target into the list of regular files to
// process and appends them to fileList, returning the extended slice.
//
// A regular file target is appended as is, unless its basename starts
// with a dot. A directory target is walked recursively, except when it
// ends with <separator>'.' which restricts the enumeration to the
// directory itself. The bare target "." stays recursive. Hidden entries
// (leading dot) are skipped everywhere. Entries appear in the natural
// enumeration order of the filesystem.
//
// On error the returned slice holds whatever was accumulated so far and
// must be discarded by the caller.
func CreateFileList(target string, fileList []string) ([]string, error) {
	sep := string(os.PathSeparator)

	if len(target) > 0 && target[len(target)-1] == os.PathSeparator {
		target = target[:len(target)-1]
	}

	fi, err := os.Stat(target)

	if err != nil {
		return fileList, NewIOError(fmt.Sprintf("Cannot access input file '%s'", target), kanzi.ERR_OPEN_FILE)
	}

	if fi.Mode().IsRegular() {
		if !strings.HasPrefix(filepath.Base(target), ".") {
			fileList = append(fileList, target)
		}

		return fileList, nil
	}

	if !fi.IsDir() {
		return fileList, NewIOError(fmt.Sprintf("Invalid file type '%s'", target), kanzi.ERR_OPEN_FILE)
	}

	// A trailing <separator>'.' turns recursion off. The test is purely
	// syntactic: "." is recursive, "foo<separator>." is not.
	isRecursive := len(target) <= 2 || target[len(target)-1] != '.' ||
		target[len(target)-2] != os.PathSeparator

	if isRecursive {
		if len(target) == 0 || target[len(target)-1] != os.PathSeparator {
			target += sep
		}
	} else {
		target = target[:len(target)-1]
	}

	entries, err := os.ReadDir(target)

	if err != nil {
		return fileList, NewIOError(fmt.Sprintf("Cannot read directory '%s'", target), kanzi.ERR_READ_FILE)
	}

	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}

		fullPath := target + entry.Name()
		fi, err := os.Stat(fullPath)

		if err != nil {
			return fileList, NewIOError(fmt.Sprintf("Cannot access input file '%s'", fullPath), kanzi.ERR_OPEN_FILE)
		}

		if fi.Mode().IsRegular() {
			fileList = append(fileList, fullPath)
		} else if isRecursive && fi.IsDir() {
			fileList, err = CreateFileList(fullPath, fileList)

			if err != nil {
				return fileList, err
			}
		}
	}

	return fileList, nil
}

// MkdirAll creates every missing directory along path, walking the
// separators left to right. Already existing prefixes are not an error,
// so the call is idempotent. The first failing mkdir aborts the walk and
// its error is returned wrapped; directories created up to that point
// remain on the filesystem.
func MkdirAll(path string) error {
	for i := 1; i < len(path); i++ {
		if path[i] != os.PathSeparator {
			continue
		}

		if err := os.Mkdir(path[:i], 0755); err != nil && !os.IsExist(err) {
			return fmt.Errorf("create directory %s: %w", path[:i], err)
		}
	}

	if err := os.Mkdir(path, 0755); err != nil && !os.IsExist(err) {
		return fmt.Errorf("create directory %s: %w", path, err)
	}

	return nil
}
