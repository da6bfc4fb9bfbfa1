package io

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	kanzi "github.com/backwardn/kanzi-go"
)

// buildTree creates the directory layout used by the enumeration tests:
//
//	src/a.txt
//	src/b.txt
//	src/.hidden.txt
//	src/.git/ignored.txt
//	src/sub/c.txt
func buildTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "src")

	for _, dir := range []string{src, filepath.Join(src, "sub"), filepath.Join(src, ".git")} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatalf("Failed to create %s: %v", dir, err)
		}
	}

	files := []string{
		filepath.Join(src, "a.txt"),
		filepath.Join(src, "b.txt"),
		filepath.Join(src, ".hidden.txt"),
		filepath.Join(src, ".git", "ignored.txt"),
		filepath.Join(src, "sub", "c.txt"),
	}

	for _, f := range files {
		if err := os.WriteFile(f, []byte("x"), 0644); err != nil {
			t.Fatalf("Failed to write %s: %v", f, err)
		}
	}

	return src
}

func assertFileList(t *testing.T, got []string, want []string) {
	t.Helper()

	if len(got) != len(want) {
		t.Fatalf("File list = %v, want %v", got, want)
	}

	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("File list = %v, want %v", got, want)
		}
	}
}

func TestCreateFileListRegularFile(t *testing.T) {
	src := buildTree(t)
	target := filepath.Join(src, "a.txt")

	files, err := CreateFileList(target, nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	assertFileList(t, files, []string{target})
}

func TestCreateFileListHiddenTarget(t *testing.T) {
	src := buildTree(t)

	files, err := CreateFileList(filepath.Join(src, ".hidden.txt"), nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	if len(files) != 0 {
		t.Fatalf("Hidden target must be suppressed, got %v", files)
	}
}

func TestCreateFileListRecursive(t *testing.T) {
	src := buildTree(t)

	files, err := CreateFileList(src, nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	sep := string(os.PathSeparator)
	assertFileList(t, files, []string{
		src + sep + "a.txt",
		src + sep + "b.txt",
		src + sep + "sub" + sep + "c.txt",
	})
}

func TestCreateFileListNonRecursive(t *testing.T) {
	src := buildTree(t)
	sep := string(os.PathSeparator)

	files, err := CreateFileList(src+sep+".", nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	assertFileList(t, files, []string{
		src + sep + "a.txt",
		src + sep + "b.txt",
	})
}

func TestCreateFileListTrailingSeparator(t *testing.T) {
	src := buildTree(t)
	sep := string(os.PathSeparator)

	files, err := CreateFileList(src+sep, nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("Trailing separator target yielded %v", files)
	}
}

func TestCreateFileListDotTarget(t *testing.T) {
	src := buildTree(t)

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}

	if err := os.Chdir(src); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	defer os.Chdir(wd)

	// A bare "." is recursive, only the <separator>'.' form is not
	files, err := CreateFileList(".", nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	if len(files) != 3 {
		t.Fatalf("Target '.' must enumerate recursively, got %v", files)
	}
}

func TestCreateFileListIdempotent(t *testing.T) {
	src := buildTree(t)

	first, err := CreateFileList(src, nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	second, err := CreateFileList(src, nil)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	assertFileList(t, second, first)
}

func TestCreateFileListAppends(t *testing.T) {
	src := buildTree(t)
	seed := []string{"already-there"}

	files, err := CreateFileList(filepath.Join(src, "a.txt"), seed)
	if err != nil {
		t.Fatalf("CreateFileList failed: %v", err)
	}

	if len(files) != 2 || files[0] != "already-there" {
		t.Fatalf("Accumulator was not preserved: %v", files)
	}
}

func TestCreateFileListMissingTarget(t *testing.T) {
	_, err := CreateFileList(filepath.Join(t.TempDir(), "nope"), nil)
	if err == nil {
		t.Fatalf("CreateFileList on a missing target must fail")
	}

	var ioErr *IOError

	if !errors.As(err, &ioErr) {
		t.Fatalf("Expected *IOError, got %T", err)
	}

	if ioErr.ErrorCode() != kanzi.ERR_OPEN_FILE {
		t.Fatalf("Error code = %d, want %d", ioErr.ErrorCode(), kanzi.ERR_OPEN_FILE)
	}
}

func TestMkdirAll(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "a", "b", "c")

	if err := MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}

	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		t.Fatalf("MkdirAll did not create %s: %v", path, err)
	}

	// Second call is a no-op
	if err := MkdirAll(path); err != nil {
		t.Fatalf("MkdirAll on an existing path failed: %v", err)
	}
}

func TestMkdirAllFileCollision(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file")

	if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", file, err)
	}

	if err := MkdirAll(filepath.Join(file, "sub")); err == nil {
		t.Fatalf("MkdirAll through a regular file must fail")
	}
}
