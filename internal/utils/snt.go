package utils

import (
	"path/filepath"
	"strings"
)

// NameWithoutExtension strips the last extension of a path, keeping its directory.
func NameWithoutExtension(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path))
}

// Extension returns the lowercased extension of path, dot included.
func Extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// SntDir returns the working directory of a text: foo/bar.snt gives foo/bar_snt.
func SntDir(textPath string) string {
	return NameWithoutExtension(textPath) + "_snt"
}

// SntFile returns the path of name inside the text's working directory.
func SntFile(textPath, name string) string {
	return filepath.Join(SntDir(textPath), name)
}

// CompanionPath swaps the extension of path, e.g. the .inf next to a .bin.
func CompanionPath(path, ext string) string {
	return NameWithoutExtension(path) + ext
}
