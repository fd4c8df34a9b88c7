// Package textio reads and writes the text artefacts of a session (token
// tables, code tables, alphabets, match lists, DELAF outputs) in the
// encodings they are produced in: UTF-16LE with a BOM, or UTF-8.
package textio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding of a text file.
type Encoding int

const (
	UTF16LE Encoding = iota
	UTF8
)

// maxLine bounds a single line; .inf lines of large dictionaries are long.
const maxLine = 16 << 20

// ParseEncoding maps a config value to an Encoding.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf16le", "utf-16le", "utf16", "":
		return UTF16LE, nil
	case "utf8", "utf-8":
		return UTF8, nil
	}
	return UTF16LE, fmt.Errorf("unknown encoding %q", name)
}

func (e Encoding) String() string {
	if e == UTF8 {
		return "utf8"
	}
	return "utf16le"
}

func (e Encoding) codec() encoding.Encoding {
	if e == UTF8 {
		return unicode.UTF8
	}
	return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
}

// NewReader decodes r. A BOM, when present, wins over the requested encoding,
// so UTF-8 files read fine under the UTF-16LE default and vice versa.
func NewReader(r io.Reader, enc Encoding) io.Reader {
	fallback := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	if enc == UTF8 {
		fallback = unicode.UTF8.NewDecoder()
	}
	return transform.NewReader(r, unicode.BOMOverride(fallback))
}

// ReadLines returns every line of a text file without line terminators.
func ReadLines(path string, enc Encoding) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ScanLines(NewReader(f, enc))
}

// ScanLines splits already decoded text into lines, dropping trailing \r.
func ScanLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, strings.TrimSuffix(scanner.Text(), "\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Writer is a buffered, encoding file writer. Close flushes everything.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	enc  io.WriteCloser
	out  io.Writer
}

// Create truncates path and returns a writer in the given encoding. UTF-16LE
// files start with a BOM.
func Create(path string, enc Encoding) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return newWriter(f, enc), nil
}

func newWriter(f *os.File, enc Encoding) *Writer {
	w := &Writer{file: f, buf: bufio.NewWriter(f)}
	if enc == UTF8 {
		w.out = w.buf
		return w
	}
	w.enc = transform.NewWriter(w.buf, enc.codec().NewEncoder())
	w.out = w.enc
	return w
}

func (w *Writer) Write(p []byte) (int, error) {
	return w.out.Write(p)
}

// WriteLine writes s followed by a newline.
func (w *Writer) WriteLine(s string) error {
	_, err := io.WriteString(w.out, s+"\n")
	return err
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	var first error
	if w.enc != nil {
		first = w.enc.Close()
	}
	if err := w.buf.Flush(); err != nil && first == nil {
		first = err
	}
	if err := w.file.Close(); err != nil && first == nil {
		first = err
	}
	return first
}

// WriteLines replaces path with the given lines.
func WriteLines(path string, enc Encoding, lines []string) error {
	w, err := Create(path, enc)
	if err != nil {
		return err
	}
	for _, line := range lines {
		if err := w.WriteLine(line); err != nil {
			w.Close()
			return err
		}
	}
	return w.Close()
}
