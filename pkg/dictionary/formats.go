package dictionary

import (
	"errors"
	"fmt"
	"os"

	"github.com/bastiangx/dicoserve/internal/utils"
	"github.com/charmbracelet/log"
)

var (
	// ErrInvalidBin covers bad headers, truncated files and out of range offsets.
	ErrInvalidBin = errors.New("invalid .bin dictionary")
	// ErrUnsupportedBin is returned for .bin type bytes or encodings this reader does not know.
	ErrUnsupportedBin = errors.New("unsupported .bin dictionary")
	// ErrInvalidInf covers unreadable count lines and missing code lines.
	ErrInvalidInf = errors.New("invalid .inf code table")
	// ErrMalformedLine is returned by ParseDELAF.
	ErrMalformedLine = errors.New("malformed DELAF line")
	// ErrDepthExceeded stops a walk that goes deeper than the configured bound.
	ErrDepthExceeded = errors.New("dictionary walk exceeds depth bound")
)

// FileFormat is the role of an input file in a session.
type FileFormat int

const (
	FormatUnknown   FileFormat = iota
	FormatBin                  // compressed trie
	FormatInf                  // code table paired with a .bin
	FormatMatchList            // concord.ind produced by a pattern matcher
	FormatGrammar              // .fst2 grammar, recognised but not applied here
)

// FormatInfo contains metadata about a dictionary file format
type FormatInfo struct {
	Format      FileFormat
	Description string
	Extension   string
	MinSize     int64
}

var supportedFormats = map[FileFormat]FormatInfo{
	FormatBin: {
		Format:      FormatBin,
		Description: "Compressed trie dictionary",
		Extension:   ".bin",
		MinSize:     headerSize + 2, // header plus an empty root state
	},
	FormatInf: {
		Format:      FormatInf,
		Description: "Compressed code table",
		Extension:   ".inf",
		MinSize:     1,
	},
	FormatMatchList: {
		Format:      FormatMatchList,
		Description: "Pattern matcher results",
		Extension:   ".ind",
		MinSize:     2, // "#M"
	},
	FormatGrammar: {
		Format:      FormatGrammar,
		Description: "Compiled grammar",
		Extension:   ".fst2",
		MinSize:     1,
	},
}

// DetectFileFormat classifies a path by its extension.
func DetectFileFormat(path string) FileFormat {
	ext := utils.Extension(path)
	for format, info := range supportedFormats {
		if info.Extension == ext {
			return format
		}
	}
	return FormatUnknown
}

// GetFormatInfo returns information about a specific format
func GetFormatInfo(format FileFormat) (FormatInfo, bool) {
	info, exists := supportedFormats[format]
	return info, exists
}

// ValidateFileFormat checks that path exists, carries the right extension and
// is large enough for the expected format.
func ValidateFileFormat(path string, expected FileFormat) error {
	info, ok := supportedFormats[expected]
	if !ok {
		return fmt.Errorf("unknown format: %v", expected)
	}
	stat, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if ext := utils.Extension(path); ext != info.Extension {
		return fmt.Errorf("file %s has extension %s, expected %s for %s", path, ext, info.Extension, info.Description)
	}
	if stat.Size() < info.MinSize {
		err := fmt.Errorf("file %s is too small (%d bytes) for %s (minimum: %d bytes)",
			path, stat.Size(), info.Description, info.MinSize)
		if expected == FormatBin {
			return fmt.Errorf("%w: %v", ErrInvalidBin, err)
		}
		return err
	}
	log.Debugf("%s %s validated (%d bytes)", info.Description, path, stat.Size())
	return nil
}

// BinEncoding is the width of a number stored in a .bin.
type BinEncoding uint8

const (
	Bin2Bytes BinEncoding = iota
	Bin3Bytes
	Bin4Bytes
	BinVariable
)

func (e BinEncoding) valid() bool {
	return e <= BinVariable
}

const headerSize = 4

// Header describes how numbers are laid out in a .bin.
type Header struct {
	Type         uint8
	InfEncoding  BinEncoding
	CharEncoding BinEncoding
	DestEncoding BinEncoding
}

// ClassicHeader is the layout of type 0 files: 3-byte INF index, 2-byte
// char, 3-byte destination.
var ClassicHeader = Header{Type: 0, InfEncoding: Bin3Bytes, CharEncoding: Bin2Bytes, DestEncoding: Bin3Bytes}

// ParseHeader decodes the first bytes of a .bin.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerSize+2 {
		return Header{}, fmt.Errorf("%w: %d bytes is below the minimum of %d", ErrInvalidBin, len(data), headerSize+2)
	}
	switch data[0] {
	case 0:
		return ClassicHeader, nil
	case 1:
		h := Header{
			Type:         1,
			InfEncoding:  BinEncoding(data[1]),
			CharEncoding: BinEncoding(data[2]),
			DestEncoding: BinEncoding(data[3]),
		}
		if !h.InfEncoding.valid() || !h.CharEncoding.valid() || !h.DestEncoding.valid() {
			return Header{}, fmt.Errorf("%w: encodings %d/%d/%d", ErrUnsupportedBin, data[1], data[2], data[3])
		}
		return h, nil
	}
	return Header{}, fmt.Errorf("%w: type byte %d", ErrUnsupportedBin, data[0])
}
