package apply

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/bastiangx/dicoserve/internal/logger"
	"github.com/bastiangx/dicoserve/internal/utils"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/config"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/bastiangx/dicoserve/pkg/locate"
	"github.com/bastiangx/dicoserve/pkg/textio"
	"github.com/bastiangx/dicoserve/pkg/tokens"
	"github.com/charmbracelet/log"
)

// ErrFileOpen marks inputs that could not be opened. The pass is skipped and
// the session stays usable.
var ErrFileOpen = errors.New("cannot open input")

// Default names of the tokenizer files in a _snt directory.
const (
	TokensFile  = "tokens.txt"
	StreamFile  = "text.cod"
	ConcordFile = "concord.ind"
)

// Observer receives pass outcomes, typically for metrics.
type Observer interface {
	ObservePass(r PassReport, err error)
	ObserveStats(s Stats)
}

// SessionOptions configure a file backed session.
type SessionOptions struct {
	Encoding     textio.Encoding
	Alphabet     *alphabet.Alphabet
	ExportMorpho bool
	Limits       config.LimitsConfig
	Output       config.OutputConfig
	Logger       *log.Logger
	Observer     Observer
}

// OptionsFromConfig builds session options from the loaded configuration.
// The alphabet named by the config is loaded when alphabetPath is empty.
func OptionsFromConfig(cfg *config.Config, alphabetPath string) (SessionOptions, error) {
	enc, err := textio.ParseEncoding(cfg.Session.Encoding)
	if err != nil {
		return SessionOptions{}, err
	}
	opts := SessionOptions{
		Encoding:     enc,
		ExportMorpho: cfg.Session.ExportMorpho,
		Limits:       cfg.Limits,
		Output:       cfg.Output,
	}
	if alphabetPath == "" {
		alphabetPath = cfg.Session.Alphabet
	}
	if alphabetPath != "" {
		opts.Alphabet, err = alphabet.Load(alphabetPath, enc)
		if err != nil {
			return SessionOptions{}, fmt.Errorf("load alphabet: %w", err)
		}
	}
	return opts, nil
}

// Session is an Engine bound to the _snt directory of a text.
type Session struct {
	*Engine
	dir      string
	enc      textio.Encoding
	names    config.OutputConfig
	stream   *tokens.Stream
	dlf      *textio.Writer
	dlc      *textio.Writer
	morpho   *textio.Writer
	observer Observer
	log      *log.Logger
	closed   bool
}

// OpenSession loads the tokenizer output of textPath and truncates the
// DELAF outputs. A token table or stream that does not load is fatal.
func OpenSession(textPath string, opts SessionOptions) (*Session, error) {
	dir := utils.SntDir(textPath)
	if !utils.FileExists(dir) {
		return nil, fmt.Errorf("%w: %s has no %s directory", ErrFileOpen, textPath, filepath.Base(dir))
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("apply")
	}
	names := withDefaultNames(opts.Output)

	table, err := tokens.LoadTable(filepath.Join(dir, TokensFile), opts.Encoding)
	if err != nil {
		return nil, err
	}
	stream, err := tokens.OpenStream(filepath.Join(dir, StreamFile), table.Len())
	if err != nil {
		return nil, err
	}

	s := &Session{
		dir:      dir,
		enc:      opts.Encoding,
		names:    names,
		stream:   stream,
		observer: opts.Observer,
		log:      opts.Logger,
	}
	if s.dlf, err = textio.Create(s.path(names.DLF), s.enc); err != nil {
		s.Close()
		return nil, err
	}
	if s.dlc, err = textio.Create(s.path(names.DLC), s.enc); err != nil {
		s.Close()
		return nil, err
	}
	out := Outputs{DLF: s.dlf, DLC: s.dlc}
	if opts.ExportMorpho {
		if s.morpho, err = textio.Create(s.path(names.Morpho), s.enc); err != nil {
			s.Close()
			return nil, err
		}
		out.Morpho = s.morpho
	}

	s.Engine = NewEngine(Text{Tokens: table, Stream: stream}, out, Options{
		Alphabet:          opts.Alphabet,
		MaxTokenLength:    opts.Limits.MaxTokenLength,
		MaxCompoundTokens: opts.Limits.MaxCompoundTokens,
		Logger:            opts.Logger,
	})
	s.log.Debug("Session opened", "dir", dir, "tokens", table.Len(), "occurrences", stream.Len())
	return s, nil
}

func withDefaultNames(o config.OutputConfig) config.OutputConfig {
	def := config.DefaultConfig().Output
	for _, f := range []struct{ got, def *string }{
		{&o.DLF, &def.DLF}, {&o.DLC, &def.DLC}, {&o.Err, &def.Err}, {&o.TagsErr, &def.TagsErr},
		{&o.Morpho, &def.Morpho}, {&o.TagsInd, &def.TagsInd}, {&o.Stats, &def.Stats},
	} {
		if *f.got == "" {
			*f.got = *f.def
		}
	}
	return o
}

// Dir returns the _snt directory of the session.
func (s *Session) Dir() string { return s.dir }

func (s *Session) path(name string) string { return filepath.Join(s.dir, name) }

func (s *Session) observe(r PassReport, err error) {
	if s.observer != nil {
		s.observer.ObservePass(r, err)
	}
}

// ApplyDictionary opens the dictionary at path and applies it at priority.
// An open failure wraps ErrFileOpen.
func (s *Session) ApplyDictionary(path string, priority int) (PassReport, error) {
	d, err := dictionary.Open(path, s.enc)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFileOpen, err)
		s.observe(PassReport{Kind: KindDictionary, Name: filepath.Base(path), Priority: priority}, err)
		return PassReport{}, err
	}
	defer d.Close()
	return s.ApplyLoaded(d, priority)
}

// ApplyLoaded applies an already opened dictionary, then rewrites the
// unknown words file.
func (s *Session) ApplyLoaded(d *dictionary.Dictionary, priority int) (PassReport, error) {
	r, err := s.Apply(d, priority)
	s.observe(r, err)
	if err != nil {
		return r, err
	}
	return r, s.writeUnknown()
}

// MergeLocate merges a match list at priority. An empty path merges the
// session's concord.ind. A list that cannot be read or has a bad header
// wraps ErrFileOpen so a batch run skips it.
func (s *Session) MergeLocate(path string, priority int) (PassReport, error) {
	if path == "" {
		path = s.path(ConcordFile)
	}
	l, err := locate.Load(path, s.enc)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrFileOpen, err)
		s.observe(PassReport{Kind: KindMerge, Name: filepath.Base(path), Priority: priority}, err)
		return PassReport{}, err
	}
	r, err := s.Merge(l, filepath.Base(path), priority)
	s.observe(r, err)
	if err != nil {
		return r, err
	}
	return r, s.writeUnknown()
}

func (s *Session) writeUnknown() error {
	_, unknown := s.Classify()
	return textio.WriteLines(s.path(s.names.Err), s.enc, unknown.Words)
}

// Finish writes the end of session files (err, tags_err, tags.ind and
// stat_dic.n) and closes the session.
func (s *Session) Finish() (Stats, error) {
	stats, unknown := s.Classify()
	if err := textio.WriteLines(s.path(s.names.Err), s.enc, unknown.Words); err != nil {
		return stats, err
	}
	if err := textio.WriteLines(s.path(s.names.TagsErr), s.enc, unknown.Untagged); err != nil {
		return stats, err
	}
	if err := s.writeFile(s.names.TagsInd, func(w io.Writer) error {
		return locate.WriteTagIndex(w, slices.Clone(s.Tags()))
	}); err != nil {
		return stats, err
	}
	if err := s.writeFile(s.names.Stats, func(w io.Writer) error {
		return WriteStats(w, stats)
	}); err != nil {
		return stats, err
	}
	if s.observer != nil {
		s.observer.ObserveStats(stats)
	}
	s.log.Info("Session finished",
		"simple", stats.SimpleWords,
		"compound", stats.CompoundWords,
		"unknown", stats.UnknownWords)
	return stats, s.Close()
}

func (s *Session) writeFile(name string, fill func(io.Writer) error) error {
	w, err := textio.Create(s.path(name), s.enc)
	if err != nil {
		return err
	}
	if err := fill(w); err != nil {
		w.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	return w.Close()
}

// Close flushes the DELAF outputs and releases the token stream. It is safe
// to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	var errs []error
	for _, w := range []*textio.Writer{s.dlf, s.dlc, s.morpho} {
		if w != nil {
			errs = append(errs, w.Close())
		}
	}
	if s.stream != nil {
		errs = append(errs, s.stream.Close())
	}
	return errors.Join(errs...)
}
