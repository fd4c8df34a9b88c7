/*
Package apply applies compiled dictionaries and Locate match lists to a
tokenized text.

An Engine owns the session state of one text: the priority and dedup
tracker, the tag sequences collected so far and the output streams. Every
dictionary pass runs the simple word matcher over the distinct tokens, then
the compound word matcher over every text position, sharing a Word-Struct
cache that lives for that pass only. Claims made by one pass are never
overridden by a pass of another priority, whatever the call order.

Session wraps an Engine with the files of a text's _snt directory.
*/
package apply

import (
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/dicoserve/internal/logger"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/bastiangx/dicoserve/pkg/locate"
	"github.com/bastiangx/dicoserve/pkg/session"
	"github.com/bastiangx/dicoserve/pkg/tokens"
	"github.com/charmbracelet/log"
)

const (
	defaultMaxTokenLength    = 1024
	defaultMaxCompoundTokens = 256
)

// Kinds of passes.
const (
	KindDictionary = "dictionary"
	KindMerge      = "merge"
)

// Options tune an Engine. Zero values select the defaults.
type Options struct {
	Alphabet          *alphabet.Alphabet
	MaxTokenLength    int
	MaxCompoundTokens int
	Logger            *log.Logger
}

// Outputs are the streams the engine writes DELAF lines to. Morpho may be
// nil, in which case merged lines are not exported.
type Outputs struct {
	DLF    io.Writer
	DLC    io.Writer
	Morpho io.Writer
}

// Text is the tokenizer output an engine works on.
type Text struct {
	Tokens *tokens.Table
	Stream *tokens.Stream
}

// PassReport describes the outcome of one dictionary pass or merge.
type PassReport struct {
	Kind                string
	Name                string
	Priority            int
	SimpleLines         int
	CompoundLines       int
	CompoundOccurrences int
	TagSequences        int
	Refused             int
	Dropped             int
	Malformed           int
	CacheNodes          int
	Elapsed             time.Duration
}

// Engine applies dictionaries and match lists to one text.
type Engine struct {
	text        Text
	tracker     *session.Tracker
	out         Outputs
	opts        Options
	tags        []locate.Match
	occurrences []int
	log         *log.Logger
}

// NewEngine starts a session over text. The tracker is created here and
// shared by every later pass.
func NewEngine(text Text, out Outputs, opts Options) *Engine {
	if opts.Alphabet == nil {
		opts.Alphabet = alphabet.Unicode()
	}
	if opts.MaxTokenLength <= 0 {
		opts.MaxTokenLength = defaultMaxTokenLength
	}
	if opts.MaxCompoundTokens <= 0 {
		opts.MaxCompoundTokens = defaultMaxCompoundTokens
	}
	if opts.Logger == nil {
		opts.Logger = logger.New("apply")
	}
	if out.DLF == nil {
		out.DLF = io.Discard
	}
	if out.DLC == nil {
		out.DLC = io.Discard
	}
	return &Engine{
		text:    text,
		tracker: session.NewTracker(text.Tokens.Len()),
		out:     out,
		opts:    opts,
		log:     opts.Logger,
	}
}

// Tracker exposes the session state, read-only by convention.
func (e *Engine) Tracker() *session.Tracker { return e.tracker }

// Text returns the text the engine works on.
func (e *Engine) Text() Text { return e.text }

// Tags returns the tag sequences accepted so far, in arrival order.
func (e *Engine) Tags() []locate.Match { return e.tags }

// pass is the state of one dictionary pass.
type pass struct {
	*Engine
	dict     *dictionary.Dictionary
	priority int
	cache    *wordCache
	report   *PassReport
	log      *log.Logger
}

// Apply runs one dictionary at priority: simple words first, then compound
// words. An error means the dictionary is corrupt; lines already written
// stay written.
func (e *Engine) Apply(d *dictionary.Dictionary, priority int) (PassReport, error) {
	report := PassReport{Kind: KindDictionary, Name: d.Name, Priority: priority}
	if err := session.ValidPriority(priority); err != nil {
		return report, err
	}
	start := time.Now()
	p := &pass{
		Engine:   e,
		dict:     d,
		priority: priority,
		cache:    newWordCache(e.text.Tokens.Len()),
		report:   &report,
		log:      logger.ForPass(e.log, d.Name, priority),
	}

	p.log.Debug("Looking for simple words")
	if err := p.simpleWords(); err != nil {
		return report, fmt.Errorf("apply %s: %w", d.Name, err)
	}
	p.log.Debug("Looking for compound words")
	if err := p.compoundWords(); err != nil {
		return report, fmt.Errorf("apply %s: %w", d.Name, err)
	}

	report.CacheNodes = p.cache.size()
	report.Elapsed = time.Since(start)
	p.log.Info("Dictionary applied",
		"simple", report.SimpleLines,
		"compound", report.CompoundLines,
		"refused", report.Refused,
		"elapsed", report.Elapsed)
	return report, nil
}

func writeLine(w io.Writer, line string) error {
	_, err := io.WriteString(w, line+"\n")
	return err
}
