package apply

import (
	"fmt"
	"io"
	"time"

	"github.com/bastiangx/dicoserve/internal/logger"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/bastiangx/dicoserve/pkg/locate"
	"github.com/bastiangx/dicoserve/pkg/session"
	"github.com/charmbracelet/log"
)

// Merge feeds a Locate match list into the session at priority. Tag
// sequences are collected for the tag index; other outputs are DELAF lines
// claimed like dictionary matches. Records that do not parse are skipped,
// records naming forms absent from the text are dropped.
func (e *Engine) Merge(l *locate.List, name string, priority int) (PassReport, error) {
	report := PassReport{Kind: KindMerge, Name: name, Priority: priority}
	if err := session.ValidPriority(priority); err != nil {
		return report, err
	}
	start := time.Now()
	lg := logger.ForPass(e.log, name, priority)
	for _, err := range l.Skipped {
		lg.Warn("Skipping malformed match", "err", err)
	}
	report.Malformed = len(l.Skipped)

	for _, m := range l.Matches {
		if !m.HasOutput() {
			continue
		}
		var err error
		if m.IsTag() {
			err = e.mergeTag(m, priority, &report)
		} else {
			err = e.mergeEntry(m, priority, &report, lg)
		}
		if err != nil {
			return report, fmt.Errorf("merge %s: %w", name, err)
		}
	}

	report.Elapsed = time.Since(start)
	lg.Info("Match list merged",
		"simple", report.SimpleLines,
		"compound", report.CompoundLines,
		"tags", report.TagSequences,
		"dropped", report.Dropped,
		"malformed", report.Malformed)
	return report, nil
}

func (e *Engine) mergeTag(m locate.Match, priority int, report *PassReport) error {
	if _, err := m.Tag(); err != nil {
		e.log.Warn("Skipping tag sequence", "line", m.Line, "err", err)
		report.Malformed++
		return nil
	}
	if m.End.Token >= e.text.Stream.Len() {
		e.log.Warn("Skipping tag sequence past the end of the text", "line", m.Line, "end", m.End.Token)
		report.Malformed++
		return nil
	}
	if !e.tracker.ClaimTagSpan(session.Span{Start: m.Start.Token, End: m.End.Token}, priority) {
		report.Refused++
		return nil
	}
	e.tags = append(e.tags, m)
	for pos := m.Start.Token; pos <= m.End.Token; pos++ {
		e.tracker.MarkTagged(e.text.Stream.At(pos))
	}
	report.TagSequences++
	return nil
}

func (e *Engine) mergeEntry(m locate.Match, priority int, report *PassReport, lg *log.Logger) error {
	entry, err := dictionary.ParseDELAF(m.Output)
	if err != nil {
		lg.Warn("Skipping malformed match", "line", m.Line, "err", err)
		report.Malformed++
		return nil
	}

	if e.opts.Alphabet.IsSequenceOfLetters(entry.Inflected) {
		id, ok := e.text.Tokens.ID(entry.Inflected)
		if !ok {
			lg.Debug("Dropping match absent from the text", "line", m.Line, "form", entry.Inflected)
			report.Dropped++
			return nil
		}
		if !e.tracker.ClaimSimple(id, priority) {
			report.Refused++
			return nil
		}
		report.SimpleLines++
		return e.writeMerged(e.out.DLF, m.Output)
	}

	seq, ok := e.text.Tokens.Sequence(entry.Inflected, e.opts.Alphabet)
	if !ok {
		lg.Debug("Dropping compound absent from the text", "line", m.Line, "form", entry.Inflected)
		report.Dropped++
		return nil
	}
	if !e.tracker.ClaimSequence(seq, priority) {
		report.Refused++
		return nil
	}
	e.tracker.MarkPartOfWord(seq...)
	e.tracker.AddCompounds(1)
	report.CompoundLines++
	report.CompoundOccurrences++
	return e.writeMerged(e.out.DLC, m.Output)
}

// writeMerged writes an accepted line, duplicating it to the morphological
// export when one is configured.
func (e *Engine) writeMerged(w io.Writer, line string) error {
	if err := writeLine(w, line); err != nil {
		return err
	}
	if e.out.Morpho != nil {
		return writeLine(e.out.Morpho, line)
	}
	return nil
}
