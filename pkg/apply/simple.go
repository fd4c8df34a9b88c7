package apply

import (
	"unicode/utf16"

	"github.com/bastiangx/dicoserve/pkg/dictionary"
)

// simpleWords matches every distinct token against the dictionary. It must
// complete before compoundWords: the offsets it caches seed compounds.
func (p *pass) simpleWords() error {
	for id := 0; id < p.text.Tokens.Len(); id++ {
		if err := p.simpleWord(id); err != nil {
			return err
		}
	}
	return nil
}

func (p *pass) simpleWord(id int) error {
	chars := utf16.Encode([]rune(p.text.Tokens.Token(id)))
	if len(chars) > p.opts.MaxTokenLength {
		p.log.Debug("Skipping long token", "token", id, "length", len(chars))
		return nil
	}
	return p.dict.Walk(p.dict.Bin.Root(), chars, nil, p.opts.Alphabet, p.opts.MaxTokenLength,
		func(offset int, st dictionary.State, inflected string) error {
			p.cache.rootOrCreate(id).addOffset(offset, inflected)
			if !st.Final {
				return nil
			}
			if !p.tracker.ClaimSimple(id, p.priority) {
				p.report.Refused++
				return nil
			}
			lines, err := p.dict.Lines(inflected, st.Inf)
			if err != nil {
				return err
			}
			for _, line := range lines {
				if err := writeLine(p.out.DLF, line); err != nil {
					return err
				}
			}
			p.report.SimpleLines += len(lines)
			return nil
		})
}
