// Package cli handles cmd line input for looking words up in a dictionary,
// for debugging dictionaries and alphabets in real time.
package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bastiangx/dicoserve/internal/logger"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/bastiangx/dicoserve/pkg/tokens"
	"github.com/charmbracelet/log"
)

// InputHandler reads words from stdin and prints the DELAF lines they
// match. When a token table is loaded, "pre*" looks up every token of the
// text starting with "pre".
type InputHandler struct {
	dict          *dictionary.Dictionary
	alph          *alphabet.Alphabet
	table         *tokens.Table
	maxWordLength int
	maxDepth      int
	requestCount  int
	log           *log.Logger
}

// NewInputHandler handles initialization of the InputHandler. table may be nil.
func NewInputHandler(dict *dictionary.Dictionary, alph *alphabet.Alphabet, table *tokens.Table, maxWordLength, maxDepth int) *InputHandler {
	return &InputHandler{
		dict:          dict,
		alph:          alph,
		table:         table,
		maxWordLength: maxWordLength,
		maxDepth:      maxDepth,
		log:           logger.New("cli"),
	}
}

// Start begins the interface loop on stdin.
func (h *InputHandler) Start() error {
	log.Print("dicoserve CLI")
	log.Printf("looking words up in %s, type a word and press Enter (Ctrl+C to exit):", h.dict.Name)
	return h.Run(os.Stdin, os.Stdout)
}

// Run reads one word per line from r until EOF, writing results to w.
func (h *InputHandler) Run(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.TrimSpace(scanner.Text())
		if word == "" {
			continue
		}
		h.handleInput(word, w)
	}
	return scanner.Err()
}

func (h *InputHandler) handleInput(word string, w io.Writer) {
	h.requestCount++
	if n := len([]rune(word)); n > h.maxWordLength {
		h.log.Errorf("Word too long: %d characters, max is %d", n, h.maxWordLength)
		return
	}
	if prefix, ok := strings.CutSuffix(word, "*"); ok {
		h.expand(prefix, w)
		return
	}

	start := time.Now()
	lines, err := h.dict.Lookup(word, h.alph, h.maxDepth)
	if err != nil {
		h.log.Errorf("Lookup failed for '%s': %v", word, err)
		return
	}
	h.log.Debugf("Took [ %v ] for '%s'", time.Since(start), word)
	if len(lines) == 0 {
		h.log.Warnf("No entries found for '%s'", word)
		return
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// expand looks up every token of the text that starts with prefix.
func (h *InputHandler) expand(prefix string, w io.Writer) {
	if h.table == nil {
		h.log.Error("Prefix lookups need a text, start with -text")
		return
	}
	found := 0
	err := h.table.VisitPrefix(prefix, func(token string, _ int) error {
		lines, err := h.dict.Lookup(token, h.alph, h.maxDepth)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			fmt.Fprintf(w, "%s: unknown\n", token)
			return nil
		}
		found++
		for _, line := range lines {
			fmt.Fprintln(w, line)
		}
		return nil
	})
	if err != nil {
		h.log.Errorf("Prefix lookup failed for '%s': %v", prefix, err)
		return
	}
	h.log.Debugf("%d tokens starting with '%s' found in %s", found, prefix, h.dict.Name)
}
