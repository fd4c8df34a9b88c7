// Copyright 2025 The DicoServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the dictionary application engine and its CLI [DBG]
lookup mode.

DicoServe applies compressed morphological dictionaries to a tokenized text.
Every simple word and every compound word of the text found in a dictionary
is written as a DELAF line; words no dictionary knows are listed apart. It can
operate as a batch tool, as a MessagePack IPC server for integration with
other tools, or as a CLI application for testing dictionaries.

# Usage

Apply dictionaries to a text that has already been tokenized:

	dicoserve -text corpus.snt -alphabet Alphabet.txt base-.bin names.bin fixes+.bin

The text's _snt directory must hold tokens.txt and text.cod. Dictionaries
are applied by priority: names ending in "-" first, names ending in "+"
last, others in between, in argument order within a priority. Pattern
matcher results (.ind files) given on the command line are merged as a
pass of their own. Other files are skipped.

Results are written next to the text:

	corpus_snt/dlf          simple words, one DELAF line each
	corpus_snt/dlc          compound words
	corpus_snt/err          unknown simple words
	corpus_snt/tags_err     unknown words not covered by a tag
	corpus_snt/tags.ind     tag sequences, as a match list
	corpus_snt/stat_dic.n   counts of simple, compound and unknown occurrences
	corpus_snt/morpho.dic   lines merged from match lists, with -m

Run in CLI mode to look words up in a single dictionary:

	dicoserve -c base-.bin

With -text, "pre*" looks up every token of the text starting with "pre".

# Configuration

Runtime configuration is managed through a TOML file:

	[session]
	encoding = "utf16le"
	export_morpho = false
	alphabet = "/path/to/Alphabet.txt"

	[limits]
	max_token_length = 1024
	max_compound_tokens = 256

	[output]
	dlf = "dlf"
	dlc = "dlc"

	[server]
	dictionary_cache = 8

	[metrics]
	textfile = "/var/lib/node_exporter/dicoserve.prom"

The config file is automatically created with defaults if it doesn't exist.

# IPC Protocol

With -s the engine reads MessagePack requests from stdin and writes
responses to stdout. A session is opened on a text, dictionaries and match
lists are applied to it one request at a time, and finish writes the
session files:

	{"id": "1", "action": "open", "text": "corpus.snt"}
	{"id": "2", "action": "apply", "dictionary": "base-.bin"}
	{"id": "3", "action": "finish"}

Opened dictionaries are kept in an LRU cache across sessions.

# Command Line Flags

	-text string
	    Tokenized text (.snt) to apply dictionaries to
	-alphabet string
	    Alphabet file (default from config)
	-encoding string
	    Encoding of text files: utf16le or utf8 (default from config)
	-config string
	    Path to a custom config file
	-m  Export lines merged from match lists to morpho.dic
	-d  Enable debug mode with detailed logging
	-c  Run CLI lookup mode instead of batch mode
	-s  Run the IPC server instead of batch mode
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/bastiangx/dicoserve/internal/cli"
	"github.com/bastiangx/dicoserve/internal/logger"
	"github.com/bastiangx/dicoserve/internal/utils"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/apply"
	"github.com/bastiangx/dicoserve/pkg/config"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/bastiangx/dicoserve/pkg/metrics"
	"github.com/bastiangx/dicoserve/pkg/server"
	"github.com/bastiangx/dicoserve/pkg/textio"
	"github.com/bastiangx/dicoserve/pkg/tokens"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.3.0-beta"
	AppName = "dicoserve"
	gh      = "https://github.com/bastiangx/dicoserve"
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow between the batch, server and CLI modes.
func main() {
	sigHandler()

	showVersion := flag.Bool("version", false, "Show current version")
	textPath := flag.String("text", "", "Tokenized text (.snt) to apply dictionaries to")
	alphabetPath := flag.String("alphabet", "", "Alphabet file (default from config)")
	encoding := flag.String("encoding", "", "Encoding of text files: utf16le or utf8 (default from config)")
	configPath := flag.String("config", "", "Path to a custom config file")
	exportMorpho := flag.Bool("m", false, "Export lines merged from match lists to morpho.dic")
	debugMode := flag.Bool("d", false, "Toggle debug mode")
	cliMode := flag.Bool("c", false, "Run CLI -- useful for testing dictionaries")
	serverMode := flag.Bool("s", false, "Run the MessagePack IPC server on stdin/stdout")

	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}
	mainLog := logger.NewWithConfig(AppName, log.GetLevel(), *debugMode, *debugMode, log.TextFormatter)

	cfg, activePath, err := config.LoadConfigWithPriority(*configPath)
	if err != nil {
		mainLog.Fatalf("Failed to load config: %v", err)
	}
	mainLog.Debugf("Using config file: (%s)", config.GetActiveConfigPath(activePath))
	if *encoding != "" {
		cfg.Session.Encoding = *encoding
	}
	if *exportMorpho {
		cfg.Session.ExportMorpho = true
	}

	switch {
	case *serverMode:
		runServer(cfg, mainLog)
	case *cliMode:
		runCLI(cfg, *textPath, *alphabetPath, flag.Args(), mainLog)
	default:
		runBatch(cfg, *textPath, *alphabetPath, flag.Args(), mainLog)
	}
}

func runServer(cfg *config.Config, l *log.Logger) {
	l.Debug("spawning IPC")
	srv, err := server.NewServer(cfg, metrics.New())
	if err != nil {
		l.Fatalf("Failed to create server: %v", err)
	}
	showStartupInfo()
	if err := srv.Start(); err != nil {
		l.Fatalf("Server error: %v", err)
	}
}

// runBatch applies every input to the text, then writes the session files.
func runBatch(cfg *config.Config, textPath, alphabetPath string, inputs []string, l *log.Logger) {
	if textPath == "" {
		l.Fatal("No text given, use -text")
	}
	steps, skipped := apply.Plan(inputs)
	for _, path := range skipped {
		if info, ok := dictionary.GetFormatInfo(dictionary.DetectFileFormat(path)); ok {
			l.Warnf("Skipping %s: %s is not applied to texts", path, info.Description)
		} else {
			l.Warnf("Skipping %s: unknown file type", path)
		}
	}
	if len(steps) == 0 {
		l.Warn("No dictionaries or match lists given, only unknown words will be listed")
	}

	opts, err := apply.OptionsFromConfig(cfg, alphabetPath)
	if err != nil {
		l.Fatalf("Invalid session options: %v", err)
	}
	if opts.Alphabet == nil {
		l.Warn("No alphabet given, using unicode letter tables")
	}
	m := metrics.New()
	opts.Observer = m
	opts.Logger = logger.New("apply")

	sess, err := apply.OpenSession(textPath, opts)
	if err != nil {
		l.Fatalf("Failed to open session: %v", err)
	}
	defer sess.Close()

	reports, err := sess.Run(steps)
	for _, r := range reports {
		l.Info("Pass done", "kind", r.Kind, "input", r.Name, "priority", r.Priority,
			"dlf", r.SimpleLines, "dlc", r.CompoundLines, "elapsed", r.Elapsed)
	}
	if err != nil {
		l.Fatalf("Applying %s: %v", textPath, err)
	}
	stats, err := sess.Finish()
	if err != nil {
		l.Fatalf("Writing results: %v", err)
	}
	l.Infof("%d simple, %d compound and %d unknown word occurrences in %s",
		stats.SimpleWords, stats.CompoundWords, stats.UnknownWords, sess.Dir())

	if err := m.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		l.Warnf("Writing metrics textfile: %v", err)
	}
}

// runCLI looks words up in the first dictionary given.
func runCLI(cfg *config.Config, textPath, alphabetPath string, inputs []string, l *log.Logger) {
	log.SetReportTimestamp(false)
	if len(inputs) == 0 {
		l.Fatal("CLI mode needs a dictionary (.bin)")
	}
	enc, err := textio.ParseEncoding(cfg.Session.Encoding)
	if err != nil {
		l.Fatalf("Invalid encoding: %v", err)
	}
	if err := dictionary.ValidateFileFormat(inputs[0], dictionary.FormatBin); err != nil {
		l.Fatalf("Invalid dictionary: %v", err)
	}
	dict, err := dictionary.Open(inputs[0], enc)
	if err != nil {
		l.Fatalf("Failed to open dictionary: %v", err)
	}
	defer dict.Close()

	if alphabetPath == "" {
		alphabetPath = cfg.Session.Alphabet
	}
	var alph *alphabet.Alphabet
	if alphabetPath != "" {
		if alph, err = alphabet.Load(alphabetPath, enc); err != nil {
			l.Fatalf("Failed to load alphabet: %v", err)
		}
	}

	var table *tokens.Table
	if textPath != "" {
		table, err = tokens.LoadTable(utils.SntFile(textPath, apply.TokensFile), enc)
		if err != nil {
			l.Fatalf("Failed to load tokens: %v", err)
		}
		l.Debugf("Loaded %d tokens of %s", table.Len(), textPath)
	}

	h := cli.NewInputHandler(dict, alph, table, cfg.CLI.MaxWordLength, cfg.Limits.MaxTokenLength)
	if err := h.Start(); err != nil {
		l.Fatalf("CLI error: %v", err)
	}
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[ DicoServe ] Applies compressed dictionaries to texts")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use -h or --help to see available options")
	logger.Print("Github Repo", "gh", gh)
}

// showStartupInfo displays some basic info about the server process.
func showStartupInfo() {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	fmt.Fprintln(os.Stderr, "===========")
	fmt.Fprintln(os.Stderr, " DicoServe ")
	fmt.Fprintln(os.Stderr, "===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("status: ready")
	fmt.Fprintln(os.Stderr, "Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}
