/*
Package server implements msgpack IPC for dictionary application sessions.

The server reads msgpack maps from stdin and answers each with one msgpack
map on stdout. Requests are processed strictly in order: a session is
single-threaded, and the priority rules depend on the order passes are
applied in.

# IPC

Every request carries an ID and an action. On start the server sends:

	{"status": "ready"}

A session starts with open, naming the text (its .snt file) and optionally
an alphabet:

	{"id": "1", "action": "open", "text": "corpus/doc.snt", "alphabet": "Alphabet.txt"}

Dictionaries and match lists are then applied in any order. Priority
defaults to the one given by the file name:

	{"id": "2", "action": "apply", "dictionary": "dela-.bin"}
	{"id": "3", "action": "merge", "matches": "corpus/doc_snt/concord.ind", "priority": 3}

Passes answer with a report:

	{"id": "2", "status": "ok", "report": {"kind": "dictionary", "name": "dela-.bin", "priority": 1, "simple": 812, ...}, "t": 5120}

finish writes the end of session files and returns the statistics; stats
returns them without writing anything:

	{"id": "4", "action": "finish"}
	{"id": "4", "status": "ok", "stats": {"simple": 9120, "compound": 312, "unknown": 88}, "t": 920}

lookup matches one word against a dictionary, with no session needed:

	{"id": "5", "action": "lookup", "dictionary": "dela-.bin", "word": "Mains"}
	{"id": "5", "status": "ok", "lines": ["mains,main.N:fp"], "t": 40}

Errors keep the request ID:

	{"id": "6", "status": "error", "error": "no open session"}

Opened dictionaries are kept in an LRU cache so that repeated passes and
lookups do not map the same files again.
*/
package server

import "github.com/bastiangx/dicoserve/pkg/apply"

// Actions understood by the server.
const (
	ActionOpen   = "open"
	ActionApply  = "apply"
	ActionMerge  = "merge"
	ActionLookup = "lookup"
	ActionFinish = "finish"
	ActionStats  = "stats"
)

// Response statuses.
const (
	StatusReady = "ready"
	StatusOK    = "ok"
	StatusError = "error"
)

// Request is any client message. Fields depend on the action.
type Request struct {
	ID         string `msgpack:"id"`
	Action     string `msgpack:"action"`
	Text       string `msgpack:"text,omitempty"`
	Alphabet   string `msgpack:"alphabet,omitempty"`
	Encoding   string `msgpack:"encoding,omitempty"`
	Dictionary string `msgpack:"dictionary,omitempty"`
	Matches    string `msgpack:"matches,omitempty"`
	Priority   int    `msgpack:"priority,omitempty"`
	Word       string `msgpack:"word,omitempty"`
}

// PassReport is the wire form of apply.PassReport.
type PassReport struct {
	Kind        string `msgpack:"kind"`
	Name        string `msgpack:"name"`
	Priority    int    `msgpack:"priority"`
	Simple      int    `msgpack:"simple"`
	Compound    int    `msgpack:"compound"`
	Occurrences int    `msgpack:"occurrences"`
	Tags        int    `msgpack:"tags"`
	Refused     int    `msgpack:"refused"`
	Dropped     int    `msgpack:"dropped"`
	Malformed   int    `msgpack:"malformed"`
	Elapsed     int64  `msgpack:"elapsed_us"`
}

// Stats is the wire form of apply.Stats.
type Stats struct {
	Simple   int `msgpack:"simple"`
	Compound int `msgpack:"compound"`
	Unknown  int `msgpack:"unknown"`
}

// Response answers one request. TimeTaken is in microseconds.
type Response struct {
	ID        string      `msgpack:"id,omitempty"`
	Status    string      `msgpack:"status"`
	Error     string      `msgpack:"error,omitempty"`
	Report    *PassReport `msgpack:"report,omitempty"`
	Stats     *Stats      `msgpack:"stats,omitempty"`
	Lines     []string    `msgpack:"lines,omitempty"`
	TimeTaken int64       `msgpack:"t,omitempty"`
}

func toWireReport(r apply.PassReport) *PassReport {
	return &PassReport{
		Kind:        r.Kind,
		Name:        r.Name,
		Priority:    r.Priority,
		Simple:      r.SimpleLines,
		Compound:    r.CompoundLines,
		Occurrences: r.CompoundOccurrences,
		Tags:        r.TagSequences,
		Refused:     r.Refused,
		Dropped:     r.Dropped,
		Malformed:   r.Malformed,
		Elapsed:     r.Elapsed.Microseconds(),
	}
}

func toWireStats(s apply.Stats) *Stats {
	return &Stats{Simple: s.SimpleWords, Compound: s.CompoundWords, Unknown: s.UnknownWords}
}
