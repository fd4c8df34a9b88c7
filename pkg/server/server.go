package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/bastiangx/dicoserve/internal/logger"
	"github.com/bastiangx/dicoserve/pkg/alphabet"
	"github.com/bastiangx/dicoserve/pkg/apply"
	"github.com/bastiangx/dicoserve/pkg/config"
	"github.com/bastiangx/dicoserve/pkg/dictionary"
	"github.com/bastiangx/dicoserve/pkg/metrics"
	"github.com/bastiangx/dicoserve/pkg/textio"
	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vmihailenco/msgpack/v5"
)

var errNoSession = errors.New("no open session")

// dictKey identifies a cached dictionary. The same .inf read under two
// encodings decodes to different code tables.
type dictKey struct {
	path string
	enc  textio.Encoding
}

// Server handles the IPC of one client over a pair of streams.
type Server struct {
	cfg     *config.Config
	metrics *metrics.Metrics
	dicts   *lru.Cache[dictKey, *dictionary.Dictionary]
	session *apply.Session
	alph    *alphabet.Alphabet
	textEnc textio.Encoding
	enc     *msgpack.Encoder
	out     *bufio.Writer
	log     *log.Logger
}

// NewServer creates a server. m may be nil to disable metrics.
func NewServer(cfg *config.Config, m *metrics.Metrics) (*Server, error) {
	dicts, err := lru.NewWithEvict(cfg.Server.DictionaryCache, func(k dictKey, d *dictionary.Dictionary) {
		if err := d.Close(); err != nil {
			log.Warnf("Closing evicted dictionary %s: %v", k.path, err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("dictionary cache: %w", err)
	}
	return &Server{
		cfg:     cfg,
		metrics: m,
		dicts:   dicts,
		log:     logger.New("server"),
	}, nil
}

// Start serves stdin/stdout until stdin is closed.
func (s *Server) Start() error {
	return s.Serve(os.Stdin, os.Stdout)
}

// Serve processes requests from r until EOF, writing responses to w.
func (s *Server) Serve(r io.Reader, w io.Writer) error {
	s.log.Debug("Starting Server.")
	dec := msgpack.NewDecoder(bufio.NewReader(r))
	s.out = bufio.NewWriter(w)
	s.enc = msgpack.NewEncoder(s.out)
	defer s.Close()

	if err := s.sendResponse(Response{Status: StatusReady}); err != nil {
		return err
	}
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			s.log.Errorf("Decoding request: %v", err)
			s.sendError("", fmt.Errorf("invalid request: %w", err))
			return err
		}
		if err := s.handleRequest(req); err != nil {
			return err
		}
	}
}

// handleRequest dispatches one request. Only write failures are returned;
// request failures become error responses.
func (s *Server) handleRequest(req Request) error {
	start := time.Now()
	resp, err := s.dispatch(req)
	if err != nil {
		s.log.Warn("Request failed", "id", req.ID, "action", req.Action, "err", err)
		return s.sendError(req.ID, err)
	}
	resp.ID = req.ID
	resp.Status = StatusOK
	resp.TimeTaken = time.Since(start).Microseconds()
	return s.sendResponse(resp)
}

func (s *Server) dispatch(req Request) (Response, error) {
	switch req.Action {
	case ActionOpen:
		return Response{}, s.handleOpen(req)
	case ActionApply:
		return s.handleApply(req)
	case ActionMerge:
		return s.handleMerge(req)
	case ActionLookup:
		return s.handleLookup(req)
	case ActionFinish:
		return s.handleFinish()
	case ActionStats:
		if s.session == nil {
			return Response{}, errNoSession
		}
		return Response{Stats: toWireStats(s.session.Stats())}, nil
	}
	return Response{}, fmt.Errorf("unknown action %q", req.Action)
}

func (s *Server) handleOpen(req Request) error {
	if req.Text == "" {
		return errors.New("missing 'text' parameter")
	}
	cfg := *s.cfg
	if req.Encoding != "" {
		cfg.Session.Encoding = req.Encoding
	}
	opts, err := apply.OptionsFromConfig(&cfg, req.Alphabet)
	if err != nil {
		return err
	}
	opts.Logger = logger.New("apply")
	if s.metrics != nil {
		opts.Observer = s.metrics
	}
	if s.session != nil {
		s.log.Debug("Closing previous session", "dir", s.session.Dir())
		s.session.Close()
		s.session = nil
	}
	sess, err := apply.OpenSession(req.Text, opts)
	if err != nil {
		return err
	}
	s.session = sess
	s.alph = opts.Alphabet
	s.textEnc = opts.Encoding
	return nil
}

// dictionary returns an opened dictionary from the cache, opening it on a
// miss. The .inf is decoded with the open session's encoding, or the
// configured one when no session is open.
func (s *Server) dictionary(path string) (*dictionary.Dictionary, error) {
	enc, err := s.encoding()
	if err != nil {
		return nil, err
	}
	key := dictKey{path: path, enc: enc}
	if d, ok := s.dicts.Get(key); ok {
		return d, nil
	}
	d, err := dictionary.Open(path, enc)
	if err != nil {
		return nil, err
	}
	s.dicts.Add(key, d)
	return d, nil
}

func (s *Server) encoding() (textio.Encoding, error) {
	if s.session != nil {
		return s.textEnc, nil
	}
	return textio.ParseEncoding(s.cfg.Session.Encoding)
}

func priorityOf(req Request, path string) int {
	if req.Priority != 0 {
		return req.Priority
	}
	return dictionary.PriorityFromName(path)
}

func (s *Server) handleApply(req Request) (Response, error) {
	if s.session == nil {
		return Response{}, errNoSession
	}
	if req.Dictionary == "" {
		return Response{}, errors.New("missing 'dictionary' parameter")
	}
	d, err := s.dictionary(req.Dictionary)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %w", apply.ErrFileOpen, err)
	}
	r, err := s.session.ApplyLoaded(d, priorityOf(req, req.Dictionary))
	if err != nil {
		return Response{}, err
	}
	return Response{Report: toWireReport(r)}, nil
}

func (s *Server) handleMerge(req Request) (Response, error) {
	if s.session == nil {
		return Response{}, errNoSession
	}
	r, err := s.session.MergeLocate(req.Matches, priorityOf(req, req.Matches))
	if err != nil {
		return Response{}, err
	}
	return Response{Report: toWireReport(r)}, nil
}

func (s *Server) handleLookup(req Request) (Response, error) {
	if req.Dictionary == "" || req.Word == "" {
		return Response{}, errors.New("missing 'dictionary' or 'word' parameter")
	}
	if n := len([]rune(req.Word)); n > s.cfg.CLI.MaxWordLength {
		return Response{}, fmt.Errorf("word exceeds maximum length of %d characters", s.cfg.CLI.MaxWordLength)
	}
	d, err := s.dictionary(req.Dictionary)
	if err != nil {
		return Response{}, err
	}
	lines, err := d.Lookup(req.Word, s.alph, s.cfg.Limits.MaxTokenLength)
	if err != nil {
		return Response{}, err
	}
	return Response{Lines: lines}, nil
}

func (s *Server) handleFinish() (Response, error) {
	if s.session == nil {
		return Response{}, errNoSession
	}
	stats, err := s.session.Finish()
	s.session.Close()
	s.session = nil
	if err != nil {
		return Response{}, err
	}
	if s.metrics != nil {
		if err := s.metrics.WriteTextfile(s.cfg.Metrics.Textfile); err != nil {
			s.log.Warn("Writing metrics textfile", "path", s.cfg.Metrics.Textfile, "err", err)
		}
	}
	return Response{Stats: toWireStats(stats)}, nil
}

// sendResponse encodes one response and flushes it to the client.
func (s *Server) sendResponse(resp Response) error {
	if err := s.enc.Encode(resp); err != nil {
		s.log.Errorf("Encoding response: %v", err)
		return err
	}
	return s.out.Flush()
}

// sendError sends an error response
func (s *Server) sendError(id string, err error) error {
	return s.sendResponse(Response{ID: id, Status: StatusError, Error: err.Error()})
}

// Close ends the open session, if any, and closes cached dictionaries.
func (s *Server) Close() {
	if s.session != nil {
		s.session.Close()
		s.session = nil
	}
	s.dicts.Purge()
}
