package linhash

import (
	"fmt"
	"strconv"
	"strings"

	"mahash/pkg/repl"
)

// Session tracks the relations a REPL currently has open, keyed by name —
// the generalization of the teacher's multi-table Database to this
// package's single relation type.
type Session struct {
	relations map[string]*Relation
}

// NewSession returns an empty session.
func NewSession() *Session {
	return &Session{relations: make(map[string]*Relation)}
}

// Close closes every relation still open in the session.
func (s *Session) Close() error {
	var err error
	for name, r := range s.relations {
		if closeErr := r.Close(); err == nil {
			err = closeErr
		}
		delete(s.relations, name)
	}
	return err
}

func (s *Session) get(name string) (*Relation, error) {
	r, ok := s.relations[name]
	if !ok {
		return nil, fmt.Errorf("relation %q is not open", name)
	}
	return r, nil
}

// Repl builds a repl.REPL wired to s's create/open/insert/query/stats/close
// commands, in the style of the teacher's DatabaseRepl.
func Repl(s *Session) *repl.REPL {
	r := repl.NewRepl()

	r.AddCommand("create", func(payload string, _ *repl.REPLConfig) (string, error) {
		return s.handleCreate(payload)
	}, "Create and open a relation. usage: create <relation> <nattrs> <npages> <depth> [chvec]")

	r.AddCommand("open", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", s.handleOpen(payload)
	}, "Open an existing relation. usage: open <relation>")

	r.AddCommand("insert", func(payload string, _ *repl.REPLConfig) (string, error) {
		return s.handleInsert(payload)
	}, "Insert a tuple. usage: insert <relation> <comma-separated tuple>")

	r.AddCommand("query", func(payload string, _ *repl.REPLConfig) (string, error) {
		return s.handleQuery(payload)
	}, "Partial-match query. usage: query <relation> <comma-separated fields, ? for wildcard>")

	r.AddCommand("stats", func(payload string, _ *repl.REPLConfig) (string, error) {
		return s.handleStats(payload)
	}, "Print relation statistics. usage: stats <relation>")

	r.AddCommand("close", func(payload string, _ *repl.REPLConfig) (string, error) {
		return "", s.handleClose(payload)
	}, "Close a relation. usage: close <relation>")

	return r
}

func (s *Session) handleCreate(payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) < 5 {
		return "", fmt.Errorf("usage: create <relation> <nattrs> <npages> <depth> [chvec]")
	}
	name := fields[1]
	nattrs, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", fmt.Errorf("create error: %v", err)
	}
	npages, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return "", fmt.Errorf("create error: %v", err)
	}
	depth, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return "", fmt.Errorf("create error: %v", err)
	}
	var cv string
	if len(fields) >= 6 {
		cv = fields[5]
	}
	if err := Create(name, nattrs, npages, depth, cv); err != nil {
		return "", fmt.Errorf("create error: %v", err)
	}
	rel, err := Open(name, true)
	if err != nil {
		return "", fmt.Errorf("create error: %v", err)
	}
	s.relations[name] = rel
	return fmt.Sprintf("relation %s created and opened.\n", name), nil
}

func (s *Session) handleOpen(payload string) error {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return fmt.Errorf("usage: open <relation>")
	}
	name := fields[1]
	if _, ok := s.relations[name]; ok {
		return fmt.Errorf("open error: relation %q already open", name)
	}
	rel, err := Open(name, true)
	if err != nil {
		return fmt.Errorf("open error: %v", err)
	}
	s.relations[name] = rel
	return nil
}

func (s *Session) handleInsert(payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		return "", fmt.Errorf("usage: insert <relation> <comma-separated tuple>")
	}
	rel, err := s.get(fields[1])
	if err != nil {
		return "", fmt.Errorf("insert error: %v", err)
	}
	p, err := rel.Insert(fields[2])
	if err != nil {
		return "", fmt.Errorf("insert error: %v", err)
	}
	return fmt.Sprintf("inserted into bucket %d\n", p), nil
}

func (s *Session) handleQuery(payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 3 {
		return "", fmt.Errorf("usage: query <relation> <comma-separated fields, ? for wildcard>")
	}
	rel, err := s.get(fields[1])
	if err != nil {
		return "", fmt.Errorf("query error: %v", err)
	}
	q, err := StartQuery(rel, fields[2])
	if err != nil {
		return "", fmt.Errorf("query error: %v", err)
	}
	defer q.Close()

	var sb strings.Builder
	for {
		t, ok, err := q.GetNextTuple()
		if err != nil {
			return "", fmt.Errorf("query error: %v", err)
		}
		if !ok {
			break
		}
		sb.WriteString(t)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

func (s *Session) handleStats(payload string) (string, error) {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return "", fmt.Errorf("usage: stats <relation>")
	}
	rel, err := s.get(fields[1])
	if err != nil {
		return "", fmt.Errorf("stats error: %v", err)
	}
	var sb strings.Builder
	if err := rel.Print(&sb); err != nil {
		return "", fmt.Errorf("stats error: %v", err)
	}
	return sb.String(), nil
}

func (s *Session) handleClose(payload string) error {
	fields := strings.Fields(payload)
	if len(fields) != 2 {
		return fmt.Errorf("usage: close <relation>")
	}
	name := fields[1]
	rel, err := s.get(name)
	if err != nil {
		return fmt.Errorf("close error: %v", err)
	}
	if err := rel.Close(); err != nil {
		return fmt.Errorf("close error: %v", err)
	}
	delete(s.relations, name)
	return nil
}
