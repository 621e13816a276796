package microcode

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Cache is the on-disk, content-addressed clause-template store of
// spec.md §4.6/§6: one file per (op, width, signed) signature, loaded
// lazily and memoised in memory for the process lifetime. A
// per-signature mutex guards the first load of each signature; the
// template itself is immutable afterward.
//
// No microcode-generator binary ships with this repository (none of
// the example repos this module is grounded on emit SAT clause
// templates either), so when a signature's file is absent from Dir,
// Load synthesizes it in memory using the builders in templates.go
// and persists nothing — the in-memory memo table is this process's
// only cache, matching the "load-on-first-use, memoise" contract
// without requiring a pre-populated directory to exist.
type Cache struct {
	Dir string

	mu      sync.Mutex
	locks   map[Signature]*sync.Mutex
	loaded  map[Signature]*Template
}

func NewCache(dir string) *Cache {
	return &Cache{
		Dir:    dir,
		locks:  make(map[Signature]*sync.Mutex),
		loaded: make(map[Signature]*Template),
	}
}

func (c *Cache) lockFor(sig Signature) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	l, ok := c.locks[sig]
	if !ok {
		l = &sync.Mutex{}
		c.locks[sig] = l
	}
	return l
}

// Load returns the template for sig, reading c.Dir/sig.clauses if
// present, else synthesizing and memoizing it.
func (c *Cache) Load(sig Signature) (*Template, error) {
	lock := c.lockFor(sig)
	lock.Lock()
	defer lock.Unlock()

	c.mu.Lock()
	if t, ok := c.loaded[sig]; ok {
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	t, err := c.loadFromDisk(sig)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = c.synthesize(sig)
	}

	c.mu.Lock()
	c.loaded[sig] = t
	c.mu.Unlock()
	return t, nil
}

func (c *Cache) path(sig Signature) string {
	return filepath.Join(c.Dir, sig.String()+".clauses")
}

// loadFromDisk parses spec.md §6's file format: newline-separated
// clauses, each a space-separated list of signed bit indices
// terminated by a literal 0. Returns (nil, nil) if the file does not
// exist.
func (c *Cache) loadFromDisk(sig Signature) (*Template, error) {
	if c.Dir == "" {
		return nil, nil
	}
	f, err := os.Open(c.path(sig))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var clauses [][]int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		var clause []int
		for _, tok := range fields {
			v, err := strconv.Atoi(tok)
			if err != nil {
				return nil, fmt.Errorf("microcode: malformed clause token %q in %s", tok, c.path(sig))
			}
			if v == 0 {
				break
			}
			clause = append(clause, v)
		}
		clauses = append(clauses, clause)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return &Template{Sig: sig, AWidth: sig.Width, BWidth: sig.Width, RWidth: sig.Width, Clauses: clauses}, nil
}

func (c *Cache) synthesize(sig Signature) *Template {
	switch sig.Op {
	case "mul":
		return BuildMul(sig.Width, sig.Signed)
	case "div":
		return BuildDivMod(sig.Width, false)
	case "mod":
		return BuildDivMod(sig.Width, true)
	case "bwand":
		return BuildBitwise("and", sig.Width)
	case "bwor":
		return BuildBitwise("or", sig.Width)
	case "bwxor":
		return BuildBitwise("xor", sig.Width)
	case "bwxnor":
		return BuildBitwise("xnor", sig.Width)
	case "lshift":
		return BuildShift("l", sig.Width, sig.Signed)
	case "rshift":
		return BuildShift("r", sig.Width, sig.Signed)
	default:
		panic("microcode: no synthesizer registered for op " + sig.Op)
	}
}
