package elastix

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"
)

// ParameterMap is an ordered elastix parameter map: every key holds one or
// more values, kept as strings the way elastix reads them.
type ParameterMap struct {
	keys   []string
	values map[string][]string
}

func NewParameterMap() *ParameterMap {
	return &ParameterMap{values: make(map[string][]string)}
}

func (m *ParameterMap) Set(key string, values ...string) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = append([]string(nil), values...)
}

func (m *ParameterMap) Get(key string) ([]string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// First returns the first value of key, or "".
func (m *ParameterMap) First(key string) string {
	if v := m.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

func (m *ParameterMap) Delete(key string) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

func (m *ParameterMap) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m *ParameterMap) Len() int {
	return len(m.keys)
}

func (m *ParameterMap) Clone() *ParameterMap {
	c := NewParameterMap()
	for _, k := range m.keys {
		c.Set(k, m.values[k]...)
	}
	return c
}

// WriteTo encodes the map in the elastix text format, one "(Key v ...)" per line.
func (m *ParameterMap) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, k := range m.keys {
		buf.WriteByte('(')
		buf.WriteString(k)
		for _, v := range m.values[k] {
			buf.WriteByte(' ')
			buf.WriteString(formatValue(v))
		}
		buf.WriteString(")\n")
	}
	return buf.WriteTo(w)
}

func (m *ParameterMap) String() string {
	var sb strings.Builder
	m.WriteTo(&sb)
	return sb.String()
}

func (m *ParameterMap) WriteFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := m.WriteTo(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// numbers are written bare, everything else quoted
func formatValue(v string) string {
	if _, err := strconv.ParseFloat(v, 64); err == nil {
		return v
	}
	return `"` + v + `"`
}

func ReadParameterFile(path string) (*ParameterMap, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	m, err := ParseParameterMap(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseParameterMap reads the elastix text format. "//" starts a comment
// outside of quotes; a repeated key keeps its last values.
func ParseParameterMap(r io.Reader) (*ParameterMap, error) {
	m := NewParameterMap()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var (
		entry  []string
		inside bool
		lineNo int
	)
	for scanner.Scan() {
		lineNo++
		tokens, err := tokenizeLine(scanner.Text())
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		for _, tok := range tokens {
			switch tok {
			case openToken:
				if inside {
					return nil, fmt.Errorf("line %d: nested '('", lineNo)
				}
				inside = true
				entry = entry[:0]
			case closeToken:
				if !inside {
					return nil, fmt.Errorf("line %d: unexpected ')'", lineNo)
				}
				inside = false
				if len(entry) == 0 {
					return nil, fmt.Errorf("line %d: empty entry", lineNo)
				}
				m.Set(entry[0], entry[1:]...)
			default:
				if !inside {
					return nil, fmt.Errorf("line %d: value %q outside of an entry", lineNo, tok.text)
				}
				entry = append(entry, tok.text)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inside {
		return nil, fmt.Errorf("unterminated entry at end of file")
	}
	return m, nil
}

type token struct {
	text  string
	delim rune
}

var (
	openToken  = token{delim: '('}
	closeToken = token{delim: ')'}
)

func tokenizeLine(line string) ([]token, error) {
	var tokens []token
	runes := []rune(line)

	for i := 0; i < len(runes); {
		c := runes[i]
		switch {
		case unicode.IsSpace(c):
			i++
		case c == '/' && i+1 < len(runes) && runes[i+1] == '/':
			return tokens, nil
		case c == '(':
			tokens = append(tokens, openToken)
			i++
		case c == ')':
			tokens = append(tokens, closeToken)
			i++
		case c == '"':
			j := i + 1
			for j < len(runes) && runes[j] != '"' {
				j++
			}
			if j == len(runes) {
				return nil, fmt.Errorf("unterminated string")
			}
			tokens = append(tokens, token{text: string(runes[i+1 : j])})
			i = j + 1
		default:
			j := i
			for j < len(runes) && !unicode.IsSpace(runes[j]) && runes[j] != '(' && runes[j] != ')' && runes[j] != '"' {
				j++
			}
			tokens = append(tokens, token{text: string(runes[i:j])})
			i = j
		}
	}
	return tokens, nil
}
