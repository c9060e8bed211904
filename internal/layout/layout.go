package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DefaultFileSuffix is assumed for tables that do not name one.
const DefaultFileSuffix = ".parquet"

// Kind identifies the value domain of a partition key.
type Kind int

const (
	// KindString treats directory values as opaque strings.
	KindString Kind = iota
	// KindInt treats directory values as decimal integers.
	KindInt
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind converts a configuration string into a Kind. An empty string
// means KindString.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "", "string":
		return KindString, nil
	case "int":
		return KindInt, nil
	}
	return 0, fmt.Errorf("layout: unknown partition key type %q", s)
}

// Key is one partition key of a table layout.
type Key struct {
	Name string
	Kind Kind
}

// Table describes one physical table layout on disk. Partition directories
// nest under Root in Keys order using hive-style "name=value" segments, e.g.
// root/o_orderdate_year=1993/o_orderdate_month=10/part-0.parquet.
// A table with no keys is unpartitioned: its data files sit directly under
// Root and no pruning is possible.
type Table struct {
	Name       string
	Root       string
	Keys       []Key
	FileSuffix string
}

// Validate checks the layout definition for structural problems.
func (t Table) Validate() error {
	if t.Root == "" {
		return fmt.Errorf("layout: table %q has no root directory", t.Name)
	}
	if !strings.HasPrefix(t.Suffix(), ".") {
		return fmt.Errorf("layout: table %q file suffix %q must start with a dot", t.Name, t.FileSuffix)
	}
	seen := make(map[string]bool, len(t.Keys))
	for _, k := range t.Keys {
		if k.Name == "" {
			return fmt.Errorf("layout: table %q has a partition key with an empty name", t.Name)
		}
		if seen[k.Name] {
			return fmt.Errorf("layout: table %q declares partition key %q twice", t.Name, k.Name)
		}
		seen[k.Name] = true
	}
	return nil
}

// Suffix returns the effective data file suffix.
func (t Table) Suffix() string {
	if t.FileSuffix == "" {
		return DefaultFileSuffix
	}
	return t.FileSuffix
}

// KeyIndex returns the position of the named partition key, or -1 when the
// table has no such key.
func (t Table) KeyIndex(name string) int {
	for i, k := range t.Keys {
		if k.Name == name {
			return i
		}
	}
	return -1
}

// CanonicalValue normalizes a raw value for the given key so it compares
// exactly against directory names. Int-kind values are parsed and
// re-formatted, which rejects non-numeric input and strips leading zeros.
func CanonicalValue(k Key, raw string) (string, error) {
	if k.Kind != KindInt {
		return raw, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("layout: partition key %q expects an integer value, got %q", k.Name, raw)
	}
	return strconv.Itoa(n), nil
}

// TotalFileCount counts every data file under Root, recursively, regardless
// of partition value. A missing root is an error; an empty tree counts zero.
func (t Table) TotalFileCount() (int, error) {
	if _, err := os.Stat(t.Root); err != nil {
		return 0, fmt.Errorf("layout: table %q: %w", t.Name, err)
	}
	return countFilesUnder(t.Root, t.Suffix())
}

// FileCountFor counts data files under the single partition directory
// addressed by one concrete value per key, in key order. A partition that
// does not exist on disk counts zero: absence of a partition is sparse
// data, not a fault.
func (t Table) FileCountFor(values []string) (int, error) {
	if len(values) != len(t.Keys) {
		return 0, fmt.Errorf("layout: table %q has %d partition keys, got %d values", t.Name, len(t.Keys), len(values))
	}
	dir := t.PartitionDir(values)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}
	return countFilesUnder(dir, t.Suffix())
}

// PartitionDir returns the directory path addressed by the given values,
// which may be a prefix of the full key list.
func (t Table) PartitionDir(values []string) string {
	parts := make([]string, 0, len(values)+1)
	parts = append(parts, t.Root)
	for i, v := range values {
		parts = append(parts, t.Keys[i].Name+"="+v)
	}
	return filepath.Join(parts...)
}

// PartitionValues lists the observed values of the partition key at depth
// len(prefix), beneath the branch addressed by prefix. Only directories
// named "<key>=<value>" for the expected key count; anything else at that
// level is ignored. A missing branch yields an empty list, and values are
// returned in lexicographic order as spelled on disk.
func (t Table) PartitionValues(prefix []string) ([]string, error) {
	depth := len(prefix)
	if depth >= len(t.Keys) {
		return nil, fmt.Errorf("layout: table %q has no partition key at depth %d", t.Name, depth)
	}

	dir := t.PartitionDir(prefix)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("layout: failed to read partition directory %s: %w", dir, err)
	}

	key := t.Keys[depth]
	var values []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name, value, ok := strings.Cut(entry.Name(), "=")
		if !ok || name != key.Name {
			continue
		}
		values = append(values, value)
	}
	sort.Strings(values)
	return values, nil
}

// countFilesUnder recursively counts files whose name ends in suffix.
// Symbolic links are skipped entirely so a link into a sibling table cannot
// inflate the count or loop the walk.
func countFilesUnder(dir, suffix string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("layout: failed to read directory %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if entry.IsDir() {
			sub, err := countFilesUnder(filepath.Join(dir, entry.Name()), suffix)
			if err != nil {
				return 0, err
			}
			count += sub
			continue
		}
		if strings.HasSuffix(entry.Name(), suffix) {
			count++
		}
	}
	return count, nil
}
