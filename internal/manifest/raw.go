package manifest

import (
	"os"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
)

// rawTable is how a parsed TOML table is handled once decoded: BurntSushi's
// decoder turns nested tables into map[string]interface{} when the target
// is interface{}, which lets the resolver walk the override layers without
// a fixed struct per layer combination.
type rawTable map[string]interface{}

func decodeFile(path string) (rawTable, toml.MetaData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, toml.MetaData{}, err
	}
	var raw rawTable
	md, err := toml.Decode(string(b), &raw)
	if err != nil {
		return nil, toml.MetaData{}, &ConfigError{Path: path, Msg: "invalid TOML", Err: err}
	}
	return raw, md, nil
}

// dependencyOrder returns the names of [dependencies.<name>] tables in the
// order they were declared, using the decoder's key-order metadata — Go
// map iteration is randomized, but §3 requires the Dependencies list to
// preserve manifest order.
func dependencyOrder(md toml.MetaData) []string {
	seen := make(map[string]bool)
	var names []string
	for _, key := range md.Keys() {
		if len(key) < 2 || key[0] != "dependencies" {
			continue
		}
		name := key[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func (t rawTable) table(key string) rawTable {
	v, ok := t[key]
	if !ok {
		return nil
	}
	sub, ok := v.(map[string]interface{})
	if !ok {
		return nil
	}
	return rawTable(sub)
}

func (t rawTable) str(key string) (string, bool) {
	if t == nil {
		return "", false
	}
	v, ok := t[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func (t rawTable) strSlice(key string) ([]string, bool) {
	if t == nil {
		return nil, false
	}
	v, ok := t[key]
	if !ok {
		return nil, false
	}
	raw, ok := v.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, 0, len(raw))
	for _, el := range raw {
		s, ok := el.(string)
		if !ok {
			return nil, false
		}
		out = append(out, s)
	}
	return out, true
}

func validateRoot(path string, raw rawTable) error {
	if raw.table("build") == nil {
		return xerrors.Errorf("%s: missing required [build] table", path)
	}
	return nil
}
