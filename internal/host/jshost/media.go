package jshost

import "strings"

// mediaTable answers canPlayType the way browsers do: an exact type with
// codecs is "probably", a bare container type is "maybe", anything else is
// the empty string.
type mediaTable struct {
	exact map[string]struct{}
	bases map[string]struct{}
}

func newMediaTable(types []string) mediaTable {
	t := mediaTable{
		exact: make(map[string]struct{}, len(types)),
		bases: make(map[string]struct{}, len(types)),
	}
	for _, typ := range types {
		norm := normalizeMIME(typ)
		t.exact[norm] = struct{}{}
		t.bases[baseMIME(norm)] = struct{}{}
	}
	return t
}

func (t mediaTable) canPlayType(typ string) string {
	norm := normalizeMIME(typ)
	if norm == "" {
		return ""
	}
	if strings.Contains(norm, "codecs=") {
		if _, ok := t.exact[norm]; ok {
			return "probably"
		}
		return ""
	}
	if _, ok := t.bases[baseMIME(norm)]; ok {
		return "maybe"
	}
	return ""
}

func normalizeMIME(typ string) string {
	typ = strings.ToLower(strings.Join(strings.Fields(typ), ""))
	return strings.TrimRight(typ, ";")
}

func baseMIME(norm string) string {
	base, _, _ := strings.Cut(norm, ";")
	return base
}
