package config

import (
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
)

// Legacy ASCII scene formats (Maya .ma, OBJ) cannot carry arbitrary UTF-8
// node names. Names are squeezed through a configurable single-byte charmap;
// anything unencodable becomes '_'.

var currentCharMap *charmap.Charmap = charmap.Windows1252

func SetEncoding(name string) error {
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			if cm.String() == name {
				currentCharMap = cm
				return nil
			}
		}
	}
	return errors.Errorf("Failed to find encoding %q", name)
}

func ListEncodings() []string {
	list := make([]string, 0)
	for _, enc := range charmap.All {
		if cm, ok := enc.(*charmap.Charmap); ok {
			list = append(list, cm.String())
		}
	}
	return list
}

func GetEncoding() *charmap.Charmap {
	return currentCharMap
}

// EncodeNodeName makes an identity safe for ASCII scene writers: charmap
// transliteration, then identifier cleanup (leading digits prefixed, symbol
// runes replaced).
func EncodeNodeName(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if _, ok := currentCharMap.EncodeRune(r); !ok {
			r = '_'
		}
		if r > unicode.MaxASCII || (!unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_') {
			r = '_'
		}
		sb.WriteRune(r)
	}
	out := sb.String()
	if out == "" {
		return "_"
	}
	if unicode.IsDigit(rune(out[0])) {
		out = "_" + out
	}
	return out
}
