package upload

import (
	"sort"
	"strconv"
)

// Extraction is the result of separating file leaves from a variables tree.
type Extraction struct {
	// Files holds every discovered file in depth-first discovery order.
	// The Nth file is assigned map key strconv.Itoa(N).
	Files []File

	// Map assigns each file's decimal index the dotted paths inside the
	// request payload where that file appeared.
	Map map[string][]string

	// Variables is a copy of the input tree with every file leaf replaced
	// by nil. It never contains binary values.
	Variables any
}

// Extract walks a variables tree depth-first and splits out every file leaf,
// recording its dotted path (e.g. "variables.files.2.avatar"). Object keys
// are visited in sorted order so extraction is deterministic.
func Extract(variables any) *Extraction {
	ex := &Extraction{Map: make(map[string][]string)}
	ex.Variables = ex.walk("variables", variables)
	return ex
}

func (ex *Extraction) walk(path string, v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case File:
		index := strconv.Itoa(len(ex.Files))
		ex.Files = append(ex.Files, val)
		ex.Map[index] = []string{path}
		return nil
	case FileList:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = ex.walk(path+"."+strconv.Itoa(i), el)
		}
		return out
	case []File:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = ex.walk(path+"."+strconv.Itoa(i), el)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, el := range val {
			out[i] = ex.walk(path+"."+strconv.Itoa(i), el)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for _, k := range sortedKeys(val) {
			out[k] = ex.walk(path+"."+k, val[k])
		}
		return out
	default:
		return v
	}
}

// HasFiles reports whether a variables tree contains at least one file leaf.
// It short-circuits on the first hit so the common file-less request never
// pays for a full extraction.
func HasFiles(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case File:
		return val != nil
	case FileList:
		return len(val) > 0
	case []File:
		return len(val) > 0
	case []any:
		for _, el := range val {
			if HasFiles(el) {
				return true
			}
		}
		return false
	case map[string]any:
		for _, el := range val {
			if HasFiles(el) {
				return true
			}
		}
		return false
	default:
		return false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
