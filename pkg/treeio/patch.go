package treeio

import (
	"fmt"
	"strings"

	"github.com/aretw0/panelstate/pkg/domain"
	jsonpatch "github.com/evanphx/json-patch"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
)

// MergePatch returns the RFC 7386 merge patch turning before into after.
// Unlike domain.Diff it treats lists as atomic values.
func MergePatch(before, after *domain.Tree) (*domain.Tree, error) {
	b, err := before.MarshalJSON()
	if err != nil {
		return nil, err
	}
	a, err := after.MarshalJSON()
	if err != nil {
		return nil, err
	}

	patch, err := jsonpatch.CreateMergePatch(b, a)
	if err != nil {
		return nil, fmt.Errorf("create merge patch: %w", err)
	}
	return domain.ParseJSON(patch)
}

// ApplyMergePatch applies an RFC 7386 merge patch to doc.
func ApplyMergePatch(doc, patch *domain.Tree) (*domain.Tree, error) {
	d, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}
	p, err := patch.MarshalJSON()
	if err != nil {
		return nil, err
	}

	out, err := jsonpatch.MergePatch(d, p)
	if err != nil {
		return nil, fmt.Errorf("apply merge patch: %w", err)
	}
	return domain.ParseJSON(out)
}

// ApplyJSONPatch applies an RFC 6902 operation list (a JSON array) to doc.
func ApplyJSONPatch(doc *domain.Tree, ops []byte) (*domain.Tree, error) {
	patch, err := jsonpatch.DecodePatch(ops)
	if err != nil {
		return nil, fmt.Errorf("decode json patch: %w", err)
	}
	d, err := doc.MarshalJSON()
	if err != nil {
		return nil, err
	}

	out, err := patch.Apply(d)
	if err != nil {
		return nil, fmt.Errorf("apply json patch: %w", err)
	}
	return domain.ParseJSON(out)
}

// Listing renders the leaves of t one per line as "path = value", value in
// JSON.
func Listing(t *domain.Tree) string {
	var b strings.Builder
	for _, pv := range domain.Flatten(t, "") {
		value, err := pv.Value.MarshalJSON()
		if err != nil {
			value = []byte(fmt.Sprint(pv.Value.Value()))
		}
		path := pv.Path
		if path == "" {
			path = "."
		}
		fmt.Fprintf(&b, "%s = %s\n", path, value)
	}
	return b.String()
}

// Op classifies a line of a TextDiff.
type Op int

const (
	Equal Op = iota
	Insert
	Delete
)

// Line is one line of a TextDiff.
type Line struct {
	Op   Op
	Text string
}

// TextDiff diffs the listings of before and after line by line.
func TextDiff(before, after *domain.Tree) []Line {
	dmp := diffpatch.New()
	a, b, lines := dmp.DiffLinesToChars(Listing(before), Listing(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out []Line
	for _, d := range diffs {
		op := Equal
		switch d.Type {
		case diffpatch.DiffInsert:
			op = Insert
		case diffpatch.DiffDelete:
			op = Delete
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			out = append(out, Line{Op: op, Text: strings.TrimSuffix(text, "\n")})
		}
	}
	return out
}

// Changed reports whether lines contain any insertion or deletion.
func Changed(lines []Line) bool {
	for _, l := range lines {
		if l.Op != Equal {
			return true
		}
	}
	return false
}
