package matrix

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/vk/matrixci/internal/config"
)

// jobDraft is a mutable job under construction. Drafts from the base
// cross-product can absorb include merges; drafts appended by includes
// cannot be matched again. axes keeps the draft's original cross-product
// bindings so include matching never depends on keys earlier includes
// merged in.
type jobDraft struct {
	keys     []string
	bindings map[string]cty.Value
	axes     map[string]cty.Value
	base     bool
}

// Expand computes the ordered job set for the given pipeline: the full
// cross-product of the base axes, in axis and value declaration order,
// followed by the include pass. Includes apply cumulatively in declaration
// order; an include that subset-matches a base job merges into the first
// such job (include values win per key), and an include that matches none
// appends a new job with unspecified axes filled with Unset.
func Expand(p *config.Pipeline) ([]*JobSpec, error) {
	m := p.Matrix
	if m == nil {
		return nil, fmt.Errorf("pipeline has no matrix")
	}

	axisNames := make([]string, len(m.Axes))
	for i, axis := range m.Axes {
		axisNames[i] = axis.Name
	}

	drafts := crossProduct(m.Axes)

	for _, inc := range m.Includes {
		if merged := applyInclude(drafts, inc); merged {
			continue
		}
		drafts = append(drafts, appendedDraft(axisNames, inc))
	}

	scope := scopeUnion(drafts)
	jobs := make([]*JobSpec, len(drafts))
	for i, d := range drafts {
		jobs[i] = newJobSpec(d.keys, scope, d.bindings)
	}
	return jobs, nil
}

// scopeUnion collects every binding name across the job set, in first
// appearance order. Sharing one scope keeps the `matrix` evaluation object
// shape identical for every job.
func scopeUnion(drafts []*jobDraft) []string {
	var scope []string
	seen := make(map[string]bool)
	for _, d := range drafts {
		for _, k := range d.keys {
			if !seen[k] {
				seen[k] = true
				scope = append(scope, k)
			}
		}
	}
	return scope
}

// crossProduct enumerates every combination of axis values. The first axis
// varies slowest, mirroring how the combinations read in the pipeline file.
func crossProduct(axes []*config.Axis) []*jobDraft {
	if len(axes) == 0 {
		return nil
	}
	total := 1
	for _, axis := range axes {
		total *= len(axis.Values)
	}

	drafts := make([]*jobDraft, 0, total)
	indices := make([]int, len(axes))
	for {
		keys := make([]string, len(axes))
		bindings := make(map[string]cty.Value, len(axes))
		axisBindings := make(map[string]cty.Value, len(axes))
		for i, axis := range axes {
			keys[i] = axis.Name
			bindings[axis.Name] = axis.Values[indices[i]]
			axisBindings[axis.Name] = axis.Values[indices[i]]
		}
		drafts = append(drafts, &jobDraft{keys: keys, bindings: bindings, axes: axisBindings, base: true})

		// Odometer increment, last axis fastest.
		pos := len(axes) - 1
		for pos >= 0 {
			indices[pos]++
			if indices[pos] < len(axes[pos].Values) {
				break
			}
			indices[pos] = 0
			pos--
		}
		if pos < 0 {
			return drafts
		}
	}
}

// applyInclude merges the include into the first base draft whose original
// axis bindings agree with the include on every shared key, and reports
// whether such a draft was found. Keys the draft does not carry yet are
// added in include declaration order. Matching deliberately ignores keys
// merged by earlier includes: repeated includes targeting the same base job
// stack onto it, last writer wins per key.
func applyInclude(drafts []*jobDraft, inc *config.Include) bool {
	for _, d := range drafts {
		if !d.base || !subsetMatch(d, inc) {
			continue
		}
		for _, k := range inc.Keys {
			if _, exists := d.bindings[k]; !exists {
				d.keys = append(d.keys, k)
			}
			d.bindings[k] = inc.Bindings[k]
		}
		return true
	}
	return false
}

// subsetMatch reports whether every include key that names an axis of the
// draft carries the same value in both. Keys outside the axes never
// disqualify a match; they are what the merge adds.
func subsetMatch(d *jobDraft, inc *config.Include) bool {
	for _, k := range inc.Keys {
		existing, ok := d.axes[k]
		if ok && !existing.RawEquals(inc.Bindings[k]) {
			return false
		}
	}
	return true
}

// appendedDraft builds a brand-new job from an include's bindings alone,
// filling every axis the include does not mention with the Unset sentinel.
func appendedDraft(axisNames []string, inc *config.Include) *jobDraft {
	bindings := make(map[string]cty.Value, len(axisNames)+len(inc.Keys))
	keys := make([]string, 0, len(axisNames)+len(inc.Keys))

	for _, name := range axisNames {
		keys = append(keys, name)
		if v, ok := inc.Bindings[name]; ok {
			bindings[name] = v
		} else {
			bindings[name] = Unset
		}
	}
	for _, k := range inc.Keys {
		if _, exists := bindings[k]; exists {
			continue
		}
		keys = append(keys, k)
		bindings[k] = inc.Bindings[k]
	}
	return &jobDraft{keys: keys, bindings: bindings}
}
