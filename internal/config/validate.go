package config

import "fmt"

// Validate checks the structural integrity of a loaded pipeline. Loaders
// call this after translation so that both front ends reject the same
// malformed inputs. Any error here is fatal at load time; no job runs.
func (p *Pipeline) Validate() error {
	if p.Matrix == nil {
		return fmt.Errorf("pipeline has no matrix block")
	}
	if len(p.Steps) == 0 {
		return fmt.Errorf("pipeline declares no steps")
	}

	seenAxes := make(map[string]struct{}, len(p.Matrix.Axes))
	for _, axis := range p.Matrix.Axes {
		if axis.Name == "" {
			return fmt.Errorf("axis with empty name")
		}
		if _, dup := seenAxes[axis.Name]; dup {
			return fmt.Errorf("axis %q declared more than once", axis.Name)
		}
		seenAxes[axis.Name] = struct{}{}
		if len(axis.Values) == 0 {
			return fmt.Errorf("axis %q has no values", axis.Name)
		}
		for i, v := range axis.Values {
			for j := range i {
				if v.RawEquals(axis.Values[j]) {
					return fmt.Errorf("axis %q repeats value at position %d", axis.Name, i)
				}
			}
		}
	}

	for _, inc := range p.Matrix.Includes {
		if len(inc.Keys) == 0 {
			return fmt.Errorf("include block with no bindings")
		}
	}

	seenSteps := make(map[string]struct{}, len(p.Steps))
	for _, step := range p.Steps {
		if step.Name == "" {
			return fmt.Errorf("step with empty name")
		}
		if _, dup := seenSteps[step.Name]; dup {
			return fmt.Errorf("step %q declared more than once", step.Name)
		}
		seenSteps[step.Name] = struct{}{}
		if step.Action == "" {
			return fmt.Errorf("step %q has no action", step.Name)
		}
		if step.Timeout < 0 {
			return fmt.Errorf("step %q has a negative timeout", step.Name)
		}
	}

	return nil
}
