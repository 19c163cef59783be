package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top-level blocks of any pipeline file.
type fileRoot struct {
	Matrix *matrixBlock `hcl:"matrix,block"`
	Steps  []*stepBlock `hcl:"step,block"`
}

// matrixBlock is the raw `matrix` block.
type matrixBlock struct {
	FailFast           *bool           `hcl:"fail_fast,optional"`
	CancelExperimental *bool           `hcl:"cancel_experimental,optional"`
	Axes               []*axisBlock    `hcl:"axis,block"`
	Includes           []*includeBlock `hcl:"include,block"`
}

// axisBlock is a raw `axis "name"` block. Values stays an expression so the
// translator can report a precise error when it is not a list of literals.
type axisBlock struct {
	Name   string         `hcl:"name,label"`
	Values hcl.Expression `hcl:"values"`
}

// includeBlock is a raw `include` block; its attributes are free-form
// binding assignments.
type includeBlock struct {
	Body hcl.Body `hcl:",remain"`
}

// stepBlock is a raw `step "name"` block.
type stepBlock struct {
	Name            string          `hcl:"name,label"`
	Action          string          `hcl:"action"`
	When            hcl.Expression  `hcl:"when,optional"`
	ContinueOnError *bool           `hcl:"continue_on_error,optional"`
	Timeout         *string         `hcl:"timeout,optional"`
	Arguments       *argumentsBlock `hcl:"arguments,block"`
}

// argumentsBlock holds a step's free-form argument assignments.
type argumentsBlock struct {
	Body hcl.Body `hcl:",remain"`
}
