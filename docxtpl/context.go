package docxtpl

import "github.com/docxmerge/docxtemplate/value"

// Context is a scope frame in the lexical chain used to resolve paths: the
// value currently in scope, the immutable document root, and the enclosing
// frame. A new frame is pushed per loop iteration and dropped once that
// iteration finishes rendering.
type Context struct {
	current value.Value
	root    value.Value
	parent  *Context
}

// NewRootContext builds the frame the engine hands to the renderer on
// entry: current and root are the same value, with no parent.
func NewRootContext(root value.Value) *Context {
	return &Context{current: root, root: root}
}

// Spawn pushes a new frame for a loop iteration: current becomes item,
// root is inherited unchanged, and c becomes the parent.
func (c *Context) Spawn(item value.Value) *Context {
	return &Context{current: item, root: c.root, parent: c}
}

// Current returns the frame's current value.
func (c *Context) Current() value.Value { return c.current }

// Root returns the document root, shared by every frame in the chain.
func (c *Context) Root() value.Value { return c.root }
