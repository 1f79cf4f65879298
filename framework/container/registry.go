package container

import (
	"reflect"
	"slices"

	"github.com/km-arc/go-inject/framework/log"
)

// ── Definition registry ───────────────────────────────────────────────────────

// Register stores def under def.Name, replacing any previous definition of
// that name wholesale; the name keeps its original registration position.
// Any cached instance is evicted. When def declares no tags, the auto-taggers
// run in registration order and their results are concatenated into Tags.
func (c *Container) Register(def Definition) error {
	d, err := c.prepare(&def)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.store(d)
	c.mu.Unlock()

	log.Debug(log.CatContainer, "definition registered", "name", d.Name, "tags", d.Tags, "private", d.Private)
	return nil
}

// Add merges def into the existing definition of the same name instead of
// replacing it: parameters and tags are appended, properties merged, and
// target, value and flags overwritten only when def sets them. Without an
// existing definition Add behaves like Register.
func (c *Container) Add(def Definition) error {
	if err := validate(&def); err != nil {
		return err
	}

	c.mu.RLock()
	existing, ok := c.definitions[c.canonical(def.Name)]
	c.mu.RUnlock()
	if !ok {
		return c.Register(def)
	}

	merged := existing.clone()
	merged.merge(&def)
	if err := validate(merged); err != nil {
		return err
	}

	c.mu.Lock()
	c.store(merged)
	c.mu.Unlock()

	log.Debug(log.CatContainer, "definition merged", "name", merged.Name, "tags", merged.Tags)
	return nil
}

// Lookup returns a copy of the definition registered under name.
func (c *Container) Lookup(name string) (*Definition, error) {
	return c.lookup(name, nil)
}

func (c *Container) lookup(name string, stack []string) (*Definition, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	d, ok := c.definitions[c.canonical(name)]
	if !ok {
		return nil, &ServiceNotFoundError{Name: name, Stack: slices.Clone(stack)}
	}
	return d.clone(), nil
}

// prepare validates def, fills defaults, and runs the auto-taggers.
func (c *Container) prepare(def *Definition) (*Definition, error) {
	if err := validate(def); err != nil {
		return nil, err
	}
	d := def.clone()
	if d.Parameters == nil && d.Target != nil {
		d.Parameters = d.Target.Deps()
	}

	if len(d.Tags) == 0 {
		c.mu.RLock()
		taggers := slices.Clone(c.autoTaggers)
		c.mu.RUnlock()
		for _, tagger := range taggers {
			d.Tags = append(d.Tags, tagger(d)...)
		}
	}
	return d, nil
}

// store writes d into the registry and evicts its instance (must hold mu).
func (c *Container) store(d *Definition) {
	if _, exists := c.definitions[d.Name]; !exists {
		c.order = append(c.order, d.Name)
	}
	c.definitions[d.Name] = d
	delete(c.instances, d.Name)
	// A registered name takes over from an alias of the same name.
	delete(c.aliases, d.Name)

	// Interface results are described once a value is built.
	if t := d.Target; t != nil && t.constructible && !d.IsFactory && len(t.methods) > 0 {
		if rt := t.ResultType(); rt != nil && rt.Kind() != reflect.Interface {
			c.descriptors[rt] = t
		}
	}
}

func validate(def *Definition) error {
	if def.Name == "" {
		return &InvalidDefinitionError{Reason: "name must be a non-empty string"}
	}
	if def.Target == nil && (def.Invoke || def.IsFactory) {
		return &InvalidDefinitionError{Name: def.Name, Reason: "invoke and factory definitions need a target"}
	}
	for key, prop := range def.Properties {
		if key == "" {
			return &InvalidDefinitionError{Name: def.Name, Reason: "property name must not be empty"}
		}
		if prop.Source == nil {
			return &InvalidDefinitionError{Name: def.Name, Reason: "property " + key + " has no source"}
		}
	}
	return nil
}

// Describe registers t as the descriptor of the values it produces, so that
// InvokeLater and method invocation find its declared method parameters for
// objects built outside the container.
func (c *Container) Describe(t *Target) {
	rt := t.ResultType()
	if rt == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.descriptors[rt] = t
}
