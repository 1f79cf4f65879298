package container

// ContextualBuilder implements the fluent contextual binding API.
//
//	c.When("PhotoController").Needs("Filesystem").Give("s3")
type ContextualBuilder struct {
	container *Container
	consumer  string
	needs     string
}

// When starts a contextual binding chain: while building consumer, a
// reference named in Needs is replaced by the one given to Give.
func (c *Container) When(consumer string) *ContextualBuilder {
	return &ContextualBuilder{container: c, consumer: consumer}
}

// Needs specifies which reference of the consumer is substituted.
func (b *ContextualBuilder) Needs(ref string) *ContextualBuilder {
	b.needs = ref
	return b
}

// Give sets the replacement reference: a service name, a "$param" or
// "$$tag" token, a *Target, a func, or a Literal.
func (b *ContextualBuilder) Give(ref any) {
	c := b.container
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.contextual[b.consumer]; !ok {
		c.contextual[b.consumer] = make(map[string]any)
	}
	c.contextual[b.consumer][b.needs] = ref
	delete(c.instances, c.canonical(b.consumer))
}

// GiveValue is a shorthand for Give(Literal(value)).
//
//	c.When("PhotoController").Needs("storagePath").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) {
	b.Give(Literal(value))
}

// substitute returns the contextual replacement of ref for consumer, or ref.
func (c *Container) substitute(consumer string, ref any) any {
	name, ok := ref.(string)
	if !ok {
		return ref
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	if m, ok := c.contextual[consumer]; ok {
		if r, ok := m[name]; ok {
			return r
		}
	}
	return ref
}
