package bridge

import "sync"

// Registration is one entry of the dispatch table. Handle is the index of
// the entry in both generated artifacts.
type Registration struct {
	Handle   int
	Template SignatureTemplate
	Adapter  *Adapter
}

// Registry is the append-only handle table of one run. Handles are
// assigned sequentially under a lock and never reused.
type Registry struct {
	mu   sync.Mutex
	regs []*Registration
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Append records a registration and returns its handle.
func (r *Registry) Append(tmpl SignatureTemplate, a *Adapter) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	h := len(r.regs)
	r.regs = append(r.regs, &Registration{Handle: h, Template: tmpl, Adapter: a})
	return h
}

// Registrations returns the table in handle order.
func (r *Registry) Registrations() []*Registration {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Registration, len(r.regs))
	copy(out, r.regs)
	return out
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.regs)
}

// Lookup returns the registration for a handle.
func (r *Registry) Lookup(handle int) (*Registration, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if handle < 0 || handle >= len(r.regs) {
		return nil, false
	}
	return r.regs[handle], true
}

// Shapes returns the distinct pointer types of the table in first-seen
// order, and the shape index of every registration.
func (r *Registry) Shapes() (shapes []SignatureTemplate, index []int) {
	seen := make(map[string]int)
	for _, reg := range r.Registrations() {
		key := reg.Template.PointerType()
		i, ok := seen[key]
		if !ok {
			i = len(shapes)
			seen[key] = i
			shapes = append(shapes, reg.Template)
		}
		index = append(index, i)
	}
	return shapes, index
}
