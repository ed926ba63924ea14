package command

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"discord_workflow/internal/model"
)

var (
	// ErrUnknownCommand is returned for command names that have no descriptor.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidOptions is returned when an invocation carries fewer options than required.
	ErrInvalidOptions = errors.New("invalid command options")
)

// Option describes the argument a command accepts.
type Option struct {
	Name        string
	Description string
	Required    bool
}

// Descriptor describes one supported command and how its options become workflow inputs.
type Descriptor struct {
	Name        string
	Description string
	Option      Option
	// InputKey is the workflow input the option value is passed as.
	InputKey            string
	RequiredOptionCount int
}

// BuildInputs maps the first option value to the descriptor's input key.
func (d Descriptor) BuildInputs(options []model.CommandOption) (map[string]string, error) {
	if len(options) < d.RequiredOptionCount {
		return nil, fmt.Errorf("%s expects %d option(s), got %d: %w", d.Name, d.RequiredOptionCount, len(options), ErrInvalidOptions)
	}
	if len(options) == 0 {
		return map[string]string{}, nil
	}
	return map[string]string{d.InputKey: options[0].String()}, nil
}

// AckContent is the short text echoed back while the workflow runs, e.g. <Input text=Tama>.
func (d Descriptor) AckContent(options []model.CommandOption) string {
	if len(options) == 0 {
		return "<Input >"
	}
	return fmt.Sprintf("<Input %s=%s>", d.Option.Name, options[0].String())
}

// Registry maps command names to descriptors.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Descriptor
}

// NewRegistry creates a new empty Registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Descriptor)}
}

// Register adds or replaces a descriptor.
func (r *Registry) Register(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[d.Name] = d
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.commands[name]
	if !ok {
		return Descriptor{}, fmt.Errorf("%q: %w", name, ErrUnknownCommand)
	}
	return d, nil
}

// All returns every descriptor sorted by name.
func (r *Registry) All() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Descriptor, 0, len(r.commands))
	for _, d := range r.commands {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Default returns the registry with the supported commands.
func Default() *Registry {
	r := NewRegistry()
	r.Register(Descriptor{
		Name:        "neko",
		Description: "にゃーん",
		Option: Option{
			Name:        "text",
			Description: "string",
			Required:    true,
		},
		InputKey:            "query",
		RequiredOptionCount: 1,
	})
	r.Register(Descriptor{
		Name:        "summary",
		Description: "要約",
		Option: Option{
			Name:        "url",
			Description: "string",
			Required:    true,
		},
		InputKey:            "url",
		RequiredOptionCount: 1,
	})
	return r
}
