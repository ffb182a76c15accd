package build

import (
	"fmt"
	"sort"
)

// Toolchain knows how to install dependencies and build a template project.
type Toolchain interface {
	// Name returns the toolchain name (e.g., "npm", "pnpm")
	Name() string

	// Install returns the dependency installation command
	Install() (name string, args []string)

	// Build returns the static build command
	Build() (name string, args []string)

	// Lockfile is the file whose content identifies the dependency set
	Lockfile() string
}

// FactoryFunc creates a toolchain, optionally with a custom binary path
type FactoryFunc func(binPath string) Toolchain

var registry = make(map[string]FactoryFunc)

// Register registers a toolchain factory function
func Register(name string, factory FactoryFunc) {
	registry[name] = factory
}

// NewToolchain creates a toolchain by name with a custom binary path
func NewToolchain(name, binPath string) (Toolchain, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unsupported toolchain: %s (available: %v)", name, Toolchains())
	}
	return factory(binPath), nil
}

// Toolchains lists registered toolchain names
func Toolchains() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register("npm", func(binPath string) Toolchain {
		return &nodeToolchain{
			name:       "npm",
			bin:        orDefault(binPath, "npm"),
			installArg: []string{"install", "--no-audit", "--no-fund"},
			lockfile:   "package-lock.json",
		}
	})
	Register("pnpm", func(binPath string) Toolchain {
		return &nodeToolchain{
			name:       "pnpm",
			bin:        orDefault(binPath, "pnpm"),
			installArg: []string{"install"},
			lockfile:   "pnpm-lock.yaml",
		}
	})
}

type nodeToolchain struct {
	name       string
	bin        string
	installArg []string
	lockfile   string
}

func (n *nodeToolchain) Name() string { return n.name }

func (n *nodeToolchain) Install() (string, []string) { return n.bin, n.installArg }

func (n *nodeToolchain) Build() (string, []string) { return n.bin, []string{"run", "build"} }

func (n *nodeToolchain) Lockfile() string { return n.lockfile }

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
