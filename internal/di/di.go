// Package di provides a minimal service registry with typed tokens.
package di

import (
	"fmt"
	"sync"
)

// ServiceRegistry resolves registered services by name.
type ServiceRegistry interface {
	Get(name string) any
}

// Container is a ServiceRegistry that also accepts registrations.
// Factories are resolved lazily and memoized on first Get.
type Container interface {
	ServiceRegistry
	Register(name string, svc any)
	RegisterFactory(name string, factory func(ServiceRegistry) any)
}

type container struct {
	mu        sync.Mutex
	services  map[string]any
	factories map[string]func(ServiceRegistry) any
}

// NewContainer creates an empty container.
func NewContainer() Container {
	return &container{
		services:  make(map[string]any),
		factories: make(map[string]func(ServiceRegistry) any),
	}
}

func (c *container) Register(name string, svc any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = svc
}

func (c *container) RegisterFactory(name string, factory func(ServiceRegistry) any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

func (c *container) Get(name string) any {
	c.mu.Lock()
	if svc, ok := c.services[name]; ok {
		c.mu.Unlock()
		return svc
	}
	factory, ok := c.factories[name]
	c.mu.Unlock()

	if !ok {
		panic(fmt.Sprintf("di: service %q not registered", name))
	}

	// Resolve outside the lock so factories can Get their own dependencies.
	svc := factory(c)

	c.mu.Lock()
	c.services[name] = svc
	c.mu.Unlock()

	return svc
}

// Token is a typed handle for a registered service.
type Token[T any] struct {
	name string
}

// NewToken creates a token with a unique name.
func NewToken[T any](name string) Token[T] {
	return Token[T]{name: name}
}

// Name returns the registry name behind the token.
func (t Token[T]) Name() string {
	return t.name
}

// RegisterToken registers a typed factory under the token's name.
func RegisterToken[T any](c Container, t Token[T], factory func(ServiceRegistry) T) {
	c.RegisterFactory(t.name, func(sr ServiceRegistry) any {
		return factory(sr)
	})
}

// GetToken resolves a token to its typed service.
func GetToken[T any](sr ServiceRegistry, t Token[T]) T {
	svc, ok := sr.Get(t.name).(T)
	if !ok {
		panic(fmt.Sprintf("di: service %q has unexpected type", t.name))
	}
	return svc
}
