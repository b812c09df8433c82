package container

import (
	"fmt"
	"reflect"
	"sync"
)

// Small DI container using constructor injection.
// Why: centralize wiring without external deps; keep testable via interfaces.
// It supports:
//  - Provide constructor functions
//  - Singleton scope
//  - Resolve by type and Invoke to call functions with deps

var errType = reflect.TypeOf((*error)(nil)).Elem()

type Container struct {
	mu        sync.RWMutex
	providers map[reflect.Type]provider
	instances map[reflect.Type]reflect.Value
}

type provider struct {
	fn        reflect.Value
	singleton bool
}

func New() *Container {
	return &Container{
		providers: make(map[reflect.Type]provider),
		instances: make(map[reflect.Type]reflect.Value),
	}
}

// Provide registers a constructor function for a type. The constructor may
// have parameters which will be resolved from the container, and may return
// either (T) or (T, error).
func (c *Container) Provide(constructor interface{}, singleton bool) error {
	v := reflect.ValueOf(constructor)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("container: constructor must be a function")
	}
	ft := v.Type()
	if ft.NumOut() == 0 || ft.NumOut() > 2 {
		return fmt.Errorf("container: constructor must return (T) or (T, error)")
	}
	if ft.NumOut() == 2 && ft.Out(1) != errType {
		return fmt.Errorf("container: second return value must be error")
	}
	outType := ft.Out(0)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.providers[outType]; exists {
		return fmt.Errorf("container: provider already exists for %v", outType)
	}
	c.providers[outType] = provider{fn: v, singleton: singleton}
	return nil
}

// Resolve populates the given pointer with an instance of the requested type.
// Example: var db *DB; c.Resolve(&db)
func (c *Container) Resolve(target interface{}) error {
	ptr := reflect.ValueOf(target)
	if ptr.Kind() != reflect.Ptr || ptr.IsNil() {
		return fmt.Errorf("container: target must be a non-nil pointer")
	}
	val, err := c.build(ptr.Elem().Type(), make(map[reflect.Type]bool))
	if err != nil {
		return err
	}
	ptr.Elem().Set(val)
	return nil
}

// Invoke calls a function, resolving its parameters from the container.
// When the function's last return value is an error, it is propagated.
func (c *Container) Invoke(fn interface{}) error {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return fmt.Errorf("container: Invoke requires a function")
	}
	ft := v.Type()
	args := make([]reflect.Value, ft.NumIn())
	seen := make(map[reflect.Type]bool)
	for i := 0; i < ft.NumIn(); i++ {
		val, err := c.build(ft.In(i), seen)
		if err != nil {
			return err
		}
		args[i] = val
	}
	outs := v.Call(args)
	if n := len(outs); n > 0 {
		last := outs[n-1]
		if last.IsValid() && last.Type() == errType && !last.IsNil() {
			return last.Interface().(error)
		}
	}
	return nil
}

func (c *Container) build(t reflect.Type, seen map[reflect.Type]bool) (reflect.Value, error) {
	c.mu.RLock()
	if v, ok := c.instances[t]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	prov, ok := c.providers[t]
	if !ok && t.Kind() == reflect.Interface {
		// Fall back to any provider whose return type satisfies the interface
		for pt, p := range c.providers {
			if pt.Implements(t) {
				prov, ok = p, true
				break
			}
		}
	}
	c.mu.RUnlock()
	if !ok {
		return reflect.Value{}, fmt.Errorf("container: no provider for %v", t)
	}

	if seen[t] {
		return reflect.Value{}, fmt.Errorf("container: cyclic dependency for %v", t)
	}
	seen[t] = true

	ft := prov.fn.Type()
	args := make([]reflect.Value, ft.NumIn())
	for i := 0; i < ft.NumIn(); i++ {
		depVal, err := c.build(ft.In(i), seen)
		if err != nil {
			return reflect.Value{}, err
		}
		args[i] = depVal
	}
	outs := prov.fn.Call(args)
	if len(outs) == 2 {
		if err, _ := outs[1].Interface().(error); err != nil {
			return reflect.Value{}, err
		}
	}
	res := outs[0]

	if prov.singleton {
		c.mu.Lock()
		c.instances[t] = res
		c.mu.Unlock()
	}
	return res, nil
}
