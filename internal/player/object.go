package player

import (
	"maps"
	"slices"
)

// Object is a runtime object animated by evaluation.
type Object struct {
	Name       string
	Spawned    bool
	properties map[string]float64
}

// NewObject returns an object with the given initial properties.
func NewObject(name string, props map[string]float64) *Object {
	o := &Object{Name: name, properties: make(map[string]float64, len(props))}
	maps.Copy(o.properties, props)
	return o
}

// Property returns the value of name.
func (o *Object) Property(name string) (float64, bool) {
	v, ok := o.properties[name]
	return v, ok
}

// SetProperty sets name to v.
func (o *Object) SetProperty(name string, v float64) {
	if o.properties == nil {
		o.properties = make(map[string]float64)
	}
	o.properties[name] = v
}

// DeleteProperty removes name.
func (o *Object) DeleteProperty(name string) {
	delete(o.properties, name)
}

// PropertyNames returns the object's property names in sorted order.
func (o *Object) PropertyNames() []string {
	return slices.Sorted(maps.Keys(o.properties))
}
