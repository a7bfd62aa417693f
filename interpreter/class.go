package interpreter

import "fmt"

// initializerName is the method name that doubles as a class constructor.
const initializerName = "init"

// Class is a runtime class object: a name and its own methods. Lookup
// chains are not needed since this dialect has no inheritance.
type Class struct {
	Name    string
	Methods map[string]*Function
}

func newClass(name string, methods map[string]*Function) *Class {
	return &Class{Name: name, Methods: methods}
}

func (c *Class) findMethod(name string) *Function {
	return c.Methods[name]
}

func (c *Class) Arity() int {
	if initializer := c.findMethod(initializerName); initializer != nil {
		return initializer.Arity()
	}
	return 0
}

func (c *Class) String() string {
	return c.Name
}

// Call constructs a new Instance and, if the class defines an init
// method, runs it against the fresh instance before returning it.
func (c *Class) Call(i *TreeWalkInterpreter, arguments []any) any {
	instance := newInstance(c)
	if initializer := c.findMethod(initializerName); initializer != nil {
		initializer.bind(instance).Call(i, arguments)
	}
	return instance
}

// Instance is a runtime object produced by calling a Class. Fields are
// looked up before methods, letting an instance shadow a method name
// with a plain value field.
type Instance struct {
	class  *Class
	fields map[string]any
}

func newInstance(class *Class) *Instance {
	return &Instance{class: class, fields: make(map[string]any)}
}

func (inst *Instance) get(name string) (any, bool) {
	if value, ok := inst.fields[name]; ok {
		return value, true
	}
	if method := inst.class.findMethod(name); method != nil {
		return method.bind(inst), true
	}
	return nil, false
}

func (inst *Instance) set(name string, value any) {
	inst.fields[name] = value
}

func (inst *Instance) String() string {
	return fmt.Sprintf("%s instance", inst.class.Name)
}
