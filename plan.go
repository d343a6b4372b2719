package sion

import (
	"reflect"
)

// shapePlan describes the container shapes a go type expects.
type shapePlan struct {
	shape Shape

	// plan of the elements of an array, or the values of a map
	elem *shapePlan

	// plans of struct fields by name
	fields map[string]*shapePlan
}

// anyPlan lets the decoder decide the shape.
var anyPlan = &shapePlan{shape: ShapeAny}

func (s *shapePlan) elemPlan() *shapePlan {
	if s.elem == nil {
		return anyPlan
	}

	return s.elem
}

// valuePlan returns the plan for the value stored under key.
// key is nil if the key was not a string.
func (s *shapePlan) valuePlan(key *string) *shapePlan {
	if s.fields == nil {
		return s.elemPlan()
	}

	if key != nil {
		if plan, ok := s.fields[*key]; ok {
			return plan
		}
	}

	return anyPlan
}

func (d *Decoder) planOf(ty reflect.Type) *shapePlan {
	if cached, ok := d.planCache.Load(ty); ok {
		return cached.(*shapePlan)
	}

	plan := d.makePlan(map[reflect.Type]*shapePlan{}, ty)
	d.planCache.Store(ty, plan)

	return plan
}

func (d *Decoder) makePlan(inConstruction map[reflect.Type]*shapePlan, ty reflect.Type) *shapePlan {
	if plan, ok := inConstruction[ty]; ok {
		// recursive type, the plan gets completed further up the stack
		return plan
	}

	switch {
	case ty == tyValue, ty == tyAlternative, ty.Kind() == reflect.Interface:
		return anyPlan

	case reflect.PointerTo(ty).Implements(tyTextUnmarshaler):
		return anyPlan
	}

	switch ty.Kind() {
	case reflect.Pointer:
		return d.makePlan(inConstruction, ty.Elem())

	case reflect.Slice:
		if ty.Elem().Kind() == reflect.Uint8 {
			// .Data or a list of numbers
			return anyPlan
		}

		plan := &shapePlan{shape: ShapeArray}
		inConstruction[ty] = plan
		plan.elem = d.makePlan(inConstruction, ty.Elem())
		return plan

	case reflect.Array:
		plan := &shapePlan{shape: ShapeArray}
		inConstruction[ty] = plan
		plan.elem = d.makePlan(inConstruction, ty.Elem())
		return plan

	case reflect.Map:
		plan := &shapePlan{shape: ShapeMap}
		inConstruction[ty] = plan
		plan.elem = d.makePlan(inConstruction, ty.Elem())
		return plan

	case reflect.Struct:
		plan := &shapePlan{shape: ShapeMap, fields: map[string]*shapePlan{}}
		inConstruction[ty] = plan

		for _, field := range fieldsOf(ty, d.structTag) {
			plan.fields[field.Name] = d.makePlan(inConstruction, field.Type)
		}

		return plan

	default:
		return anyPlan
	}
}

type planFrame struct {
	plan  *shapePlan
	isMap bool

	// set if the next event in a map is a value, not a key
	expectValue bool
	valuePlan   *shapePlan
}

// planBuilder builds a Value like treeBuilder, and tells the decoder which
// container shape the target type expects next.
type planBuilder struct {
	treeBuilder

	root   *shapePlan
	frames []planFrame
}

var _ ShapeHinter = (*planBuilder)(nil)

func newPlanBuilder(root *shapePlan) *planBuilder {
	return &planBuilder{root: root}
}

func (p *planBuilder) NextShape() Shape {
	return p.nextPlan().shape
}

func (p *planBuilder) nextPlan() *shapePlan {
	if len(p.frames) == 0 {
		return p.root
	}

	top := &p.frames[len(p.frames)-1]
	switch {
	case !top.isMap:
		return top.plan.elemPlan()
	case top.expectValue:
		return top.valuePlan
	default:
		// keys of any shape
		return anyPlan
	}
}

// completed advances the position in the innermost map after a key or value.
func (p *planBuilder) completed(key *string) {
	if len(p.frames) == 0 {
		return
	}

	top := &p.frames[len(p.frames)-1]
	if !top.isMap {
		return
	}

	if top.expectValue {
		top.expectValue = false
		top.valuePlan = nil
		return
	}

	top.expectValue = true
	top.valuePlan = top.plan.valuePlan(key)
}

func (p *planBuilder) Nil() error {
	p.completed(nil)
	return p.treeBuilder.Nil()
}

func (p *planBuilder) Bool(value bool) error {
	p.completed(nil)
	return p.treeBuilder.Bool(value)
}

func (p *planBuilder) Int(value int64) error {
	p.completed(nil)
	return p.treeBuilder.Int(value)
}

func (p *planBuilder) Double(value float64) error {
	p.completed(nil)
	return p.treeBuilder.Double(value)
}

func (p *planBuilder) String(value string) error {
	p.completed(&value)
	return p.treeBuilder.String(value)
}

func (p *planBuilder) Data(value []byte) error {
	p.completed(nil)
	return p.treeBuilder.Data(value)
}

func (p *planBuilder) Date(value float64) error {
	p.completed(nil)
	return p.treeBuilder.Date(value)
}

func (p *planBuilder) BeginArray() error {
	p.frames = append(p.frames, planFrame{plan: p.nextPlan()})
	return p.treeBuilder.BeginArray()
}

func (p *planBuilder) EndArray() error {
	p.pop()
	return p.treeBuilder.EndArray()
}

func (p *planBuilder) BeginMap() error {
	p.frames = append(p.frames, planFrame{plan: p.nextPlan(), isMap: true})
	return p.treeBuilder.BeginMap()
}

func (p *planBuilder) EndMap() error {
	p.pop()
	return p.treeBuilder.EndMap()
}

func (p *planBuilder) pop() {
	if len(p.frames) > 0 {
		p.frames = p.frames[:len(p.frames)-1]
	}

	p.completed(nil)
}
