package optimize

import (
	"bytes"
	"encoding/json"
	"errors"
	"io/ioutil"
	"math"
	"math/rand"
	"strconv"
)

// Limits for Randomize on unbounded parameters.
const (
	MIN = -10
	MAX = +10
)

// FloatParameter is a single bounded float parameter of a model.
type FloatParameter interface {
	Name() string
	Get() float64
	Set(float64)
	SetMin(float64)
	SetMax(float64)
	GetMin() float64
	GetMax() float64
	SetOnChange(func())
	InRange() bool
	ValueInRange(float64) bool
	String() string
}

// FloatParameterGenerator creates a FloatParameter given a pointer
// to the value and a name.
type FloatParameterGenerator func(*float64, string) FloatParameter

// FloatParameters is a collection of parameters.
type FloatParameters []FloatParameter

// Append adds a parameter to the collection.
func (p *FloatParameters) Append(par FloatParameter) {
	*p = append(*p, par)
}

// Names returns parameter names, reusing is if given.
func (p *FloatParameters) Names(is []string) (s []string) {
	if is == nil {
		s = make([]string, len(*p))
	} else {
		s = is
	}
	for i, par := range *p {
		s[i] = par.Name()
	}
	return
}

// Values returns parameter values, reusing iv if given.
func (p *FloatParameters) Values(iv []float64) (v []float64) {
	if iv == nil {
		v = make([]float64, len(*p))
	} else {
		v = iv
	}
	for i, par := range *p {
		v[i] = par.Get()
	}
	return
}

// ValuesInRange tests whether all the values are within bounds.
func (p *FloatParameters) ValuesInRange(vals []float64) bool {
	if len(vals) != len(*p) {
		panic("incorrect number of parameters")
	}
	for i, par := range *p {
		if !par.ValueInRange(vals[i]) {
			return false
		}
	}
	return true
}

// SetValues sets all the parameter values.
func (p *FloatParameters) SetValues(v []float64) error {
	if len(v) != len(*p) {
		return errors.New("incorrect number of parameters")
	}
	for i, par := range *p {
		par.Set(v[i])
	}
	return nil
}

// SetByName sets parameter values from a name-value map, ignoring
// unknown names.
func (p *FloatParameters) SetByName(values map[string]float64) {
	for _, par := range *p {
		if v, ok := values[par.Name()]; ok {
			par.Set(v)
		}
	}
}

// Update copies values from another parameter collection.
func (p *FloatParameters) Update(pSrc *FloatParameters) {
	for i := range *p {
		(*p)[i].Set((*pSrc)[i].Get())
	}
}

// Randomize sets all the parameters to uniform random values within
// their bounds.
func (p *FloatParameters) Randomize() {
	for _, par := range *p {
		min := math.Max(MIN, par.GetMin())
		max := math.Min(MAX, par.GetMax())
		d := max - min
		par.Set(min + rand.Float64()*d)
	}
}

// InRange tests whether all the parameters are within bounds.
func (p *FloatParameters) InRange() bool {
	for _, par := range *p {
		if !par.InRange() {
			return false
		}
	}
	return true
}

// NamesString returns tab-separated parameter names.
func (p *FloatParameters) NamesString() (s string) {
	for i, par := range *p {
		if i != 0 {
			s += "\t"
		}
		s += par.Name()
	}
	return
}

// ValuesString returns tab-separated parameter values.
func (p *FloatParameters) ValuesString() (s string) {
	for i, par := range *p {
		if i != 0 {
			s += "\t"
		}
		s += par.String()
	}
	return
}

// ValuesMap returns a name-value map of the current values.
func (p *FloatParameters) ValuesMap() map[string]float64 {
	m := make(map[string]float64, len(*p))
	for _, par := range *p {
		m[par.Name()] = par.Get()
	}
	return m
}

// ReadLine sets parameter values from a trajectory file line
// (iteration and likelihood columns first).
func (p *FloatParameters) ReadLine(l string) error {
	v, err := ReadFloats(l)
	if err != nil {
		return err
	}
	if len(v) < 2 {
		return errors.New("not enough values in the line")
	}
	return p.SetValues(v[2:])
}

// MarshalJSON encodes parameters as a JSON object preserving the
// parameter order.
func (p FloatParameters) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, par := range p {
		if i != 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(par.Name())
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(par.Get())
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON sets parameter values from a JSON object; names
// missing from the object keep their values.
func (p *FloatParameters) UnmarshalJSON(data []byte) error {
	values := make(map[string]float64)
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	p.SetByName(values)
	return nil
}

// ReadFromJSON sets parameter values from a JSON file.
func (p *FloatParameters) ReadFromJSON(filename string) error {
	data, err := ioutil.ReadFile(filename)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, p)
}

// BasicFloatParameter is the default FloatParameter implementation
// wrapping a float64 pointer.
type BasicFloatParameter struct {
	*float64
	name     string
	min      float64
	max      float64
	onChange func()
}

// NewBasicFloatParameter creates a new parameter with infinite
// bounds.
func NewBasicFloatParameter(par *float64, name string) *BasicFloatParameter {
	return &BasicFloatParameter{
		float64: par,
		name:    name,
		min:     math.Inf(-1),
		max:     math.Inf(+1),
	}
}

// BasicFloatParameterGenerator is the FloatParameterGenerator for
// BasicFloatParameter.
func BasicFloatParameterGenerator(par *float64, name string) FloatParameter {
	return NewBasicFloatParameter(par, name)
}

// SetMin sets the lower bound.
func (p *BasicFloatParameter) SetMin(min float64) {
	p.min = min
}

// SetMax sets the upper bound.
func (p *BasicFloatParameter) SetMax(max float64) {
	p.max = max
}

// SetOnChange sets a callback called on every value change.
func (p *BasicFloatParameter) SetOnChange(f func()) {
	p.onChange = f
}

// Get returns the current value.
func (p *BasicFloatParameter) Get() float64 {
	return *p.float64
}

// Set changes the value and calls the onChange callback.
func (p *BasicFloatParameter) Set(v float64) {
	if *p.float64 == v {
		// do nothing if the value has not changed
		return
	}
	*p.float64 = v
	if p.onChange != nil {
		p.onChange()
	}
}

// GetMin returns the lower bound.
func (p *BasicFloatParameter) GetMin() float64 {
	return p.min
}

// GetMax returns the upper bound.
func (p *BasicFloatParameter) GetMax() float64 {
	return p.max
}

// ValueInRange tests whether a value is within bounds.
func (p *BasicFloatParameter) ValueInRange(v float64) bool {
	return v >= p.min && v <= p.max
}

// InRange tests whether the current value is within bounds.
func (p *BasicFloatParameter) InRange() bool {
	return p.ValueInRange(*p.float64)
}

// Name returns the parameter name.
func (p *BasicFloatParameter) Name() string {
	return p.name
}

// String returns the value formatted for the trajectory output.
func (p *BasicFloatParameter) String() string {
	return strconv.FormatFloat(*p.float64, 'f', 6, 64)
}
