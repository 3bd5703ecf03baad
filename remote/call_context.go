package remote

import (
	"encoding/json"
	"reflect"

	"github.com/mge-engine/reflection"
)

// jsonCallContext reads parameters from JSON encoded arguments. Objects
// travel by value: an object argument is decoded into a fresh instance of
// the parameter type.
type jsonCallContext struct {
	args   []json.RawMessage
	result any
	err    error
}

var _ reflection.CallContext = (*jsonCallContext)(nil)

func newJSONCallContext(args []json.RawMessage) *jsonCallContext {
	return &jsonCallContext{args: args}
}

func decodeParameter[T any](c *jsonCallContext, position int) (T, error) {
	var v T
	if position < 0 || position >= len(c.args) {
		return v, reflection.Errorf(reflection.CodeInvalidArgument, "missing argument %d", position)
	}
	if err := json.Unmarshal(c.args[position], &v); err != nil {
		return v, reflection.Errorf(reflection.CodeInvalidArgument, "argument %d: %v", position, err)
	}
	return v, nil
}

func (c *jsonCallContext) BoolParameter(p int) (bool, error)       { return decodeParameter[bool](c, p) }
func (c *jsonCallContext) Int8Parameter(p int) (int8, error)       { return decodeParameter[int8](c, p) }
func (c *jsonCallContext) Uint8Parameter(p int) (uint8, error)     { return decodeParameter[uint8](c, p) }
func (c *jsonCallContext) Int16Parameter(p int) (int16, error)     { return decodeParameter[int16](c, p) }
func (c *jsonCallContext) Uint16Parameter(p int) (uint16, error)   { return decodeParameter[uint16](c, p) }
func (c *jsonCallContext) Int32Parameter(p int) (int32, error)     { return decodeParameter[int32](c, p) }
func (c *jsonCallContext) Uint32Parameter(p int) (uint32, error)   { return decodeParameter[uint32](c, p) }
func (c *jsonCallContext) Int64Parameter(p int) (int64, error)     { return decodeParameter[int64](c, p) }
func (c *jsonCallContext) Uint64Parameter(p int) (uint64, error)   { return decodeParameter[uint64](c, p) }
func (c *jsonCallContext) Float32Parameter(p int) (float32, error) { return decodeParameter[float32](c, p) }
func (c *jsonCallContext) Float64Parameter(p int) (float64, error) { return decodeParameter[float64](c, p) }
func (c *jsonCallContext) StringParameter(p int) (string, error)   { return decodeParameter[string](c, p) }

func (c *jsonCallContext) ObjectParameter(position int, t reflect.Type) (any, error) {
	raw, err := decodeParameter[json.RawMessage](c, position)
	if err != nil {
		return nil, err
	}
	if string(raw) == "null" {
		return nil, nil
	}
	elem := t
	if elem.Kind() == reflect.Ptr {
		elem = elem.Elem()
	}
	p := reflect.New(elem)
	if err := json.Unmarshal(raw, p.Interface()); err != nil {
		return nil, reflection.Errorf(reflection.CodeInvalidArgument, "argument %d: %v", position, err)
	}
	return p.Interface(), nil
}

// This fails: remote calls only reach free functions.
func (c *jsonCallContext) This() (any, error) {
	return nil, reflection.NewError(reflection.CodeIllegalState, "remote calls have no receiver")
}

func (c *jsonCallContext) store(v any) { c.result = v }

func (c *jsonCallContext) StoreBoolResult(v bool)       { c.store(v) }
func (c *jsonCallContext) StoreInt8Result(v int8)       { c.store(v) }
func (c *jsonCallContext) StoreUint8Result(v uint8)     { c.store(v) }
func (c *jsonCallContext) StoreInt16Result(v int16)     { c.store(v) }
func (c *jsonCallContext) StoreUint16Result(v uint16)   { c.store(v) }
func (c *jsonCallContext) StoreInt32Result(v int32)     { c.store(v) }
func (c *jsonCallContext) StoreUint32Result(v uint32)   { c.store(v) }
func (c *jsonCallContext) StoreInt64Result(v int64)     { c.store(v) }
func (c *jsonCallContext) StoreUint64Result(v uint64)   { c.store(v) }
func (c *jsonCallContext) StoreFloat32Result(v float32) { c.store(v) }
func (c *jsonCallContext) StoreFloat64Result(v float64) { c.store(v) }
func (c *jsonCallContext) StoreStringResult(v string)   { c.store(v) }
func (c *jsonCallContext) StoreObjectResult(v any)      { c.store(v) }

func (c *jsonCallContext) ExceptionThrown(err error) {
	if c.err == nil {
		c.err = err
	}
}
