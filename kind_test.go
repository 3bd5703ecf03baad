package reflection

import (
	"reflect"
	"strconv"
	"testing"
)

type sampleEnum int16

func TestKindOf(t *testing.T) {
	intKind := KindInt64
	if strconv.IntSize == 32 {
		intKind = KindInt32
	}
	tests := []struct {
		typ  reflect.Type
		want Kind
	}{
		{nil, KindVoid},
		{reflect.TypeFor[bool](), KindBool},
		{reflect.TypeFor[int8](), KindInt8},
		{reflect.TypeFor[uint16](), KindUint16},
		{reflect.TypeFor[int](), intKind},
		{reflect.TypeFor[sampleEnum](), KindInt16},
		{reflect.TypeFor[float32](), KindFloat32},
		{reflect.TypeFor[string](), KindString},
		{reflect.TypeFor[sampleStruct](), KindObject},
		{reflect.TypeFor[*sampleStruct](), KindObject},
		{reflect.TypeFor[[3]float32](), KindObject},
		{reflect.TypeFor[[]int](), KindUnsupported},
		{reflect.TypeFor[map[string]int](), KindUnsupported},
		{reflect.TypeFor[*int](), KindUnsupported},
		{reflect.TypeFor[func()](), KindUnsupported},
	}
	for _, tt := range tests {
		if got := KindOf(tt.typ); got != tt.want {
			t.Errorf("KindOf(%v) = %s, want %s", tt.typ, got, tt.want)
		}
	}
}

func TestKindPredicates(t *testing.T) {
	if !KindUint64.IsInteger() || KindFloat32.IsInteger() {
		t.Error("IsInteger mismatch")
	}
	if !KindFloat64.IsNumber() || KindString.IsNumber() || KindBool.IsNumber() {
		t.Error("IsNumber mismatch")
	}
}

func TestDispatchTablesCoverEveryKind(t *testing.T) {
	for k := KindBool; k <= KindObject; k++ {
		if parameterGetters[k] == nil {
			t.Errorf("no parameter getter for %s", k)
		}
		if resultSetters[k] == nil {
			t.Errorf("no result setter for %s", k)
		}
	}
}

type SampleBase struct{ ID int32 }

type derivedValue struct {
	SampleBase
	Name string
}

type derivedPointer struct {
	*SampleBase
	Name string
}

func TestAdaptObject(t *testing.T) {
	v := sampleStruct{X: 1, Y: 2}

	got, err := adaptObject(&v, reflect.TypeFor[sampleStruct]())
	if err != nil || got.Interface() != v {
		t.Errorf("expected dereferenced value, got %v, %v", got, err)
	}

	got, err = adaptObject(v, reflect.TypeFor[*sampleStruct]())
	if err != nil || *got.Interface().(*sampleStruct) != v {
		t.Errorf("expected boxed value, got %v, %v", got, err)
	}

	d := &derivedValue{SampleBase: SampleBase{ID: 7}}
	got, err = adaptObject(d, reflect.TypeFor[*SampleBase]())
	if err != nil || got.Interface().(*SampleBase) != &d.SampleBase {
		t.Errorf("expected pointer to embedded base, got %v, %v", got, err)
	}

	p := &derivedPointer{SampleBase: &SampleBase{ID: 9}}
	got, err = adaptObject(p, reflect.TypeFor[SampleBase]())
	if err != nil || got.Interface().(SampleBase).ID != 9 {
		t.Errorf("expected dereferenced embedded pointer, got %v, %v", got, err)
	}
	got, err = adaptObject(derivedPointer{SampleBase: p.SampleBase}, reflect.TypeFor[*SampleBase]())
	if err != nil || got.Interface().(*SampleBase) != p.SampleBase {
		t.Errorf("expected embedded pointer, got %v, %v", got, err)
	}
	if _, err := adaptObject(&derivedPointer{}, reflect.TypeFor[SampleBase]()); !IsCode(err, CodeInvalidArgument) {
		t.Errorf("expected invalid argument for nil embedded pointer, got %v", err)
	}

	if _, err := adaptObject("text", reflect.TypeFor[sampleStruct]()); !IsCode(err, CodeInvalidArgument) {
		t.Errorf("expected invalid argument, got %v", err)
	}
	if _, err := adaptObject(nil, reflect.TypeFor[sampleStruct]()); !IsCode(err, CodeInvalidArgument) {
		t.Errorf("expected invalid argument for nil value, got %v", err)
	}
}
