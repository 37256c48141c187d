package executor

import (
	"fmt"
	"reflect"
	"strconv"

	"github.com/anuragh27crony/gobdd/internal/event"
)

// invokeGuarded runs f and converts a recovered panic into a *event.PanicError,
// mirroring how invokeStep guards step callbacks below.
func invokeGuarded(f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &event.PanicError{Payload: stringifyRecover(r)}
		}
	}()
	return f()
}

// invokeStep calls a registered step callback via reflection, converting the
// matched captures to the callback's declared parameter types. The callback
// always receives world as its first argument (spec §4.1: "A step
// definition's first parameter is always the World value").
//
// This generalizes the teacher's reflect.ValueOf(def.f).Call(...) dispatch
// (stepDef.run) to gobdd's wider set of declared argument kinds and to
// string captures rather than [][]byte ones.
func invokeStep(callback interface{}, world interface{}, captures []string, named map[string]string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &event.PanicError{Payload: stringifyRecover(r)}
		}
	}()

	fn := reflect.ValueOf(callback)
	fnType := fn.Type()

	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("step callback is not a function: %T", callback)
	}

	wantArgs := fnType.NumIn()
	if wantArgs < 1 {
		return fmt.Errorf("step callback must accept at least the world argument")
	}
	if wantArgs-1 != len(captures) {
		return fmt.Errorf("step callback accepts %d arguments but %d were captured", wantArgs-1, len(captures))
	}

	in := make([]reflect.Value, 0, wantArgs)
	in = append(in, reflect.ValueOf(world))

	for i, raw := range captures {
		argType := fnType.In(i + 1)
		v, convErr := convertCapture(raw, argType)
		if convErr != nil {
			return &event.ArgParseError{Arg: raw, Type: argType.String(), Cause: convErr}
		}
		in = append(in, v)
	}

	out := fn.Call(in)
	for _, o := range out {
		if e, ok := o.Interface().(error); ok && e != nil {
			return &event.UserError{Cause: e}
		}
	}
	return nil
}

// convertCapture converts one captured substring to the declared parameter
// type: string, int, int64, float32, float64 or bool (spec §4.1).
func convertCapture(raw string, t reflect.Type) (reflect.Value, error) {
	switch t.Kind() {
	case reflect.String:
		return reflect.ValueOf(raw), nil
	case reflect.Int, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(t).Elem()
		v.SetInt(n)
		return v, nil
	case reflect.Float32, reflect.Float64:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return reflect.Value{}, err
		}
		v := reflect.New(t).Elem()
		v.SetFloat(n)
		return v, nil
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, err
		}
		return reflect.ValueOf(b), nil
	default:
		return reflect.Value{}, fmt.Errorf("unsupported step argument type %s", t.String())
	}
}

func stringifyRecover(r interface{}) string {
	if err, ok := r.(error); ok {
		return err.Error()
	}
	return fmt.Sprintf("%v", r)
}
