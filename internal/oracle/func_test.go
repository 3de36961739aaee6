package oracle

import (
	"context"
	"testing"

	"google.golang.org/protobuf/types/known/structpb"
)

func TestFuncRuntimeLifecycle(t *testing.T) {
	rt := NewFuncRuntime(2, func(ctx context.Context, x []float64) (Values, error) {
		return Values{"sum": x[0] + x[1]}, nil
	})
	ctx := context.Background()

	if err := rt.Run(ctx); err == nil {
		t.Error("Run before Setup should fail")
	}
	if err := rt.Setup(ctx, []float64{1}); err == nil {
		t.Error("Setup with wrong arity should fail")
	}
	if err := rt.Setup(ctx, []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	if err := rt.Run(ctx); err != nil {
		t.Fatal(err)
	}
	out, err := rt.Output(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := out.Value("sum"); v != 3 {
		t.Errorf("sum = %v, want 3", v)
	}
	if _, err := out.Value("missing"); err == nil {
		t.Error("missing field should fail")
	}
	if err := rt.Reset(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := rt.Output(ctx); err == nil {
		t.Error("Output after Reset should fail")
	}
}

func TestStructConversions(t *testing.T) {
	s := ValuesToStruct(map[string]float64{"total_revenue": 12.5})
	s.Fields["label"] = structpb.NewStringValue("ignored")
	v := StructToValues(s)
	if len(v) != 1 || v["total_revenue"] != 12.5 {
		t.Errorf("StructToValues = %v", v)
	}

	x, ok := ListToFloats(FloatsToList([]float64{0.5, 60, 70}))
	if !ok || len(x) != 3 || x[1] != 60 {
		t.Errorf("ListToFloats = %v, %v", x, ok)
	}
	bad := &structpb.ListValue{Values: []*structpb.Value{structpb.NewBoolValue(true)}}
	if _, ok := ListToFloats(bad); ok {
		t.Error("non-numeric element should fail")
	}
	if FullMethod(methodRun) != "/simopt.oracle.v1.OracleService/Run" {
		t.Errorf("FullMethod = %q", FullMethod(methodRun))
	}
}
