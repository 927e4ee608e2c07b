package tensor

import (
	"errors"
	"math"
	"testing"
)

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

// DType Tests

func TestDataTypeSize(t *testing.T) {
	for _, dt := range []DataType{Float32, Uint32, Int32, Bool} {
		if got := dt.Size(); got != 4 {
			t.Errorf("%s.Size() = %d, want 4", dt, got)
		}
	}
}

func TestDataTypeString(t *testing.T) {
	tests := []struct {
		dtype DataType
		str   string
		wgsl  string
	}{
		{Float32, "float32", "f32"},
		{Uint32, "uint32", "u32"},
		{Int32, "int32", "i32"},
		{Bool, "bool", "bool"},
	}

	for _, tt := range tests {
		if got := tt.dtype.String(); got != tt.str {
			t.Errorf("%s.String() = %q, want %q", tt.dtype, got, tt.str)
		}
		if got := tt.dtype.WGSL(); got != tt.wgsl {
			t.Errorf("%s.WGSL() = %q, want %q", tt.dtype, got, tt.wgsl)
		}
	}
}

func TestDataTypeHost(t *testing.T) {
	if Bool.Host() != Uint32 {
		t.Errorf("Bool.Host() = %v, want Uint32", Bool.Host())
	}
	if Float32.Host() != Float32 {
		t.Errorf("Float32.Host() = %v, want Float32", Float32.Host())
	}
}

func TestOf(t *testing.T) {
	if dt := Of[float32](); dt != Float32 {
		t.Errorf("Of[float32]() = %v, want Float32", dt)
	}
	if dt := Of[uint32](); dt != Uint32 {
		t.Errorf("Of[uint32]() = %v, want Uint32", dt)
	}
	if dt := Of[int32](); dt != Int32 {
		t.Errorf("Of[int32]() = %v, want Int32", dt)
	}
	if dt := Of[bool](); dt != Bool {
		t.Errorf("Of[bool]() = %v, want Bool", dt)
	}
}

// Shape Tests

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{5}, 5},
		{Shape{2, 3}, 6},
		{Shape{4, 2, 3}, 24},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("Validate() unexpected error: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("Validate() expected error for zero dimension")
	}
}

func TestUnify(t *testing.T) {
	tests := []struct {
		name string
		a, b Shape
		want Shape
	}{
		{"equal", Shape{2, 2}, Shape{2, 2}, Shape{2, 2}},
		{"rank 3 and 2", Shape{4, 1, 3}, Shape{2, 3}, Shape{4, 2, 3}},
		{"column and row", Shape{3, 1}, Shape{1, 5}, Shape{3, 5}},
		{"singleton", Shape{1}, Shape{2, 2}, Shape{2, 2}},
		{"surplus leading", Shape{7, 2, 3}, Shape{3}, Shape{7, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Unify(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Unify(%v, %v) unexpected error: %v", tt.a, tt.b, err)
			}
			assertEqualShape(t, tt.want, got, "Unify")
			if got.NumElements() != tt.want.NumElements() {
				t.Errorf("count = %d, want %d", got.NumElements(), tt.want.NumElements())
			}

			// Symmetry.
			rev, err := Unify(tt.b, tt.a)
			if err != nil {
				t.Fatalf("Unify(%v, %v) unexpected error: %v", tt.b, tt.a, err)
			}
			assertEqualShape(t, got, rev, "Unify symmetry")
		})
	}
}

func TestUnifyIdentity(t *testing.T) {
	shapes := []Shape{{1}, {3}, {2, 3}, {4, 2, 3}}
	for _, s := range shapes {
		got, err := Unify(s, s)
		if err != nil {
			t.Fatalf("Unify(%v, %v) unexpected error: %v", s, s, err)
		}
		assertEqualShape(t, s, got, "Unify(s, s)")

		ones := make(Shape, len(s))
		for i := range ones {
			ones[i] = 1
		}
		got, err = Unify(s, ones)
		if err != nil {
			t.Fatalf("Unify(%v, %v) unexpected error: %v", s, ones, err)
		}
		assertEqualShape(t, s, got, "Unify(s, ones)")
	}
}

func TestUnifyMismatch(t *testing.T) {
	tests := []struct{ a, b Shape }{
		{Shape{3, 4}, Shape{3, 5}},
		{Shape{2}, Shape{3}},
		{Shape{4, 2, 3}, Shape{5, 3}},
	}

	for _, tt := range tests {
		if _, err := Unify(tt.a, tt.b); !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("Unify(%v, %v) error = %v, want ErrShapeMismatch", tt.a, tt.b, err)
		}
		if _, err := Unify(tt.b, tt.a); !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("Unify(%v, %v) error = %v, want ErrShapeMismatch", tt.b, tt.a, err)
		}
	}
}

func TestBroadcastIndex(t *testing.T) {
	out := Shape{2, 3}
	outStrides := out.ComputeStrides()

	row := BroadcastStrides(Shape{3}, out)
	col := BroadcastStrides(Shape{2, 1}, out)

	wantRow := []int{0, 1, 2, 0, 1, 2}
	wantCol := []int{0, 0, 0, 1, 1, 1}
	for i := 0; i < out.NumElements(); i++ {
		if got := FlatIndex(i, outStrides, row); got != wantRow[i] {
			t.Errorf("row index %d = %d, want %d", i, got, wantRow[i])
		}
		if got := FlatIndex(i, outStrides, col); got != wantCol[i] {
			t.Errorf("col index %d = %d, want %d", i, got, wantCol[i])
		}
	}
}

// Cast Tests

func TestCastWord(t *testing.T) {
	f := func(v float32) uint32 { return math.Float32bits(v) }
	i := func(v int32) uint32 { return uint32(v) } //nolint:gosec // reinterpretation

	tests := []struct {
		name     string
		w        uint32
		from, to DataType
		want     uint32
	}{
		{"f32 to u32 truncates", f(4.9), Float32, Uint32, 4},
		{"f32 to i32 negative", f(-2.5), Float32, Int32, i(-2)},
		{"f32 to bool non-zero", f(0.5), Float32, Bool, 1},
		{"f32 zero to bool", f(0), Float32, Bool, 0},
		{"u32 to f32", 7, Uint32, Float32, f(7)},
		{"i32 to f32", i(-3), Int32, Float32, f(-3)},
		{"i32 to bool", i(-3), Int32, Bool, 1},
		{"bool to f32", 1, Bool, Float32, f(1)},
		{"bool false to i32", 0, Bool, Int32, 0},
		{"bool to u32", 1, Bool, Uint32, 1},
		{"identity", 42, Uint32, Uint32, 42},
		{"f32 -1 to u32 saturates", f(-1), Float32, Uint32, 0},
		{"f32 NaN to u32", f(float32(math.NaN())), Float32, Uint32, 0},
		{"f32 5e9 to u32 saturates", f(5e9), Float32, Uint32, math.MaxUint32},
		{"f32 -5e9 to u32 saturates", f(-5e9), Float32, Uint32, 0},
		{"f32 -1 to i32", f(-1), Float32, Int32, i(-1)},
		{"f32 NaN to i32", f(float32(math.NaN())), Float32, Int32, 0},
		{"f32 5e9 to i32 saturates", f(5e9), Float32, Int32, i(math.MaxInt32)},
		{"f32 -5e9 to i32 saturates", f(-5e9), Float32, Int32, i(math.MinInt32)},
		{"f32 +Inf to u32", f(float32(math.Inf(1))), Float32, Uint32, math.MaxUint32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CastWord(tt.w, tt.from, tt.to); got != tt.want {
				t.Errorf("CastWord(%#x, %s, %s) = %#x, want %#x", tt.w, tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestFromFloat(t *testing.T) {
	if got := FromFloat[uint32](-3.5); got != 0 {
		t.Errorf("FromFloat[uint32](-3.5) = %d, want 0", got)
	}
	if got := FromFloat[uint32](7.9); got != 7 {
		t.Errorf("FromFloat[uint32](7.9) = %d, want 7", got)
	}
	if got := FromFloat[int32](-1e12); got != math.MinInt32 {
		t.Errorf("FromFloat[int32](-1e12) = %d, want MinInt32", got)
	}
	if got := FromFloat[int32](math.NaN()); got != 0 {
		t.Errorf("FromFloat[int32](NaN) = %d, want 0", got)
	}
	if got := FromFloat[float32](1.5); got != 1.5 {
		t.Errorf("FromFloat[float32](1.5) = %v, want 1.5", got)
	}
}

func TestWord(t *testing.T) {
	if Word(true) != 1 || Word(false) != 0 {
		t.Error("Word(bool) should map to 0/1")
	}
	if Word(float32(1.5)) != math.Float32bits(1.5) {
		t.Error("Word(float32) should be the IEEE bits")
	}
	if Word(int32(-1)) != math.MaxUint32 {
		t.Error("Word(int32(-1)) should be all ones")
	}
}

// Buffer Tests

func TestBytesRoundTrip(t *testing.T) {
	data := []int32{1, -2, 3, -4}
	raw := ToBytes(data)
	if len(raw) != 16 {
		t.Fatalf("len(ToBytes) = %d, want 16", len(raw))
	}
	got := FromBytes[int32](raw)
	for i := range data {
		if got[i] != data[i] {
			t.Errorf("FromBytes[%d] = %d, want %d", i, got[i], data[i])
		}
	}

	// View aliases the buffer.
	View[int32](raw)[0] = 9
	if FromBytes[int32](raw)[0] != 9 {
		t.Error("View should alias the underlying buffer")
	}
}

func TestBoolWords(t *testing.T) {
	got := BoolWords([]bool{true, false, true})
	want := []uint32{1, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("BoolWords[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

// Label Tests

func TestNewLabel(t *testing.T) {
	for range 32 {
		label := NewLabel()
		if len(label) != LabelLength {
			t.Fatalf("len(%q) = %d, want %d", label, len(label), LabelLength)
		}
		for _, c := range label {
			if (c < 'a' || c > 'z') && (c < 'A' || c > 'Z') {
				t.Fatalf("label %q contains non-alphabetic %q", label, c)
			}
		}
	}
}

func TestValidateLabel(t *testing.T) {
	tests := []struct {
		label string
		valid bool
	}{
		{"x", true},
		{"pos_2", true},
		{"_tmp", true},
		{"Velocity", true},
		{"", false},
		{"_", false},
		{"__x", false},
		{"2x", false},
		{"a-b", false},
		{"walk/pos", false},
		{"héllo", false},
		{"idx", false},
		{"main", false},
		{"global_id", false},
		{"fn", false},
		{"var", false},
		{"f32", false},
		{"exp", false},
		{"target", false},
	}
	for _, tt := range tests {
		err := ValidateLabel(tt.label)
		if tt.valid && err != nil {
			t.Errorf("ValidateLabel(%q) = %v, want nil", tt.label, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidLabel) {
			t.Errorf("ValidateLabel(%q) = %v, want ErrInvalidLabel", tt.label, err)
		}
	}
}

func TestNewLabelIsValid(t *testing.T) {
	for range 64 {
		if label := NewLabel(); ValidateLabel(label) != nil {
			t.Fatalf("NewLabel() = %q is not a valid label", label)
		}
	}
}
