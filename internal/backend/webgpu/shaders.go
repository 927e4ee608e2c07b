package webgpu

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/born-ml/tengu/internal/gpu"
	"github.com/born-ml/tengu/internal/tensor"
)

// workgroupSize is the number of invocations per workgroup in x.
const workgroupSize = 64

// shaderBody wraps the statement lines of a block.
const shaderBody = `@compute
@workgroup_size(64)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    %s
}`

// declaration renders the storage binding of one tensor. Bool is not
// host-shareable in WGSL, so bool tensors are stored as u32 words.
func declaration(binding int, label string, usage gpu.Usage, dtype tensor.DataType) string {
	return fmt.Sprintf("@group(0) @binding(%d) var<storage, %s> %s: array<%s>;",
		binding, usage.Access(), label, dtype.Host().WGSL())
}

// shaderModule joins declarations and statement lines into a WGSL module.
func shaderModule(declarations, statements []string) string {
	header := strings.Join(declarations, "\n")
	body := fmt.Sprintf(shaderBody, strings.Join(statements, "\n    "))
	return header + "\n\n" + body
}

// workgroups returns the number of workgroups covering count invocations.
func workgroups(count int) uint32 {
	return uint32((count + workgroupSize - 1) / workgroupSize) //nolint:gosec // counts are positive
}

// indexExpr renders the element of label read for output index idx, where
// the tensor has shape in and the statement writes shape out.
func indexExpr(label string, in, out tensor.Shape) string {
	switch {
	case in.Equal(out):
		return label + "[idx]"
	case in.NumElements() == 1:
		return label + "[0u]"
	}

	outStrides := out.ComputeStrides()
	inStrides := tensor.BroadcastStrides(in, out)

	var terms []string
	for i := range out {
		if inStrides[i] == 0 {
			continue
		}

		var coord string
		switch {
		case i == 0 && outStrides[i] == 1:
			coord = "idx"
		case i == 0:
			coord = fmt.Sprintf("(idx / %du)", outStrides[i])
		case outStrides[i] == 1:
			coord = fmt.Sprintf("(idx %% %du)", out[i])
		default:
			coord = fmt.Sprintf("((idx / %du) %% %du)", outStrides[i], out[i])
		}

		if inStrides[i] == 1 {
			terms = append(terms, coord)
		} else {
			terms = append(terms, fmt.Sprintf("%s * %du", coord, inStrides[i]))
		}
	}

	return label + "[" + strings.Join(terms, " + ") + "]"
}

// literal renders a scalar value as a WGSL expression.
func literal(v any) string {
	switch x := v.(type) {
	case float32:
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return fmt.Sprintf("bitcast<f32>(0x%08xu)", math.Float32bits(x))
		}
		s := strconv.FormatFloat(float64(x), 'g', -1, 32)
		if !strings.ContainsAny(s, ".e") {
			s += ".0"
		}
		return s
	case uint32:
		return strconv.FormatUint(uint64(x), 10) + "u"
	case int32:
		if x == math.MinInt32 {
			// 2147483648i is out of range as a literal.
			return "bitcast<i32>(0x80000000u)"
		}
		return strconv.FormatInt(int64(x), 10) + "i"
	case bool:
		return strconv.FormatBool(x)
	default:
		panic(fmt.Sprintf("literal: unsupported type %T", v))
	}
}
