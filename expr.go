// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tengu

import (
	"github.com/born-ml/tengu/internal/graph"
	"github.com/born-ml/tengu/internal/tensor"
)

// IOType is the set of element types that can be moved between the host and
// a backend.
type IOType = tensor.IOType

// StorageType is IOType plus bool. Bool tensors reach the host as uint32.
type StorageType = tensor.StorageType

// Shape is a tensor shape.
type Shape = tensor.Shape

// DataType identifies an element type at runtime.
type DataType = tensor.DataType

// Element types.
const (
	Float32 = tensor.Float32
	Uint32  = tensor.Uint32
	Int32   = tensor.Int32
	Bool    = tensor.Bool
)

// Unify returns the broadcast shape of a and b.
func Unify(a, b Shape) (Shape, error) {
	return tensor.Unify(a, b)
}

type (
	// Expr is a typed tensor expression.
	Expr[T StorageType] = graph.Expr[T]
	// Expression is an Expr of any element type.
	Expression = graph.Expression
	// Builder creates tensors of one shape.
	Builder = graph.Builder
	// Sampler draws values for Random.
	Sampler = graph.Sampler
	// Graph is a set of blocks and links.
	Graph = graph.Graph
	// Block is a named group of statements.
	Block = graph.Block
	// Link copies a tensor of one block into another after every compute.
	Link = graph.Link
	// Probe receives the latest values of a tensor.
	Probe[T IOType] = graph.Probe[T]
)

// Scalar returns a literal that broadcasts against any shape.
func Scalar[T StorageType](v T) Expr[T] { return graph.Scalar(v) }

// Cast converts e to element type U.
func Cast[U, T StorageType](e Expr[T]) Expr[U] { return graph.Cast[U](e) }

// Zero creates a zero-initialized tensor.
func Zero[T StorageType](b *Builder) Expr[T] { return graph.Zero[T](b) }

// Init creates a tensor holding data.
func Init[T IOType](b *Builder, data []T) Expr[T] { return graph.Init(b, data) }

// Random creates a tensor of samples drawn from s.
func Random[T IOType](b *Builder, s Sampler) Expr[T] { return graph.Random[T](b, s) }

// Uniform creates a tensor of uniform samples on [low, high).
func Uniform[T IOType](b *Builder, low, high T) (Expr[T], error) {
	return graph.Uniform(b, low, high)
}

// Normal creates a tensor of normal samples.
func Normal[T IOType](b *Builder, mean, stddev T) (Expr[T], error) {
	return graph.Normal(b, mean, stddev)
}

// AddProbe subscribes to the tensor at path ("block/tensor").
func AddProbe[T IOType](g *Graph, path string) (*Probe[T], error) {
	return graph.AddProbe[T](g, path)
}
