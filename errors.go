// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tengu

import (
	"github.com/born-ml/tengu/internal/backend"
	"github.com/born-ml/tengu/internal/graph"
)

// Error is the error type returned by graph operations.
type Error = graph.Error

// Errors matched by errors.Is.
var (
	ErrBlockAlreadyExists = graph.ErrBlockAlreadyExists
	ErrBlockNotFound      = graph.ErrBlockNotFound
	ErrSourceNotFound     = graph.ErrSourceNotFound
	ErrInvalidLinkPath    = graph.ErrInvalidLinkPath
	ErrTypeMismatch       = graph.ErrTypeMismatch
	ErrShapeMismatch      = graph.ErrShapeMismatch
	ErrParameter          = graph.ErrParameter
	ErrBackend            = graph.ErrBackend
	ErrTensor             = graph.ErrTensor
	ErrChannelClosed      = graph.ErrChannelClosed
	ErrBufferLimit        = backend.ErrBufferLimit
	ErrUnavailable        = backend.ErrUnavailable
)
