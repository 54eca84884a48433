package rag

import (
	"github.com/recollect/recollect/rag/interfaces"
	"github.com/recollect/recollect/rag/types"
)

// Engine is an alias for interfaces.Engine
type Engine = interfaces.Engine

// Result is an alias for types.Result
type Result = types.Result

// Mode is an alias for types.Mode
type Mode = types.Mode
