// Package format renders reflected PHP declarations as tab-separated lines
// or JSON.
package format

import (
	"encoding"

	"github.com/dhamidi/phpreflect/php"
)

type Encoder interface {
	encoding.TextMarshaler
	Encode(class php.ClassInfo) error
	EncodeFunction(fn php.FunctionInfo) error
	EncodeConstant(k php.ConstantInfo) error
}
