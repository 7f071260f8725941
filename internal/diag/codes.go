package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// I/O
	IOInfo          Code = 1000
	IOLoadFileError Code = 1001
	IOSnapshot      Code = 1002
	IOConfig        Code = 1003

	// reader
	RdrInfo        Code = 2000
	RdrSyntax      Code = 2001
	RdrInvalidUTF8 Code = 2002

	// kernel
	KrnInfo                   Code = 4000
	KrnUnboundVariable        Code = 4001
	KrnUnknownConstant        Code = 4002
	KrnTypeMismatch           Code = 4003
	KrnNotAFunction           Code = 4004
	KrnNotASort               Code = 4005
	KrnUniverseArityMismatch  Code = 4006
	KrnUnknownUniverseParam   Code = 4007
	KrnUnresolvedMetavariable Code = 4008
	KrnFuelExhausted          Code = 4009
	KrnDuplicateDeclaration   Code = 4010

	// elaboration
	ElbInfo                   Code = 5000
	ElbUnknownIdentifier      Code = 5001
	ElbUnknownUniverse        Code = 5002
	ElbUniverseArity          Code = 5003
	ElbCannotInferHoleType    Code = 5004
	ElbLiteralTooLarge        Code = 5005
	ElbUnresolvedMetavariable Code = 5006
	ElbInvalidDecl            Code = 5007
	ElbTypeError              Code = 5008
	ElbOccursCheck            Code = 5009
	ElbScopeEscape            Code = 5010
	ElbUniverseMismatch       Code = 5011

	// observability
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:               "Unknown error",
		IOInfo:                    "I/O information",
		IOLoadFileError:           "I/O load file error",
		IOSnapshot:                "Snapshot cannot be read or written",
		IOConfig:                  "Invalid configuration file",
		RdrInfo:                   "Reader information",
		RdrSyntax:                 "Malformed s-expression",
		RdrInvalidUTF8:            "Source is not valid UTF-8",
		KrnInfo:                   "Kernel information",
		KrnUnboundVariable:        "Unbound variable",
		KrnUnknownConstant:        "Unknown constant",
		KrnTypeMismatch:           "Type mismatch",
		KrnNotAFunction:           "Applied term is not a function",
		KrnNotASort:               "Expected a type",
		KrnUniverseArityMismatch:  "Wrong number of universe arguments",
		KrnUnknownUniverseParam:   "Undeclared universe parameter",
		KrnUnresolvedMetavariable: "Metavariable reached the kernel",
		KrnFuelExhausted:          "Reduction budget exhausted",
		KrnDuplicateDeclaration:   "Duplicate declaration",
		ElbInfo:                   "Elaboration information",
		ElbUnknownIdentifier:      "Unknown identifier",
		ElbUnknownUniverse:        "Unknown universe parameter",
		ElbUniverseArity:          "Wrong number of explicit universe levels",
		ElbCannotInferHoleType:    "Cannot infer the type of a placeholder",
		ElbLiteralTooLarge:        "Numeric literal too large",
		ElbUnresolvedMetavariable: "Cannot infer placeholder",
		ElbInvalidDecl:            "Malformed declaration",
		ElbTypeError:              "Type error",
		ElbOccursCheck:            "Solution would be cyclic",
		ElbScopeEscape:            "Solution mentions a variable out of scope",
		ElbUniverseMismatch:       "Universe levels do not match",
		ObsInfo:                   "Observability information",
		ObsTimings:                "Pipeline timings",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RDR%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("KRN%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("ELB%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
