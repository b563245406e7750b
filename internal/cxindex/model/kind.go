package model

// SymbolKind is the coarse entity taxonomy used inside the core (spec §3).
type SymbolKind int

const (
	SymbolInvalid SymbolKind = iota
	SymbolFile
	SymbolType
	SymbolFunc
	SymbolVar
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolFile:
		return "File"
	case SymbolType:
		return "Type"
	case SymbolFunc:
		return "Func"
	case SymbolVar:
		return "Var"
	default:
		return "Invalid"
	}
}

// LsSymbolKind is the richer editor-facing taxonomy (spec §3).
type LsSymbolKind int

const (
	LsUnknown LsSymbolKind = iota
	LsClass
	LsStruct
	LsMethod
	LsConstructor
	LsDestructor
	LsFunction
	LsField
	LsVariable
	LsParameter
	LsNamespace
	LsEnum
	LsEnumMember
	LsTypeAlias
	LsMacro
	LsUnion
	LsInterface
)

func (k LsSymbolKind) String() string {
	switch k {
	case LsClass:
		return "Class"
	case LsStruct:
		return "Struct"
	case LsMethod:
		return "Method"
	case LsConstructor:
		return "Constructor"
	case LsDestructor:
		return "Destructor"
	case LsFunction:
		return "Function"
	case LsField:
		return "Field"
	case LsVariable:
		return "Variable"
	case LsParameter:
		return "Parameter"
	case LsNamespace:
		return "Namespace"
	case LsEnum:
		return "Enum"
	case LsEnumMember:
		return "EnumMember"
	case LsTypeAlias:
		return "TypeAlias"
	case LsMacro:
		return "Macro"
	case LsUnion:
		return "Union"
	case LsInterface:
		return "Interface"
	default:
		return "Unknown"
	}
}

// StorageClass mirrors the C storage-class specifiers (spec §3).
type StorageClass int

const (
	StorageInvalid StorageClass = iota
	StorageNone
	StorageExtern
	StorageStatic
	StoragePrivateExtern
	StorageAuto
	StorageRegister
)

func (s StorageClass) String() string {
	switch s {
	case StorageNone:
		return "None"
	case StorageExtern:
		return "Extern"
	case StorageStatic:
		return "Static"
	case StoragePrivateExtern:
		return "PrivateExtern"
	case StorageAuto:
		return "Auto"
	case StorageRegister:
		return "Register"
	default:
		return "Invalid"
	}
}

// Role is a bitset describing what kind of usage an occurrence is (spec §3).
type Role uint32

const RoleNone Role = 0

const (
	RoleDeclaration Role = 1 << iota
	RoleDefinition
	RoleReference
	RoleRead
	RoleWrite
	RoleCall
	RoleDynamic
	RoleAddress
	RoleImplicit
)

// Has reports whether r includes every bit set in mask.
func (r Role) Has(mask Role) bool {
	return r&mask == mask
}

// Any reports whether r includes at least one bit set in mask.
func (r Role) Any(mask Role) bool {
	return r&mask != 0
}
