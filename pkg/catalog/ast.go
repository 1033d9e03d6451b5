package catalog

import "github.com/alecthomas/participle/v2/lexer"

// File is a parsed catalog document: an unordered mix of family and mcu
// declarations.
type File struct {
	Decls []*Decl `@@*`
}

// Decl is a single top-level declaration.
type Decl struct {
	Family *FamilyDecl `  @@`
	MCU    *MCUDecl    `| @@`
}

// FamilyDecl declares the attributes shared by every part of a family.
// Example: family STM32F4 { vendor = "STMicroelectronics"; target = "thumbv7em-none-eabihf"; }
type FamilyDecl struct {
	Pos   lexer.Position
	Name  string      `KwFamily @Ident LBrace`
	Props []*Property `@@* RBrace`
}

// MCUDecl declares a single orderable part.
// Example: mcu STM32F407VG { family = STM32F4; system = "stm32f4xx"; }
type MCUDecl struct {
	Pos   lexer.Position
	Name  string      `KwMCU @Ident LBrace`
	Props []*Property `@@* RBrace`
}

// Property is a key = value; pair. "family" is a keyword at top level but a
// plain key inside an mcu block.
type Property struct {
	Pos   lexer.Position
	Key   string `@( Ident | KwFamily ) Assign`
	Value string `@( String | Ident ) Semicolon`
}

func props(list []*Property) map[string]*Property {
	m := make(map[string]*Property, len(list))
	for _, p := range list {
		m[p.Key] = p
	}
	return m
}
