package regschema

import (
	"fmt"
	"strconv"
)

// maxWord is the largest value a 32-bit register can hold.
const maxWord = 0xFFFFFFFF

// Parse decodes a register description held in memory. name is only used
// in error messages and as Schema.Chip.
func Parse(name string, data []byte, format Format) (*Schema, error) {
	root, err := readDocument(data, format)
	if err != nil {
		return nil, &ParseError{File: name, Msg: "cannot decode " + format.String(), Err: err}
	}
	d := &decoder{file: name}
	s, err := d.schema(root)
	if err != nil {
		return nil, err
	}
	s.Chip = name
	return s, nil
}

type decoder struct {
	file string
}

func (d *decoder) fail(n *node, path, format string, args ...any) error {
	e := &ParseError{File: d.file, Path: path, Msg: fmt.Sprintf(format, args...)}
	if n != nil {
		e.Line = n.line
	}
	return e
}

func (d *decoder) schema(root *node) (*Schema, error) {
	if root.kind != mapNode {
		return nil, d.fail(root, "", "expected an object at top level, got %s", root.kind)
	}
	clock, err := d.required(root, "", "clock")
	if err != nil {
		return nil, err
	}
	s := &Schema{Clock: clock}

	regs := root.get("config_registers")
	if regs == nil || regs.kind == nullNode {
		return s, nil
	}
	if regs.kind != seqNode {
		return nil, d.fail(regs, "config_registers", "expected a sequence, got %s", regs.kind)
	}

	seen := make(map[CombinedKey]string, len(regs.items))
	for i, rn := range regs.items {
		path := fmt.Sprintf("config_registers[%d]", i)
		reg, err := d.register(rn, path)
		if err != nil {
			return nil, err
		}
		ck := reg.CombinedKey()
		if first, dup := seen[ck]; dup {
			return nil, d.fail(rn, path, "register %s at %s already declared at %s", reg.Key, reg.Address, first)
		}
		seen[ck] = path
		s.Registers = append(s.Registers, reg)
	}
	return s, nil
}

func (d *decoder) register(n *node, path string) (RegisterDef, error) {
	if n.kind != mapNode {
		return RegisterDef{}, d.fail(n, path, "expected an object, got %s", n.kind)
	}
	key, err := d.required(n, path, "key")
	if err != nil {
		return RegisterDef{}, err
	}
	addr, err := d.requiredLiteral(n, path, "address")
	if err != nil {
		return RegisterDef{}, err
	}
	if err := d.word(n, path, "address", addr); err != nil {
		return RegisterDef{}, err
	}
	reg := RegisterDef{Key: key, Address: addr}

	fields := n.get("fields")
	if fields == nil {
		return RegisterDef{}, d.fail(n, path+".fields", "missing required key")
	}
	if fields.kind != seqNode {
		return RegisterDef{}, d.fail(fields, path+".fields", "expected a sequence, got %s", fields.kind)
	}
	for i, fn := range fields.items {
		f, err := d.field(fn, fmt.Sprintf("%s.fields[%d]", path, i))
		if err != nil {
			return RegisterDef{}, err
		}
		reg.Fields = append(reg.Fields, f)
	}
	return reg, nil
}

func (d *decoder) field(n *node, path string) (FieldDef, error) {
	if n.kind != mapNode {
		return FieldDef{}, d.fail(n, path, "expected an object, got %s", n.kind)
	}
	key, err := d.required(n, path, "key")
	if err != nil {
		return FieldDef{}, err
	}
	mask, err := d.requiredLiteral(n, path, "mask")
	if err != nil {
		return FieldDef{}, err
	}
	if err := d.word(n, path, "mask", mask); err != nil {
		return FieldDef{}, err
	}
	f := FieldDef{Key: key, Label: key, Mask: mask}

	if label, ok, err := d.optional(n, path, "label"); err != nil {
		return FieldDef{}, err
	} else if ok {
		f.Label = label
	}

	if h := n.get("hidden"); h != nil && h.kind != nullNode {
		if h.kind != boolNode {
			return FieldDef{}, d.fail(h, path+".hidden", "expected a boolean, got %s %q", h.kind, h.text)
		}
		f.Hidden = h.truth
	}

	initText, ok, err := d.literal(n, path, "init")
	if err != nil {
		return FieldDef{}, err
	}
	switch {
	case ok:
		f.Init = initText
	case f.Hidden:
		f.Init = "0x0"
	}

	sn := n.get("settings")
	if sn == nil || sn.kind == nullNode {
		return f, nil
	}
	if sn.kind != seqNode {
		return FieldDef{}, d.fail(sn, path+".settings", "expected a sequence, got %s", sn.kind)
	}
	f.Settings = make([]Setting, 0, len(sn.items))
	for i, item := range sn.items {
		spath := fmt.Sprintf("%s.settings[%d]", path, i)
		if item.kind != mapNode {
			return FieldDef{}, d.fail(item, spath, "expected an object, got %s", item.kind)
		}
		label, err := d.required(item, spath, "label")
		if err != nil {
			return FieldDef{}, err
		}
		value, err := d.requiredLiteral(item, spath, "value")
		if err != nil {
			return FieldDef{}, err
		}
		f.Settings = append(f.Settings, Setting{Label: label, Value: value})
	}
	return f, nil
}

func (d *decoder) required(n *node, path, key string) (string, error) {
	v, ok, err := d.optional(n, path, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", d.fail(n, join(path, key), "missing required key")
	}
	return v, nil
}

// optional reads a scalar child. Booleans are accepted as text so a stray
// init: true still loads.
func (d *decoder) optional(n *node, path, key string) (string, bool, error) {
	c := n.get(key)
	if c == nil || c.kind == nullNode {
		return "", false, nil
	}
	switch c.kind {
	case scalarNode, boolNode:
		return c.text, true, nil
	}
	return "", false, d.fail(c, join(path, key), "expected a scalar, got %s", c.kind)
}

func (d *decoder) requiredLiteral(n *node, path, key string) (string, error) {
	v, ok, err := d.literal(n, path, key)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", d.fail(n, join(path, key), "missing required key")
	}
	return v, nil
}

// literal reads a register literal. Quoted text is kept as written and is
// read as hex later; a bare number is decimal and is rewritten as 0x text.
func (d *decoder) literal(n *node, path, key string) (string, bool, error) {
	v, ok, err := d.optional(n, path, key)
	if err != nil || !ok {
		return v, ok, err
	}
	c := n.get(key)
	if !c.number {
		return v, true, nil
	}
	u, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return "", false, d.fail(c, join(path, key), "expected a non-negative integer, got %s", v)
	}
	return fmt.Sprintf("0x%X", u), true, nil
}

// word checks that a hex literal fits in a 32-bit register.
func (d *decoder) word(n *node, path, key, text string) error {
	v, err := ParseHex(text)
	if err != nil {
		return d.fail(n.get(key), join(path, key), "%v", err)
	}
	if v > maxWord {
		return d.fail(n.get(key), join(path, key), "%s does not fit in 32 bits", text)
	}
	return nil
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
