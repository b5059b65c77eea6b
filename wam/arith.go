// This file is part of scryer-prolog - https://github.com/patrickdet/scryer-prolog
//
// Copyright 2026 The scryer-prolog authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wam

import (
	"fmt"
	"math"
	"math/big"
)

// Arithmetic evaluates over three numeric kinds. Small-integer operations
// run on int64 and promote to bignums on overflow; a bignum result that fits
// back into an int64 is demoted so integer identity is canonical.

type numKind uint8

const (
	numInt numKind = iota
	numBig
	numFloat
)

type num struct {
	kind numKind
	i    int64
	b    *big.Int
	f    float64
}

func intNum(i int64) num     { return num{kind: numInt, i: i} }
func floatNum(f float64) num { return num{kind: numFloat, f: f} }
func bigNum(b *big.Int) num  { return num{kind: numBig, b: b} }

// norm demotes a bignum that fits in an int64.
func (n num) norm() num {
	if n.kind == numBig && n.b.IsInt64() {
		return intNum(n.b.Int64())
	}
	return n
}

func (n num) toBig() *big.Int {
	if n.kind == numBig {
		return n.b
	}
	return big.NewInt(n.i)
}

func (n num) toFloat() float64 {
	switch n.kind {
	case numFloat:
		return n.f
	case numBig:
		f, _ := new(big.Float).SetInt(n.b).Float64()
		return f
	default:
		return float64(n.i)
	}
}

// eval evaluates an arithmetic expression cell to a numeric cell.
func (m *Machine) eval(c Cell) (Cell, error) {
	n, err := m.evalNum(c)
	if err != nil {
		return Cell{}, err
	}
	return m.numCell(n), nil
}

func (m *Machine) numCell(n num) Cell {
	switch n := n.norm(); n.kind {
	case numInt:
		return intCell(n.i)
	case numBig:
		return m.arena.putBig(n.b)
	default:
		return m.arena.putFloat(n.f)
	}
}

func (m *Machine) evalNum(c Cell) (num, error) {
	c = m.deref(c)
	switch c.Tag {
	case TagInt:
		return intNum(c.Val), nil
	case TagBig:
		return bigNum(m.arena.big(c.Val)), nil
	case TagFloat:
		return floatNum(m.arena.float(c.Val)), nil
	case TagRef:
		return num{}, instantiationError("is/2")
	case TagAtom:
		switch m.atoms.Name(c.Atom()) {
		case "pi":
			return floatNum(math.Pi), nil
		case "e":
			return floatNum(math.E), nil
		case "epsilon":
			return floatNum(math.Nextafter(1, 2) - 1), nil
		case "max_tagged_integer":
			return intNum(math.MaxInt64), nil
		}
		return num{}, evaluableError(m.atoms.Name(c.Atom()), 0)
	case TagStr:
		hdr := m.heap[c.Val]
		name := m.atoms.Name(hdr.Atom())
		if hdr.Arity == 1 {
			x, err := m.evalNum(m.heap[c.Val+1])
			if err != nil {
				return num{}, err
			}
			return evalUnary(name, x)
		}
		if hdr.Arity == 2 {
			x, err := m.evalNum(m.heap[c.Val+1])
			if err != nil {
				return num{}, err
			}
			y, err := m.evalNum(m.heap[c.Val+2])
			if err != nil {
				return num{}, err
			}
			return evalBinary(name, x, y)
		}
		return num{}, evaluableError(name, int(hdr.Arity))
	default:
		return num{}, typeError("evaluable", m.decode(c), "is/2")
	}
}

// evaluableError builds error(type_error(evaluable, Name/Arity), is/2).
func evaluableError(name string, arity int) *Exception {
	return typeError("evaluable",
		Comp("/", Atom(name), Int(int64(arity))), "is/2")
}

func evalUnary(name string, x num) (num, error) {
	switch name {
	case "-":
		return negNum(x), nil
	case "+":
		return x, nil
	case "abs":
		if x.kind == numFloat {
			return floatNum(math.Abs(x.f)), nil
		}
		if x.kind == numInt && x.i != math.MinInt64 {
			if x.i < 0 {
				return intNum(-x.i), nil
			}
			return x, nil
		}
		return bigNum(new(big.Int).Abs(x.toBig())).norm(), nil
	case "sign":
		switch x.kind {
		case numFloat:
			switch {
			case x.f > 0:
				return floatNum(1), nil
			case x.f < 0:
				return floatNum(-1), nil
			}
			return floatNum(0), nil
		case numBig:
			return intNum(int64(x.b.Sign())), nil
		default:
			switch {
			case x.i > 0:
				return intNum(1), nil
			case x.i < 0:
				return intNum(-1), nil
			}
			return intNum(0), nil
		}
	case "min", "max":
		return num{}, evaluableError(name, 1)
	case "sqrt":
		v := x.toFloat()
		if v < 0 {
			return num{}, evaluationError("undefined", "is/2")
		}
		return floatNum(math.Sqrt(v)), nil
	case "sin":
		return floatNum(math.Sin(x.toFloat())), nil
	case "cos":
		return floatNum(math.Cos(x.toFloat())), nil
	case "tan":
		return floatNum(math.Tan(x.toFloat())), nil
	case "asin":
		return floatNum(math.Asin(x.toFloat())), nil
	case "acos":
		return floatNum(math.Acos(x.toFloat())), nil
	case "atan":
		return floatNum(math.Atan(x.toFloat())), nil
	case "exp":
		return floatNum(math.Exp(x.toFloat())), nil
	case "log":
		v := x.toFloat()
		if v <= 0 {
			return num{}, evaluationError("undefined", "is/2")
		}
		return floatNum(math.Log(v)), nil
	case "float":
		return floatNum(x.toFloat()), nil
	case "integer", "truncate":
		return floatToInt(x, math.Trunc)
	case "floor":
		return floatToInt(x, math.Floor)
	case "ceiling":
		return floatToInt(x, math.Ceil)
	case "round":
		return floatToInt(x, math.Round)
	case "float_integer_part":
		return floatNum(math.Trunc(x.toFloat())), nil
	case "float_fractional_part":
		v := x.toFloat()
		return floatNum(v - math.Trunc(v)), nil
	case "\\":
		if x.kind == numFloat {
			return num{}, typeError("integer", Float(x.f), "is/2")
		}
		return bigNum(new(big.Int).Not(x.toBig())).norm(), nil
	case "msb":
		if x.kind == numFloat || x.toBig().Sign() <= 0 {
			return num{}, typeError("integer", Float(x.toFloat()), "is/2")
		}
		return intNum(int64(x.toBig().BitLen() - 1)), nil
	}
	return num{}, evaluableError(name, 1)
}

func floatToInt(x num, round func(float64) float64) (num, error) {
	if x.kind != numFloat {
		return x, nil
	}
	v := round(x.f)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return num{}, evaluationError("undefined", "is/2")
	}
	if v >= math.MinInt64 && v <= math.MaxInt64 {
		return intNum(int64(v)), nil
	}
	b, _ := new(big.Float).SetFloat64(v).Int(nil)
	return bigNum(b), nil
}

func negNum(x num) num {
	switch x.kind {
	case numFloat:
		return floatNum(-x.f)
	case numInt:
		if x.i != math.MinInt64 {
			return intNum(-x.i)
		}
		fallthrough
	default:
		return bigNum(new(big.Int).Neg(x.toBig())).norm()
	}
}

func evalBinary(name string, x, y num) (num, error) {
	switch name {
	case "+":
		return addNum(x, y), nil
	case "-":
		return addNum(x, negNum(y)), nil
	case "*":
		return mulNum(x, y), nil
	case "/":
		return divNum(x, y)
	case "//":
		return intDivNum(x, y, false)
	case "div":
		return intDivNum(x, y, true)
	case "mod":
		return modNum(x, y, true)
	case "rem":
		return modNum(x, y, false)
	case "min":
		if c := cmpNum(x, y); c <= 0 {
			return x, nil
		}
		return y, nil
	case "max":
		if c := cmpNum(x, y); c >= 0 {
			return x, nil
		}
		return y, nil
	case "**":
		return floatNum(math.Pow(x.toFloat(), y.toFloat())), nil
	case "^":
		return powNum(x, y)
	case "atan", "atan2":
		return floatNum(math.Atan2(x.toFloat(), y.toFloat())), nil
	case ">>", "<<", "/\\", "\\/", "xor", "gcd":
		return bitwiseNum(name, x, y)
	}
	return num{}, evaluableError(name, 2)
}

func addNum(x, y num) num {
	if x.kind == numFloat || y.kind == numFloat {
		return floatNum(x.toFloat() + y.toFloat())
	}
	if x.kind == numInt && y.kind == numInt {
		s := x.i + y.i
		// signed overflow check: the result flipped sign against both operands
		if (x.i >= 0) == (y.i >= 0) && (s >= 0) != (x.i >= 0) {
			return bigNum(new(big.Int).Add(x.toBig(), y.toBig()))
		}
		return intNum(s)
	}
	return bigNum(new(big.Int).Add(x.toBig(), y.toBig())).norm()
}

func mulNum(x, y num) num {
	if x.kind == numFloat || y.kind == numFloat {
		return floatNum(x.toFloat() * y.toFloat())
	}
	if x.kind == numInt && y.kind == numInt {
		if x.i == 0 || y.i == 0 {
			return intNum(0)
		}
		p := x.i * y.i
		if p/y.i != x.i || (x.i == math.MinInt64 && y.i == -1) {
			return bigNum(new(big.Int).Mul(x.toBig(), y.toBig()))
		}
		return intNum(p)
	}
	return bigNum(new(big.Int).Mul(x.toBig(), y.toBig())).norm()
}

// divNum implements (/)/2: an exact integer quotient stays integral,
// anything else is a float.
func divNum(x, y num) (num, error) {
	if x.kind == numFloat || y.kind == numFloat {
		d := y.toFloat()
		if d == 0 {
			return num{}, evaluationError("zero_divisor", "is/2")
		}
		return floatNum(x.toFloat() / d), nil
	}
	yb := y.toBig()
	if yb.Sign() == 0 {
		return num{}, evaluationError("zero_divisor", "is/2")
	}
	q, r := new(big.Int).QuoRem(x.toBig(), yb, new(big.Int))
	if r.Sign() == 0 {
		return bigNum(q).norm(), nil
	}
	return floatNum(x.toFloat() / y.toFloat()), nil
}

// intDivNum implements (//)/2 truncating toward zero, or div/2 rounding
// toward negative infinity when floored is set.
func intDivNum(x, y num, floored bool) (num, error) {
	if x.kind == numFloat {
		return num{}, typeError("integer", Float(x.toFloat()), "is/2")
	}
	if y.kind == numFloat {
		return num{}, typeError("integer", Float(y.toFloat()), "is/2")
	}
	yb := y.toBig()
	if yb.Sign() == 0 {
		return num{}, evaluationError("zero_divisor", "is/2")
	}
	q, r := new(big.Int).QuoRem(x.toBig(), yb, new(big.Int))
	if floored && r.Sign() != 0 && r.Sign() != yb.Sign() {
		q.Sub(q, big.NewInt(1))
	}
	return bigNum(q).norm(), nil
}

// modNum: floored=true gives mod/2 (result sign follows the divisor),
// floored=false gives rem/2 (result sign follows the dividend).
func modNum(x, y num, floored bool) (num, error) {
	if x.kind == numFloat || y.kind == numFloat {
		return num{}, typeError("integer", Float(y.toFloat()), "is/2")
	}
	yb := y.toBig()
	if yb.Sign() == 0 {
		return num{}, evaluationError("zero_divisor", "is/2")
	}
	r := new(big.Int).Rem(x.toBig(), yb)
	if floored && r.Sign() != 0 && r.Sign() != yb.Sign() {
		r.Add(r, yb)
	}
	return bigNum(r).norm(), nil
}

func powNum(x, y num) (num, error) {
	if x.kind == numFloat || y.kind == numFloat {
		return floatNum(math.Pow(x.toFloat(), y.toFloat())), nil
	}
	yb := y.toBig()
	if yb.Sign() < 0 {
		xb := x.toBig()
		if xb.Sign() == 0 {
			return num{}, evaluationError("zero_divisor", "is/2")
		}
		// only 1 and -1 have integral negative powers
		if xb.CmpAbs(big.NewInt(1)) == 0 {
			return powNum(x, bigNum(new(big.Int).Neg(yb)))
		}
		return num{}, typeError("float", Int(xb.Int64()), "is/2")
	}
	if !yb.IsInt64() {
		return num{}, &Exception{Ball: Comp("error",
			Comp("resource_error", Atom("memory")), Atom("is/2"))}
	}
	return bigNum(new(big.Int).Exp(x.toBig(), yb, nil)).norm(), nil
}

func bitwiseNum(name string, x, y num) (num, error) {
	if x.kind == numFloat || y.kind == numFloat {
		return num{}, typeError("integer", Float(x.toFloat()), "is/2")
	}
	xb, yb := x.toBig(), y.toBig()
	switch name {
	case "/\\":
		return bigNum(new(big.Int).And(xb, yb)).norm(), nil
	case "\\/":
		return bigNum(new(big.Int).Or(xb, yb)).norm(), nil
	case "xor":
		return bigNum(new(big.Int).Xor(xb, yb)).norm(), nil
	case "gcd":
		return bigNum(new(big.Int).GCD(nil, nil, new(big.Int).Abs(xb), new(big.Int).Abs(yb))).norm(), nil
	case "<<", ">>":
		if !yb.IsInt64() || yb.Int64() < 0 || yb.Int64() > 1<<20 {
			return num{}, evaluationError("undefined", "is/2")
		}
		sh := uint(yb.Int64())
		if name == "<<" {
			return bigNum(new(big.Int).Lsh(xb, sh)).norm(), nil
		}
		return bigNum(new(big.Int).Rsh(xb, sh)).norm(), nil
	}
	panic(fmt.Sprintf("wam: unexpected bitwise op %q", name))
}

func cmpNum(x, y num) int {
	if x.kind == numFloat || y.kind == numFloat {
		a, b := x.toFloat(), y.toFloat()
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	}
	return x.toBig().Cmp(y.toBig())
}

// numCompare orders two evaluated numeric cells.
func (m *Machine) numCompare(a, b Cell) (int, error) {
	x, err := m.evalNum(a)
	if err != nil {
		return 0, err
	}
	y, err := m.evalNum(b)
	if err != nil {
		return 0, err
	}
	return cmpNum(x, y), nil
}
