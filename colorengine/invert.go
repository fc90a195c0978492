package colorengine

import "github.com/ssoj13/vfxcore/colormath"

// invertOp returns the mathematical inverse of a primitive op: matrix
// inversion, precomputed LUT inverse, exponent reciprocal, log inverse,
// Range endpoint swap, and per-style CDL inversion. ColorSpace references
// never reach here: Compile flattens them to primitive ops first and then
// inverts those ops one by one.
func invertOp(o *Op) (*Op, error) {
	switch o.Kind {
	case KindMatrix:
		m4 := colormath.Matrix4(o.Matrix.M)
		inv := m4.Inverse()
		return &Op{Kind: KindMatrix, Matrix: &MatrixParams{M: [16]float64(inv)}}, nil

	case KindLUT1D:
		return &Op{Kind: KindLUT1D, LUT1D: o.LUT1D.Inverse()}, nil

	case KindLUT3D:
		return &Op{Kind: KindLUT3D, LUT3D: o.LUT3D.Inverse()}, nil

	case KindExponent:
		inv := &ExponentParams{Style: o.Exponent.Style}
		for c := 0; c < 3; c++ {
			if o.Exponent.Gamma[c] == 0 {
				return nil, &TransformError{Kind: InverseUndefined, Message: "Exponent gamma of 0 has no inverse"}
			}
			inv.Gamma[c] = 1.0 / o.Exponent.Gamma[c]
		}
		return &Op{Kind: KindExponent, Exponent: inv}, nil

	case KindExponentWithLinear:
		// ExponentWithLinear is inverted by reciprocating gamma and keeping
		// the same Offset; the op carries no direction of its own.
		inv := &ExponentWithLinearParams{Offset: o.ExponentWithLinear.Offset, Style: o.ExponentWithLinear.Style}
		for c := 0; c < 3; c++ {
			if o.ExponentWithLinear.Gamma[c] == 0 {
				return nil, &TransformError{Kind: InverseUndefined, Message: "ExponentWithLinear gamma of 0 has no inverse"}
			}
			inv.Gamma[c] = 1.0 / o.ExponentWithLinear.Gamma[c]
		}
		return &Op{Kind: KindExponentWithLinear, ExponentWithLinear: inv}, nil

	case KindLog:
		// The forward/inverse asymmetry lives entirely in ToLog vs
		// FromLog; invert by flipping LogParams.Inverse rather than
		// deriving new coefficients.
		return &Op{Kind: KindLog, Log: &LogParams{Params: o.Log.Params, Inverse: !o.Log.Inverse}}, nil

	case KindRange:
		r := o.Range
		inv := &RangeParams{
			MinIn: r.MinOut, MaxIn: r.MaxOut, HasMinIn: r.HasMinOut, HasMaxIn: r.HasMaxOut,
			MinOut: r.MinIn, MaxOut: r.MaxIn, HasMinOut: r.HasMinIn, HasMaxOut: r.HasMaxIn,
			Clamp: r.Clamp,
		}
		return &Op{Kind: KindRange, Range: inv}, nil

	case KindCDL:
		inv, err := invertCDL(o.CDL)
		if err != nil {
			return nil, err
		}
		return &Op{Kind: KindCDL, CDL: inv}, nil

	case KindFixedFunction:
		inv, err := invertFixedFunction(o.FixedFunction)
		if err != nil {
			return nil, err
		}
		return &Op{Kind: KindFixedFunction, FixedFunction: inv}, nil

	default:
		return nil, &TransformError{Kind: InverseUndefined, Message: "no inverse defined for this op kind"}
	}
}

func invertCDL(c *CDLParams) (*CDLParams, error) {
	inv := &CDLParams{Saturation: 1.0 / c.Saturation, Style: c.Style}
	for i := 0; i < 3; i++ {
		if c.Slope[i] == 0 {
			return nil, &TransformError{Kind: InverseUndefined, Message: "CDL slope of 0 has no inverse"}
		}
		if c.Power[i] == 0 {
			return nil, &TransformError{Kind: InverseUndefined, Message: "CDL power of 0 has no inverse"}
		}
		inv.Power[i] = 1.0 / c.Power[i]
		inv.Slope[i] = 1.0 / c.Slope[i]
		inv.Offset[i] = -c.Offset[i] / c.Slope[i]
	}
	return inv, nil
}

func invertFixedFunction(f *FixedFunctionParams) (*FixedFunctionParams, error) {
	inv := &FixedFunctionParams{Args: f.Args}
	switch f.Style {
	case FixedFunctionRGBToHSV:
		inv.Style = FixedFunctionHSVToRGB
	case FixedFunctionHSVToRGB:
		inv.Style = FixedFunctionRGBToHSV
	case FixedFunctionACESGamutCompress:
		inv.Style = FixedFunctionACESGamutCompressInverse
	case FixedFunctionACESGamutCompressInverse:
		inv.Style = FixedFunctionACESGamutCompress
	default:
		return nil, &TransformError{Kind: InverseUndefined, Message: "FixedFunction style has no inverse"}
	}
	return inv, nil
}
