package lutformats

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// cdlCodec implements the ASC ColorCorrection (.cdl) and ColorDecisionList
// (.ccc) XML schemas. A .ccc may hold many ColorDecision elements; this
// codec decodes the first one, matching single-Table-per-file semantics.
type cdlCodec struct{}

func init() {
	Register(cdlCodec{}, "cdl", "ccc")
}

func (cdlCodec) Name() string { return "cdl" }
func (cdlCodec) Sniff(name string, head []byte) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".cdl") || strings.HasSuffix(lower, ".ccc")
}

type xmlSOPNode struct {
	Slope      string `xml:"Slope"`
	Offset     string `xml:"Offset"`
	Power      string `xml:"Power"`
}

type xmlSatNode struct {
	Saturation float64 `xml:"Saturation"`
}

type xmlColorCorrection struct {
	XMLName xml.Name   `xml:"ColorCorrection"`
	ID      string     `xml:"id,attr"`
	SOP     xmlSOPNode `xml:"SOPNode"`
	Sat     xmlSatNode `xml:"SatNode"`
}

type xmlColorDecision struct {
	ColorCorrection xmlColorCorrection `xml:"ColorCorrection"`
}

type xmlColorDecisionList struct {
	XMLName   xml.Name           `xml:"ColorDecisionList"`
	Decisions []xmlColorDecision `xml:"ColorDecision"`
}

func parseTriple(s string) ([3]float64, error) {
	fields := strings.Fields(s)
	var out [3]float64
	if len(fields) != 3 {
		return out, &LutError{Kind: ParseError, Message: fmt.Sprintf("expected 3 values, got %q", s)}
	}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return out, &LutError{Kind: ParseError, Message: fmt.Sprintf("non-numeric token %q", f), Cause: err}
		}
		out[i] = v
	}
	return out, nil
}

func ccFromXML(cc xmlColorCorrection) (*CDL, error) {
	slope, err := parseTriple(cc.SOP.Slope)
	if err != nil {
		return nil, err
	}
	offset, err := parseTriple(cc.SOP.Offset)
	if err != nil {
		return nil, err
	}
	power, err := parseTriple(cc.SOP.Power)
	if err != nil {
		return nil, err
	}
	sat := cc.Sat.Saturation
	if sat == 0 {
		sat = 1
	}
	return &CDL{Slope: slope, Offset: offset, Power: power, Saturation: sat, ID: cc.ID}, nil
}

func (cdlCodec) Decode(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &LutError{Kind: ParseError, Message: "read error", Cause: err}
	}

	if strings.Contains(string(data), "<ColorDecisionList") {
		var list xmlColorDecisionList
		if err := xml.Unmarshal(data, &list); err != nil {
			return nil, &LutError{Kind: ParseError, Message: "invalid ColorDecisionList XML", Cause: err}
		}
		if len(list.Decisions) == 0 {
			return nil, &LutError{Kind: ParseError, Message: "ColorDecisionList has no ColorDecision elements"}
		}
		cdl, err := ccFromXML(list.Decisions[0].ColorCorrection)
		if err != nil {
			return nil, err
		}
		return &Table{CDL: cdl}, nil
	}

	var cc xmlColorCorrection
	if err := xml.Unmarshal(data, &cc); err != nil {
		return nil, &LutError{Kind: ParseError, Message: "invalid ColorCorrection XML", Cause: err}
	}
	cdl, err := ccFromXML(cc)
	if err != nil {
		return nil, err
	}
	return &Table{CDL: cdl}, nil
}

func (cdlCodec) Encode(w io.Writer, t *Table) error {
	if t.CDL == nil {
		return &LutError{Kind: ParseError, Message: "cdl encode requires a CDL table"}
	}
	c := t.CDL
	cc := xmlColorCorrection{
		ID: c.ID,
		SOP: xmlSOPNode{
			Slope:  fmt.Sprintf("%g %g %g", c.Slope[0], c.Slope[1], c.Slope[2]),
			Offset: fmt.Sprintf("%g %g %g", c.Offset[0], c.Offset[1], c.Offset[2]),
			Power:  fmt.Sprintf("%g %g %g", c.Power[0], c.Power[1], c.Power[2]),
		},
		Sat: xmlSatNode{Saturation: c.Saturation},
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(&cc); err != nil {
		return &LutError{Kind: ParseError, Message: "XML encode failed", Cause: err}
	}
	return nil
}
